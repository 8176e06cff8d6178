// Package taskstore wraps the task table queries: filtered listings with
// deterministic pagination and the aggregate counts the dashboards consume.
package taskstore

import (
	"strings"

	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/types"
	"gorm.io/gorm"
)

// Filter narrows a task listing. Zero values mean "no constraint".
type Filter struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo uint
	AssignedBy uint
	Page       int
	Limit      int
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	if f.Category != "" {
		// Case-insensitive substring match, portable across postgres and sqlite.
		q = q.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(f.Category)+"%")
	}

	if f.AssignedTo != 0 {
		q = q.Where("assigned_to_id = ?", f.AssignedTo)
	}

	if f.AssignedBy != 0 {
		q = q.Where("assigned_by_id = ?", f.AssignedBy)
	}

	return q
}

// Normalize clamps pagination to page >= 1 and a positive limit, falling back
// to defaultLimit when none is given.
func (f Filter) Normalize(defaultLimit int) (page, limit int) {
	page = f.Page

	if page < 1 {
		page = 1
	}

	limit = f.Limit

	if limit < 1 {
		limit = defaultLimit
	}

	return page, limit
}

// List returns one page of tasks matching the filter plus the total match
// count. Ordering is newest-first with ties broken by id, so pages never
// overlap or skip rows.
func List(f Filter, defaultLimit int) ([]models.Task, int64, error) {
	page, limit := f.Normalize(defaultLimit)

	var total int64

	if err := f.apply(db.DB.Model(&models.Task{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task

	err := f.apply(db.DB.Model(&models.Task{})).
		Preload("AssignedTo").
		Preload("AssignedBy").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tasks).Error

	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// FindByID loads a single task with both user references resolved.
func FindByID(id uint) (*models.Task, error) {
	var task models.Task

	err := db.DB.Preload("AssignedTo").Preload("AssignedBy").First(&task, id).Error

	if err != nil {
		return nil, err
	}

	return &task, nil
}

type countRow struct {
	Key   string
	Count int64
}

func groupCounts(f Filter, column string, keys []string) (map[string]int64, error) {
	var rows []countRow

	err := f.apply(db.DB.Model(&models.Task{})).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	// Zero-fill so every declared value appears in the result.
	counts := make(map[string]int64, len(keys))

	for _, key := range keys {
		counts[key] = 0
	}

	for _, row := range rows {
		counts[row.Key] = row.Count
	}

	return counts, nil
}

// StatusCounts returns the number of matching tasks per status, zero-filled
// over every declared status. The same filter as the listing applies, so the
// counts always sum to the listing's total.
func StatusCounts(f Filter) (map[string]int64, error) {
	return groupCounts(f, "status", types.Statuses)
}

// PriorityCounts returns the number of matching tasks per priority,
// zero-filled over every declared priority.
func PriorityCounts(f Filter) (map[string]int64, error) {
	return groupCounts(f, "priority", types.Priorities)
}

// AssigneeStats is the per-assignee analytics block of the admin listing.
type AssigneeStats struct {
	UserID         uint    `json:"user_id" gorm:"column:user_id"`
	FirstName      string  `json:"first_name" gorm:"column:first_name"`
	LastName       string  `json:"last_name" gorm:"column:last_name"`
	Email          string  `json:"email" gorm:"column:email"`
	Total          int64   `json:"total" gorm:"column:total"`
	Pending        int64   `json:"pending" gorm:"column:pending"`
	InProgress     int64   `json:"in_progress" gorm:"column:in_progress"`
	Completed      int64   `json:"completed" gorm:"column:completed"`
	Failed         int64   `json:"failed" gorm:"column:failed"`
	CompletionRate float64 `json:"completion_rate" gorm:"-"`
}

// AssigneeAnalytics aggregates task counts per assignee across all tasks.
func AssigneeAnalytics() ([]AssigneeStats, error) {
	var stats []AssigneeStats

	err := db.DB.Model(&models.Task{}).
		Select(`tasks.assigned_to_id AS user_id,
			users.first_name AS first_name,
			users.last_name AS last_name,
			users.email AS email,
			COUNT(*) AS total,
			SUM(CASE WHEN tasks.status = 'pending' THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN tasks.status = 'in_progress' THEN 1 ELSE 0 END) AS in_progress,
			SUM(CASE WHEN tasks.status = 'completed' THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN tasks.status = 'failed' THEN 1 ELSE 0 END) AS failed`).
		Joins("JOIN users ON users.id = tasks.assigned_to_id").
		Group("tasks.assigned_to_id, users.first_name, users.last_name, users.email").
		Order("total DESC").
		Scan(&stats).Error

	if err != nil {
		return nil, err
	}

	for i := range stats {
		if stats[i].Total > 0 {
			stats[i].CompletionRate = float64(stats[i].Completed) / float64(stats[i].Total) * 100
		}
	}

	return stats, nil
}
