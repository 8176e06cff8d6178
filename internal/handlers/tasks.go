package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/services"
	"github.com/taskdeck/taskdeck/internal/taskstore"
	"github.com/taskdeck/taskdeck/internal/types"
	"github.com/taskdeck/taskdeck/internal/utils"
	"github.com/taskdeck/taskdeck/internal/workflow"
	"gorm.io/gorm"
)

const (
	defaultMyTasksLimit  = 10
	defaultAllTasksLimit = 20
)

type TaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  uint       `json:"assigned_to"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// dueDateOnUpdate reports whether the past-due-date check also applies to
// full updates. Creation always enforces it.
func dueDateOnUpdate() bool {
	return os.Getenv("DUE_DATE_ON_UPDATE") == "enforce"
}

func validateTaskRequest(req TaskRequest, checkDueDate bool) []string {
	var errs []string

	title := strings.TrimSpace(req.Title)

	if title == "" {
		errs = append(errs, "Title is required")
	} else if n := utf8.RuneCountInString(title); n < 3 || n > 100 {
		errs = append(errs, "Title must be between 3 and 100 characters")
	}

	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, "Description is required")
	}

	if req.AssignedTo == 0 {
		errs = append(errs, "Please provide assigned_to")
	}

	if req.Priority != "" && !types.ValidPriority(req.Priority) {
		errs = append(errs, "Priority must be one of: "+strings.Join(types.Priorities, ", "))
	}

	if checkDueDate && req.DueDate != nil && req.DueDate.Before(time.Now()) {
		errs = append(errs, "Due date must not be in the past")
	}

	return errs
}

// resolveAssignee loads the assignee and rejects missing or deactivated
// accounts before any task row is written.
func resolveAssignee(ctx *gin.Context, id uint) (*models.User, bool) {
	var user models.User

	if err := db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, types.Error("Assigned user not found"))
		} else {
			log.Printf("Failed to fetch assignee %d: %v", id, err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		}
		return nil, false
	}

	if !user.IsActive {
		ctx.JSON(http.StatusBadRequest, types.Error("Cannot assign task to inactive user"))
		return nil, false
	}

	return &user, true
}

func CreateTask(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	var req TaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	if errs := validateTaskRequest(req, true); len(errs) > 0 {
		ctx.JSON(http.StatusBadRequest, types.ValidationError("Validation failed", errs))
		return
	}

	if _, ok := resolveAssignee(ctx, req.AssignedTo); !ok {
		return
	}

	priority := req.Priority

	if priority == "" {
		priority = types.PriorityMedium
	}

	task := models.Task{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		AssignedToID: req.AssignedTo,
		AssignedByID: currentUser.ID,
		Status:       types.StatusPending,
		Priority:     priority,
		Category:     strings.TrimSpace(req.Category),
		DueDate:      req.DueDate,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	created, err := taskstore.FindByID(task.ID)

	if err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	go services.NotifyTaskAssigned(*created)
	BroadcastTaskEvent("task_created", created.ID, created.Title)

	ctx.JSON(http.StatusCreated, types.OK("Task created successfully", gin.H{
		"task": taskResponse(created),
	}))
}

// parseTaskFilter builds a store filter from the listing query parameters.
func parseTaskFilter(ctx *gin.Context, defaultLimit int) (taskstore.Filter, bool) {
	var filter taskstore.Filter

	if status := ctx.Query("status"); status != "" {
		if !types.ValidStatus(status) {
			ctx.JSON(http.StatusBadRequest, types.Error("Invalid status. Must be one of: "+strings.Join(types.Statuses, ", ")))
			return filter, false
		}
		filter.Status = status
	}

	if priority := ctx.Query("priority"); priority != "" {
		if !types.ValidPriority(priority) {
			ctx.JSON(http.StatusBadRequest, types.Error("Invalid priority. Must be one of: "+strings.Join(types.Priorities, ", ")))
			return filter, false
		}
		filter.Priority = priority
	}

	filter.Category = ctx.Query("category")

	for param, target := range map[string]*uint{
		"assigned_to": &filter.AssignedTo,
		"assigned_by": &filter.AssignedBy,
	} {
		if raw := ctx.Query(param); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)

			if err != nil {
				ctx.JSON(http.StatusBadRequest, types.Error("Invalid "+param+" format"))
				return filter, false
			}

			*target = uint(id)
		}
	}

	page, limit, ok := parsePageQuery(ctx, defaultLimit)

	if !ok {
		return filter, false
	}

	filter.Page = page
	filter.Limit = limit

	return filter, true
}

func GetAllTasks(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	filter, ok := parseTaskFilter(ctx, defaultAllTasksLimit)

	if !ok {
		return
	}

	// Only administrators see the full listing; everyone else gets the same
	// endpoint scoped to their own tasks, whatever the query says.
	fullView := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpListAllTasks, nil, nil).Allowed

	if !fullView {
		filter.AssignedTo = currentUser.ID
		filter.AssignedBy = 0
	}

	tasks, total, err := taskstore.List(filter, defaultAllTasksLimit)

	if err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	statusCounts, err := taskstore.StatusCounts(filter)

	if err != nil {
		log.Printf("Failed to aggregate status counts: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	page, limit := filter.Normalize(defaultAllTasksLimit)

	data := gin.H{
		"tasks":      taskResponses(tasks),
		"pagination": types.NewPagination(page, limit, total),
	}

	if fullView {
		priorityCounts, err := taskstore.PriorityCounts(filter)

		if err != nil {
			log.Printf("Failed to aggregate priority counts: %v", err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
			return
		}

		assigneeStats, err := taskstore.AssigneeAnalytics()

		if err != nil {
			log.Printf("Failed to aggregate assignee analytics: %v", err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
			return
		}

		data["analytics"] = gin.H{
			"overall_stats":              statusCounts,
			"priority_breakdown":         priorityCounts,
			"employee_performance":       assigneeStats,
			"total_employees_with_tasks": len(assigneeStats),
		}
	} else {
		data["stats"] = statusCounts
	}

	ctx.JSON(http.StatusOK, types.OK("Found "+strconv.Itoa(len(tasks))+" tasks", data))
}

func GetMyTasks(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	filter, ok := parseTaskFilter(ctx, defaultMyTasksLimit)

	if !ok {
		return
	}

	// Listing is always scoped to the caller, whatever the query says.
	filter.AssignedTo = currentUser.ID
	filter.AssignedBy = 0

	tasks, total, err := taskstore.List(filter, defaultMyTasksLimit)

	if err != nil {
		log.Printf("Failed to list tasks for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	statusCounts, err := taskstore.StatusCounts(filter)

	if err != nil {
		log.Printf("Failed to aggregate status counts: %v", err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	page, limit := filter.Normalize(defaultMyTasksLimit)

	ctx.JSON(http.StatusOK, types.OK("Found "+strconv.Itoa(len(tasks))+" tasks", gin.H{
		"tasks":      taskResponses(tasks),
		"pagination": types.NewPagination(page, limit, total),
		"stats":      statusCounts,
	}))
}

// loadTask fetches the target task, translating a missing row to 404.
func loadTask(ctx *gin.Context, id uint) (*models.Task, bool) {
	task, err := taskstore.FindByID(id)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, types.Error("Task not found"))
		} else {
			log.Printf("Failed to fetch task %d: %v", id, err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		}
		return nil, false
	}

	return task, true
}

func GetTask(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	decision := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpViewTask, task, nil)

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, types.Error(decision.Reason))
		return
	}

	ctx.JSON(http.StatusOK, types.OK("Task found", gin.H{
		"task": taskResponse(task),
	}))
}

func UpdateTaskStatus(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, types.Error("User not authenticated"))
		return
	}

	var req UpdateStatusRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	if req.Status == "" {
		ctx.JSON(http.StatusBadRequest, types.Error("Please provide status"))
		return
	}

	if !types.ValidStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid status. Must be one of: "+strings.Join(types.Statuses, ", ")))
		return
	}

	comment := strings.TrimSpace(req.Comment)

	if comment != "" && len(comment) < 3 {
		ctx.JSON(http.StatusBadRequest, types.Error("Comment must be at least 3 characters long"))
		return
	}

	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	decision := policy.Decide(policy.Identity{ID: currentUser.ID, Role: currentUser.Role}, policy.OpUpdateStatus, task, nil)

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, types.Error(decision.Reason))
		return
	}

	if err := workflow.CanTransition(task.Status, req.Status, workflow.Strict()); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid status transition: "+err.Error()))
		return
	}

	oldStatus := task.Status
	updates := map[string]interface{}{"status": req.Status}

	if comment != "" {
		if err := task.AppendComment(models.Comment{
			ID:        uuid.NewString(),
			UserID:    currentUser.ID,
			Comment:   comment,
			Timestamp: time.Now(),
		}); err != nil {
			log.Printf("Failed to encode comment log for task %d: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
			return
		}

		updates["comments"] = task.Comments
	}

	// Status and comment land in one UPDATE so a reader never sees one
	// without the other.
	if err := db.DB.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task %d status: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	updated, err := taskstore.FindByID(task.ID)

	if err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	go services.NotifyStatusChanged(*updated, oldStatus)
	BroadcastTaskEvent("task_status_changed", updated.ID, updated.Title)

	ctx.JSON(http.StatusOK, types.OK("Task status updated to "+req.Status, gin.H{
		"task": taskResponse(updated),
	}))
}

func UpdateTask(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	var req TaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, types.Error("Invalid request"))
		return
	}

	if errs := validateTaskRequest(req, dueDateOnUpdate()); len(errs) > 0 {
		ctx.JSON(http.StatusBadRequest, types.ValidationError("Validation failed", errs))
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	if req.AssignedTo != task.AssignedToID {
		if _, ok := resolveAssignee(ctx, req.AssignedTo); !ok {
			return
		}
	}

	updates := map[string]interface{}{
		"title":          strings.TrimSpace(req.Title),
		"description":    strings.TrimSpace(req.Description),
		"assigned_to_id": req.AssignedTo,
		"category":       strings.TrimSpace(req.Category),
		"due_date":       req.DueDate,
	}

	if req.Priority != "" {
		updates["priority"] = req.Priority
	}

	if err := db.DB.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	updated, err := taskstore.FindByID(task.ID)

	if err != nil {
		log.Printf("Failed to reload task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	BroadcastTaskEvent("task_updated", updated.ID, updated.Title)

	ctx.JSON(http.StatusOK, types.OK("Task updated successfully", gin.H{
		"task": taskResponse(updated),
	}))
}

func DeleteTask(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")

	if !ok {
		return
	}

	task, ok := loadTask(ctx, id)

	if !ok {
		return
	}

	// Snapshot before the row disappears; the response reports what was
	// deleted.
	snapshot := gin.H{
		"id":          task.ID,
		"title":       task.Title,
		"assigned_to": task.AssignedTo.FullName(),
		"status":      task.Status,
	}

	if err := db.DB.Unscoped().Delete(&models.Task{}, id).Error; err != nil {
		log.Printf("Failed to delete task %d: %v", id, err)
		ctx.JSON(http.StatusInternalServerError, types.Error("Internal server error"))
		return
	}

	BroadcastTaskEvent("task_deleted", task.ID, task.Title)

	ctx.JSON(http.StatusOK, types.OK("Task deleted successfully", gin.H{
		"deleted_task": snapshot,
	}))
}
