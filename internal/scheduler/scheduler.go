// Package scheduler runs the overdue-task sweep: a periodic scan for tasks
// past their due date that are still in a non-terminal status, each notified
// once per process lifetime via the configured webhooks.
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/db"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/services"
	"github.com/taskdeck/taskdeck/internal/types"
)

const defaultSweepInterval = time.Hour

type Sweeper struct {
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	notified map[uint]bool
}

// NewSweeper reads OVERDUE_SWEEP_INTERVAL (seconds) and falls back to hourly
// sweeps when unset or malformed.
func NewSweeper() *Sweeper {
	interval := defaultSweepInterval

	if raw := os.Getenv("OVERDUE_SWEEP_INTERVAL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			interval = time.Duration(seconds) * time.Second
		} else {
			log.Printf("Invalid OVERDUE_SWEEP_INTERVAL %q, using default", raw)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		notified: make(map[uint]bool),
	}
}

// Start launches the sweep loop. A no-op when no webhook target is
// configured, since the sweep only produces notifications.
func (s *Sweeper) Start() {
	if !services.Configured() {
		log.Println("No webhook configured, overdue sweep disabled")
		return
	}

	log.Printf("Overdue sweep running every %v", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Stop cancels the sweep loop.
func (s *Sweeper) Stop() {
	s.cancel()
}

func (s *Sweeper) sweep() {
	var tasks []models.Task

	err := db.DB.Preload("AssignedTo").
		Where("due_date IS NOT NULL AND due_date < ?", time.Now()).
		Where("status NOT IN ?", []string{types.StatusCompleted, types.StatusFailed}).
		Find(&tasks).Error

	if err != nil {
		log.Printf("Overdue sweep query failed: %v", err)
		return
	}

	for _, task := range tasks {
		s.mu.Lock()
		seen := s.notified[task.ID]

		if !seen {
			s.notified[task.ID] = true
		}

		s.mu.Unlock()

		if seen {
			continue
		}

		log.Printf("Task %d (%s) is overdue", task.ID, task.Title)
		services.NotifyTaskOverdue(task)
	}
}
