package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is one continuous interval of tracked work on a task.
// EndTime == nil means the timer is still running; Duration stays 0 until
// the entry is stopped, at which point it is frozen in whole seconds.
//
// UserID is stored alongside TaskID on purpose: it keeps "all running timers
// for this user" a single-table scan instead of a join through tasks.
type TimeEntry struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	UserID    uuid.UUID  `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int        `json:"duration"`
	CreatedAt time.Time  `json:"created_at"`
}

// Active reports whether the entry's timer is still running.
func (e *TimeEntry) Active() bool {
	return e.EndTime == nil
}

type TaskTimeTotal struct {
	TaskID       uuid.UUID `json:"task_id"`
	TotalSeconds int       `json:"total_seconds"`
	Formatted    string    `json:"formatted"`
}

// ProductivityStats is a point-in-time snapshot derived from tasks and time
// entries. It is recomputed on every request and never persisted.
type ProductivityStats struct {
	CompletedToday       int     `json:"completed_today"`
	CompletedThisWeek    int     `json:"completed_this_week"`
	HoursTrackedToday    float64 `json:"hours_tracked_today"`
	HoursTrackedThisWeek float64 `json:"hours_tracked_this_week"`
	TotalTasks           int     `json:"total_tasks"`
	TotalCompleted       int     `json:"total_completed"`
	TotalInProgress      int     `json:"total_in_progress"`
	TotalTodo            int     `json:"total_todo"`
	StreakDays           int     `json:"streak_days"`
}
