package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskpulse-backend/internal/models"
	"taskpulse-backend/internal/repository"
)

// TimerService owns the time-entry lifecycle for (task, user) pairs and
// enforces the single-active-timer invariant. Each pair is a two-state
// machine: Idle -> Start -> Running -> Stop -> Idle. Starting while Running
// and stopping while Idle both fail.
//
// The check-then-create in Start is guarded twice: a per-pair mutex
// serializes concurrent starts within this process, and the partial unique
// index on (task_id, user_id) WHERE end_time IS NULL catches races across
// server instances.
type TimerService struct {
	entries *repository.TimeEntryRepo
	tasks   *repository.TaskRepo
	clock   Clock
	events  EventPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTimerService(entries *repository.TimeEntryRepo, tasks *repository.TaskRepo, clock Clock, events EventPublisher) *TimerService {
	return &TimerService{
		entries: entries,
		tasks:   tasks,
		clock:   clock,
		events:  events,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *TimerService) pairLock(taskID, userID uuid.UUID) *sync.Mutex {
	key := taskID.String() + "/" + userID.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Start begins tracking time on a task. The ownership check doubles as
// authorization: a task owned by someone else looks identical to a missing
// one.
func (s *TimerService) Start(ctx context.Context, taskID, userID uuid.UUID) (*models.TimeEntry, error) {
	_, err := s.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("Task with ID %s not found", taskID)}
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	lock := s.pairLock(taskID, userID)
	lock.Lock()
	defer lock.Unlock()

	_, err = s.entries.FindActive(ctx, taskID, userID)
	if err == nil {
		return nil, &ConflictError{Message: "Timer is already running for this task"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check active timer: %w", err)
	}

	entry := &models.TimeEntry{
		TaskID:    taskID,
		UserID:    userID,
		StartTime: s.clock.Now(),
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost the race to another instance.
			return nil, &ConflictError{Message: "Timer is already running for this task"}
		}
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}

	if s.events != nil {
		s.events.PublishTimerEvent(ctx, userID, EventTimerStarted, entry)
	}

	return entry, nil
}

// Stop closes the running entry for the pair and freezes its duration in
// whole seconds, truncated. A clock that went backwards between start and
// stop is clamped to zero rather than recording a negative duration.
func (s *TimerService) Stop(ctx context.Context, taskID, userID uuid.UUID) (*models.TimeEntry, error) {
	lock := s.pairLock(taskID, userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.entries.FindActive(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "No active timer found for this task"}
		}
		return nil, fmt.Errorf("failed to find active timer: %w", err)
	}

	endTime := s.clock.Now()
	seconds := int(endTime.Sub(entry.StartTime) / time.Second)
	if seconds < 0 {
		log.Printf("clock anomaly: entry %s would have negative duration (%ds), clamping to 0", entry.ID, seconds)
		seconds = 0
	}

	if err := s.entries.Close(ctx, entry.ID, endTime, seconds); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	entry.EndTime = &endTime
	entry.Duration = seconds

	if s.events != nil {
		s.events.PublishTimerEvent(ctx, userID, EventTimerStopped, entry)
	}

	return entry, nil
}

// ActiveTimer returns the running entry for the pair, or nil when idle.
func (s *TimerService) ActiveTimer(ctx context.Context, taskID, userID uuid.UUID) (*models.TimeEntry, error) {
	entry, err := s.entries.FindActive(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active timer: %w", err)
	}
	return entry, nil
}

// EntriesForTask lists the pair's entries, most recent first. Requires task
// ownership, same as Start.
func (s *TimerService) EntriesForTask(ctx context.Context, taskID, userID uuid.UUID) ([]*models.TimeEntry, error) {
	_, err := s.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: fmt.Sprintf("Task with ID %s not found", taskID)}
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	entries, err := s.entries.ListByTask(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	return entries, nil
}

// TotalTime sums the stored durations for a task. A running entry counts as
// its frozen 0; elapsing time only shows up after the timer is stopped.
func (s *TimerService) TotalTime(ctx context.Context, taskID, userID uuid.UUID) (int, error) {
	_, err := s.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Message: fmt.Sprintf("Task with ID %s not found", taskID)}
		}
		return 0, fmt.Errorf("failed to load task: %w", err)
	}

	total, err := s.entries.SumByTask(ctx, taskID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to total time entries: %w", err)
	}
	return total, nil
}

// ActiveTimers lists every running entry the user has, across all tasks.
func (s *TimerService) ActiveTimers(ctx context.Context, userID uuid.UUID) ([]*models.TimeEntry, error) {
	entries, err := s.entries.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active timers: %w", err)
	}
	return entries, nil
}
