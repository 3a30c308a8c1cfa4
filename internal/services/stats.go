package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"taskpulse-backend/internal/models"
	"taskpulse-backend/internal/repository"
)

// streakLookback bounds the backward walk of the streak computation.
const streakLookback = 365

// StatsService derives a productivity snapshot from raw tasks and time
// entries. Nothing is cached or persisted; every call recomputes from the
// store, so the numbers are advisory and safe to recompute at any time.
type StatsService struct {
	tasks   *repository.TaskRepo
	entries *repository.TimeEntryRepo
	clock   Clock
}

func NewStatsService(tasks *repository.TaskRepo, entries *repository.TimeEntryRepo, clock Clock) *StatsService {
	return &StatsService{tasks: tasks, entries: entries, clock: clock}
}

// ComputeStats builds the snapshot for now. The three reads are independent
// and run concurrently; they need not be transactionally consistent with
// each other.
func (s *StatsService) ComputeStats(ctx context.Context, userID uuid.UUID) (*models.ProductivityStats, error) {
	now := s.clock.Now()
	dayStart := startOfDay(now)
	weekStart := startOfWeek(now)

	var (
		tasks     []*models.Task
		todaySecs int
		weekSecs  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.ListByUser(gctx, userID, "", "")
		return err
	})
	g.Go(func() error {
		var err error
		todaySecs, err = s.entries.SumSince(gctx, userID, dayStart)
		return err
	})
	g.Go(func() error {
		var err error
		weekSecs, err = s.entries.SumSince(gctx, userID, weekStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats := &models.ProductivityStats{
		TotalTasks:           len(tasks),
		HoursTrackedToday:    roundHours(todaySecs),
		HoursTrackedThisWeek: roundHours(weekSecs),
	}

	var completions []time.Time
	for _, t := range tasks {
		switch t.Status {
		case models.StatusDone:
			stats.TotalCompleted++
		case models.StatusInProgress:
			stats.TotalInProgress++
		case models.StatusTodo:
			stats.TotalTodo++
		}

		if t.CompletedAt == nil {
			continue
		}
		completions = append(completions, *t.CompletedAt)
		if !t.CompletedAt.Before(dayStart) {
			stats.CompletedToday++
		}
		if !t.CompletedAt.Before(weekStart) {
			stats.CompletedThisWeek++
		}
	}

	stats.StreakDays = computeStreak(completions, now)

	return stats, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek is midnight of the most recent Monday. A Sunday is treated as
// the last day of its week, so its week started six days earlier.
func startOfWeek(t time.Time) time.Time {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return startOfDay(t).AddDate(0, 0, -offset)
}

func roundHours(seconds int) float64 {
	return math.Round(float64(seconds)/3600*100) / 100
}

func dateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// computeStreak counts consecutive calendar days with at least one
// completion, walking backward from today. Today gets a grace day: an empty
// today is skipped without ending the streak, since the day is not over yet.
// Any other empty day ends the walk.
func computeStreak(completions []time.Time, now time.Time) int {
	if len(completions) == 0 {
		return 0
	}

	done := make(map[string]bool, len(completions))
	for _, c := range completions {
		done[dateKey(c.In(now.Location()))] = true
	}

	streak := 0
	day := now
	for i := 0; i < streakLookback; i++ {
		if done[dateKey(day)] {
			streak++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	return streak
}
