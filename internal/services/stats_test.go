package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpulse-backend/internal/repository"
)

// Wednesday afternoon, local time.
var statsNow = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.Local)

func daysAgo(n int) time.Time {
	return statsNow.AddDate(0, 0, -n)
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name        string
		completions []time.Time
		want        int
	}{
		{"no completions", nil, 0},
		{"three days ending yesterday, today empty", []time.Time{daysAgo(3), daysAgo(2), daysAgo(1)}, 3},
		{"three days plus today", []time.Time{daysAgo(3), daysAgo(2), daysAgo(1), statsNow}, 4},
		{"gap two days back", []time.Time{daysAgo(3), daysAgo(1)}, 1},
		{"only today", []time.Time{statsNow}, 1},
		{"only two days ago", []time.Time{daysAgo(2)}, 0},
		{"multiple completions same day count once", []time.Time{daysAgo(1), daysAgo(1).Add(2 * time.Hour), statsNow}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computeStreak(tc.completions, statsNow))
		})
	}
}

func TestComputeStreak_LookbackCap(t *testing.T) {
	var completions []time.Time
	for i := 0; i < 400; i++ {
		completions = append(completions, daysAgo(i))
	}

	assert.Equal(t, streakLookback, computeStreak(completions, statsNow))
}

func TestStartOfWeek(t *testing.T) {
	monday := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"monday morning", time.Date(2024, time.March, 11, 8, 0, 0, 0, time.Local)},
		{"wednesday", statsNow},
		{"saturday", time.Date(2024, time.March, 16, 23, 59, 0, 0, time.Local)},
		{"sunday counts as end of week", time.Date(2024, time.March, 17, 10, 0, 0, 0, time.Local)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, monday, startOfWeek(tc.now))
		})
	}
}

func TestStartOfDay(t *testing.T) {
	got := startOfDay(statsNow)
	assert.Equal(t, time.Date(2024, time.March, 13, 0, 0, 0, 0, time.Local), got)
}

func TestRoundHours(t *testing.T) {
	tests := []struct {
		seconds int
		want    float64
	}{
		{0, 0},
		{3600, 1},
		{5400, 1.5},
		{3661, 1.02},
		{125, 0.03},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, roundHours(tc.seconds))
	}
}

func TestComputeStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	userID := uuid.New()
	dayStart := startOfDay(statsNow)
	weekStart := startOfWeek(statsNow)

	doneToday := statsNow.Add(-2 * time.Hour)
	doneLastWeek := daysAgo(8)

	taskRows := pgxmock.NewRows([]string{
		"id", "user_id", "title", "description", "status", "priority",
		"due_date", "completed_at", "created_at", "updated_at",
	}).
		AddRow(uuid.New(), userID, "Finish report", nil, "done", "high", nil, &doneToday, daysAgo(10), statsNow).
		AddRow(uuid.New(), userID, "Old chore", nil, "done", "low", nil, &doneLastWeek, daysAgo(20), daysAgo(8)).
		AddRow(uuid.New(), userID, "Plan sprint", nil, "todo", "medium", nil, nil, daysAgo(1), daysAgo(1))

	mock.ExpectQuery(`FROM tasks WHERE user_id = \$1 ORDER BY`).
		WithArgs(userID).
		WillReturnRows(taskRows)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\) FROM time_entries WHERE user_id = \$1 AND start_time >= \$2`).
		WithArgs(userID, dayStart).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(3661))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\) FROM time_entries WHERE user_id = \$1 AND start_time >= \$2`).
		WithArgs(userID, weekStart).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(5400))

	svc := NewStatsService(
		repository.NewTaskRepo(mock),
		repository.NewTimeEntryRepo(mock),
		NewFixedClock(statsNow),
	)

	stats, err := svc.ComputeStats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 2, stats.TotalCompleted)
	assert.Equal(t, 0, stats.TotalInProgress)
	assert.Equal(t, 1, stats.TotalTodo)
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 1, stats.CompletedThisWeek)
	assert.Equal(t, 1.02, stats.HoursTrackedToday)
	assert.Equal(t, 1.5, stats.HoursTrackedThisWeek)
	assert.Equal(t, 1, stats.StreakDays)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeStats_EmptyUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	userID := uuid.New()

	mock.ExpectQuery(`FROM tasks WHERE user_id = \$1 ORDER BY`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "title", "description", "status", "priority",
			"due_date", "completed_at", "created_at", "updated_at",
		}))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\)`).
		WithArgs(userID, startOfDay(statsNow)).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\)`).
		WithArgs(userID, startOfWeek(statsNow)).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(0))

	svc := NewStatsService(
		repository.NewTaskRepo(mock),
		repository.NewTimeEntryRepo(mock),
		NewFixedClock(statsNow),
	)

	stats, err := svc.ComputeStats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalTasks)
	assert.Equal(t, 0, stats.StreakDays)
	assert.Equal(t, 0.0, stats.HoursTrackedToday)
	assert.Equal(t, 0.0, stats.HoursTrackedThisWeek)
}
