package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskpulse-backend/internal/models"
)

type TimeEntryRepo struct {
	db DB
}

func NewTimeEntryRepo(db DB) *TimeEntryRepo {
	return &TimeEntryRepo{db: db}
}

const timeEntryColumns = "id, task_id, user_id, start_time, end_time, duration, created_at"

// Create inserts a fresh running entry. The partial unique index on
// (task_id, user_id) WHERE end_time IS NULL makes a concurrent duplicate
// start fail here with a unique violation; callers should check
// IsUniqueViolation on the returned error.
func (r *TimeEntryRepo) Create(ctx context.Context, e *models.TimeEntry) error {
	e.ID = uuid.New()

	query := `INSERT INTO time_entries (id, task_id, user_id, start_time, end_time, duration)
		VALUES ($1, $2, $3, $4, NULL, 0)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query,
		e.ID, e.TaskID, e.UserID, e.StartTime,
	).Scan(&e.CreatedAt)
}

// FindActive returns the single open entry for the pair, or pgx.ErrNoRows.
func (r *TimeEntryRepo) FindActive(ctx context.Context, taskID, userID uuid.UUID) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	query := `SELECT ` + timeEntryColumns + `
		FROM time_entries WHERE task_id = $1 AND user_id = $2 AND end_time IS NULL`

	err := r.db.QueryRow(ctx, query, taskID, userID).Scan(
		&e.ID, &e.TaskID, &e.UserID, &e.StartTime, &e.EndTime, &e.Duration, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Close finalizes an entry. This is the only mutation a time entry ever
// receives; end_time and duration are frozen from here on.
func (r *TimeEntryRepo) Close(ctx context.Context, id uuid.UUID, endTime time.Time, duration int) error {
	_, err := r.db.Exec(ctx,
		"UPDATE time_entries SET end_time = $1, duration = $2 WHERE id = $3",
		endTime, duration, id,
	)
	return err
}

func (r *TimeEntryRepo) ListByTask(ctx context.Context, taskID, userID uuid.UUID) ([]*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + `
		FROM time_entries WHERE task_id = $1 AND user_id = $2 ORDER BY start_time DESC`

	rows, err := r.db.Query(ctx, query, taskID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.TimeEntry
	for rows.Next() {
		e := &models.TimeEntry{}
		err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.StartTime, &e.EndTime, &e.Duration, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SumByTask totals the stored durations for the pair. A running entry still
// carries its initial 0, so elapsing time is not counted until it is stopped.
func (r *TimeEntryRepo) SumByTask(ctx context.Context, taskID, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(duration), 0) FROM time_entries WHERE task_id = $1 AND user_id = $2",
		taskID, userID,
	).Scan(&total)
	return total, err
}

func (r *TimeEntryRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + `
		FROM time_entries WHERE user_id = $1 AND end_time IS NULL ORDER BY start_time DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.TimeEntry
	for rows.Next() {
		e := &models.TimeEntry{}
		err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.StartTime, &e.EndTime, &e.Duration, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SumSince totals durations for entries started on or after the boundary,
// used for the today / this-week windows of the productivity stats.
func (r *TimeEntryRepo) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(duration), 0) FROM time_entries WHERE user_id = $1 AND start_time >= $2",
		userID, since,
	).Scan(&total)
	return total, err
}
