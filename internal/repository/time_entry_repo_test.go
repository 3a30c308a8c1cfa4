package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"taskpulse-backend/internal/models"
)

func newEntryRepo(t *testing.T) (*TimeEntryRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewTimeEntryRepo(mock), mock
}

func TestTimeEntryRepoCreate(t *testing.T) {
	repo, mock := newEntryRepo(t)

	taskID, userID := uuid.New(), uuid.New()
	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(pgxmock.AnyArg(), taskID, userID, start).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(start))

	entry := &models.TimeEntry{TaskID: taskID, UserID: userID, StartTime: start}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if entry.ID == uuid.Nil {
		t.Error("Create did not assign an ID")
	}
	if !entry.CreatedAt.Equal(start) {
		t.Errorf("CreatedAt = %v, want %v", entry.CreatedAt, start)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTimeEntryRepoCreateUniqueViolation(t *testing.T) {
	repo, mock := newEntryRepo(t)

	mock.ExpectQuery(`INSERT INTO time_entries`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uniq_time_entries_active"})

	entry := &models.TimeEntry{TaskID: uuid.New(), UserID: uuid.New(), StartTime: time.Now()}
	err := repo.Create(context.Background(), entry)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"other pg error", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeEntryRepoFindActive(t *testing.T) {
	repo, mock := newEntryRepo(t)

	taskID, userID, entryID := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE task_id = \$1 AND user_id = \$2 AND end_time IS NULL`).
		WithArgs(taskID, userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "task_id", "user_id", "start_time", "end_time", "duration", "created_at",
		}).AddRow(entryID, taskID, userID, start, nil, 0, start))

	entry, err := repo.FindActive(context.Background(), taskID, userID)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if entry.ID != entryID {
		t.Errorf("ID = %v, want %v", entry.ID, entryID)
	}
	if entry.EndTime != nil {
		t.Errorf("EndTime = %v, want nil", entry.EndTime)
	}
	if !entry.Active() {
		t.Error("Active() = false, want true")
	}
}

func TestTimeEntryRepoFindActiveNone(t *testing.T) {
	repo, mock := newEntryRepo(t)

	taskID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(`WHERE task_id = \$1 AND user_id = \$2 AND end_time IS NULL`).
		WithArgs(taskID, userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindActive(context.Background(), taskID, userID)
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("err = %v, want pgx.ErrNoRows", err)
	}
}

func TestTimeEntryRepoClose(t *testing.T) {
	repo, mock := newEntryRepo(t)

	entryID := uuid.New()
	end := time.Date(2024, time.March, 13, 9, 2, 5, 0, time.UTC)

	mock.ExpectExec(`UPDATE time_entries SET end_time = \$1, duration = \$2 WHERE id = \$3`).
		WithArgs(end, 125, entryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Close(context.Background(), entryID, end, 125); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTimeEntryRepoListByTask(t *testing.T) {
	repo, mock := newEntryRepo(t)

	taskID, userID := uuid.New(), uuid.New()
	newer := time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	olderEnd := older.Add(30 * time.Minute)

	mock.ExpectQuery(`WHERE task_id = \$1 AND user_id = \$2 ORDER BY start_time DESC`).
		WithArgs(taskID, userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "task_id", "user_id", "start_time", "end_time", "duration", "created_at",
		}).
			AddRow(uuid.New(), taskID, userID, newer, nil, 0, newer).
			AddRow(uuid.New(), taskID, userID, older, &olderEnd, 1800, older))

	entries, err := repo.ListByTask(context.Background(), taskID, userID)
	if err != nil {
		t.Fatalf("ListByTask: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if !entries[0].Active() || entries[1].Active() {
		t.Error("expected running entry first, closed entry second")
	}
	if entries[1].Duration != 1800 {
		t.Errorf("Duration = %d, want 1800", entries[1].Duration)
	}
}

func TestTimeEntryRepoSumByTask(t *testing.T) {
	repo, mock := newEntryRepo(t)

	taskID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\) FROM time_entries WHERE task_id = \$1 AND user_id = \$2`).
		WithArgs(taskID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(457365))

	total, err := repo.SumByTask(context.Background(), taskID, userID)
	if err != nil {
		t.Fatalf("SumByTask: %v", err)
	}
	if total != 457365 {
		t.Errorf("total = %d, want 457365", total)
	}
}

func TestTimeEntryRepoSumSince(t *testing.T) {
	repo, mock := newEntryRepo(t)

	userID := uuid.New()
	since := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\) FROM time_entries WHERE user_id = \$1 AND start_time >= \$2`).
		WithArgs(userID, since).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(5400))

	total, err := repo.SumSince(context.Background(), userID, since)
	if err != nil {
		t.Fatalf("SumSince: %v", err)
	}
	if total != 5400 {
		t.Errorf("total = %d, want 5400", total)
	}
}
