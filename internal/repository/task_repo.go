package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskpulse-backend/internal/models"
)

type TaskRepo struct {
	db DB
}

func NewTaskRepo(db DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New()

	query := `INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID scopes the lookup to the owning user, so a missing row covers both
// "does not exist" and "belongs to someone else".
func (r *TaskRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	query := `SELECT id, user_id, title, description, status, priority, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE id = $1 AND user_id = $2`

	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) ListByUser(ctx context.Context, userID uuid.UUID, status, sortBy string) ([]*models.Task, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}

	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
	}

	orderBy := "created_at DESC"
	switch sortBy {
	case "due_date":
		orderBy = "due_date ASC NULLS LAST"
	case "priority":
		orderBy = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC"
	case "oldest":
		orderBy = "created_at ASC"
	}

	query := fmt.Sprintf(`SELECT id, user_id, title, description, status, priority, due_date, completed_at, created_at, updated_at
		FROM tasks %s ORDER BY %s`, where, orderBy)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t := &models.Task{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, completed_at = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CompletedAt, t.ID, t.UserID,
	)
	return err
}

// Delete removes the task; time entries go with it via ON DELETE CASCADE.
func (r *TaskRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
