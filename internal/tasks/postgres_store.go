package tasks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, t *models.Task) error {
	var id uuid.UUID
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO tasks (user_id, title, description, completed)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `, t.UserID, t.Title, t.Description, t.Completed).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		return err
	}
	t.ID = id
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, user_id, title, description, completed, created_at, updated_at
        FROM tasks WHERE id=$1 AND user_id=$2
    `, taskID, userID)
	return scanTask(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error) {
	query := `
        SELECT id, user_id, title, description, completed, created_at, updated_at
        FROM tasks WHERE user_id=$1`
	args := []any{userID}
	if completed != nil {
		query += ` AND completed=$2`
		args = append(args, *completed)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Always return a non-nil slice so JSON encodes as [] instead of null
	out := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Task) error {
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
        UPDATE tasks
        SET title=$1, description=$2, completed=$3, updated_at=NOW()
        WHERE id=$4 AND user_id=$5
        RETURNING updated_at
    `, t.Title, t.Description, t.Completed, t.ID, t.UserID).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	t.UpdatedAt = updatedAt
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM tasks WHERE id=$1 AND user_id=$2
    `, taskID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*models.Task, error) {
	var t models.Task
	err := scanner.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
