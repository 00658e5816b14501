package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/apiserver/types"
)

// TaskRepository handles persistence for tasks in PostgreSQL. Every query
// except Create filters on both the task id and the owner.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByOwner(ctx context.Context, userID string) ([]types.Task, error) {
	tasks := make([]types.Task, 0)
	if _, err := uuid.Parse(userID); err != nil {
		return tasks, nil
	}

	const query = `
		SELECT id, title, description, priority, status, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) GetByOwner(ctx context.Context, id, userID string) (types.Task, error) {
	if !validIDs(id, userID) {
		return types.Task{}, ErrNotFound
	}

	const query = `
		SELECT id, title, description, priority, status, user_id, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	now := postgresNow()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now

	const query = `
		INSERT INTO tasks (id, title, description, priority, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	); err != nil {
		return types.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task types.Task) (types.Task, error) {
	if !validIDs(task.ID, task.UserID) {
		return types.Task{}, ErrNotFound
	}
	task.UpdatedAt = postgresNow()

	const query = `
		UPDATE tasks
		SET title = $1,
			description = $2,
			priority = $3,
			status = $4,
			updated_at = $5
		WHERE id = $6 AND user_id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return types.Task{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Task{}, err
	}
	if affected == 0 {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	if !validIDs(id, userID) {
		return ErrNotFound
	}

	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (types.Task, error) {
	var task types.Task
	var priority, status string
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&priority,
		&status,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return types.Task{}, err
	}
	task.Priority = types.Priority(priority)
	task.Status = types.Status(status)
	return task, nil
}

// postgresNow matches the microsecond precision of timestamptz.
func postgresNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// validIDs reports whether every id is a well-formed UUID. Malformed ids can
// never match a row, so callers treat them as not found.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
