package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pomorix/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, is_active, is_completed, completed_pomodoros, estimated_pomodoros, created_at, updated_at`

// sortColumns whitelists the ORDER BY columns accepted from callers.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

func (r *TaskRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// List returns the user's tasks. Unknown sort columns fall back to
// created_at.
func (r *TaskRepository) List(ctx context.Context, userID, sortBy string, descending bool) ([]model.Task, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY `+column+` `+direction+`, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	return getTask(ctx, r.db, userID, id)
}

func (r *TaskRepository) GetTx(ctx context.Context, tx *sql.Tx, userID, id string) (*model.Task, error) {
	return getTask(ctx, tx, userID, id)
}

func getTask(ctx context.Context, q execer, userID, id string) (*model.Task, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return scanTask(row)
}

// GetActiveTx returns the user's active, unfinished task.
func (r *TaskRepository) GetActiveTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Task, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE user_id = ? AND is_active = 1 AND is_completed = 0
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) Create(ctx context.Context, userID string, task *model.Task) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
			id, user_id, title, is_active, is_completed, completed_pomodoros,
			estimated_pomodoros, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		userID,
		task.Title,
		task.IsActive,
		task.IsCompleted,
		task.CompletedPomodoros,
		task.EstimatedPomodoros,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, userID string, task *model.Task) error {
	return updateTask(ctx, r.db, userID, task)
}

func (r *TaskRepository) UpdateTx(ctx context.Context, tx *sql.Tx, userID string, task *model.Task) error {
	return updateTask(ctx, tx, userID, task)
}

func updateTask(ctx context.Context, q execer, userID string, task *model.Task) error {
	result, err := q.ExecContext(
		ctx,
		`UPDATE tasks
		 SET title = ?,
		     is_active = ?,
		     is_completed = ?,
		     completed_pomodoros = ?,
		     estimated_pomodoros = ?,
		     updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		task.Title,
		task.IsActive,
		task.IsCompleted,
		task.CompletedPomodoros,
		task.EstimatedPomodoros,
		formatTime(task.UpdatedAt),
		userID,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateOthersTx clears the active flag on every task but keepID.
func (r *TaskRepository) DeactivateOthersTx(ctx context.Context, tx *sql.Tx, userID, keepID, updatedAt string) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET is_active = 0, updated_at = ?
		 WHERE user_id = ? AND id <> ? AND is_active = 1`,
		updatedAt,
		userID,
		keepID,
	)
	if err != nil {
		return fmt.Errorf("deactivate tasks: %w", err)
	}
	return nil
}

// IncrementCompletedTx adds one finished pomodoro to the task.
func (r *TaskRepository) IncrementCompletedTx(ctx context.Context, tx *sql.Tx, userID, id, updatedAt string) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET completed_pomodoros = completed_pomodoros + 1, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		updatedAt,
		userID,
		id,
	)
	if err != nil {
		return fmt.Errorf("increment task pomodoros: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.Title,
		&task.IsActive,
		&task.IsCompleted,
		&task.CompletedPomodoros,
		&task.EstimatedPomodoros,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	return &task, nil
}
