package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tictask/backend/internal/model"
)

// TaskRepository is the minimal task-entity store the timer consumes.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = model.TaskStatusToDo
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (id, title, status, pomodoros_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Status,
		task.PomodorosCompleted,
		formatTimestamp(task.CreatedAt),
		formatTimestamp(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, title, status, pomodoros_completed, created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		id,
	)

	var task model.Task
	var createdAt string
	var updatedAt string
	if err := row.Scan(&task.ID, &task.Title, &task.Status, &task.PomodorosCompleted, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	parsedCreatedAt, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTimestamp(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	task.CreatedAt = parsedCreatedAt
	task.UpdatedAt = parsedUpdatedAt

	return &task, nil
}

// Update applies the non-nil fields of update and bumps updated_at.
func (r *TaskRepository) Update(ctx context.Context, id string, update model.TaskUpdate) (*model.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTimestamp(time.Now())}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.PomodorosCompleted != nil {
		sets = append(sets, "pomodoros_completed = ?")
		args = append(args, *update.PomodorosCompleted)
	}
	args = append(args, id)

	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update task rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}
