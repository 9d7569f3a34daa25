package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	apperrors "tictask/backend/internal/errors"
	"tictask/backend/internal/model"
	"tictask/backend/internal/repository"
)

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, update model.TaskUpdate) (*model.Task, error)
}

type TaskService struct {
	tasks  TaskStore
	logger zerolog.Logger
}

type UpdateTaskInput struct {
	Title  *string
	Status *string
}

func NewTaskService(tasks TaskStore, logger zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *TaskService) Create(ctx context.Context, title string) (*model.Task, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.InvalidField("invalid_title", "title", "title is required")
	}

	task := &model.Task{Title: title}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Msg("create task failed")
		return nil, apperrors.Internal("failed to create task")
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, *apperrors.APIError) {
	task, err := s.tasks.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("task", id).Msg("get task failed")
		return nil, apperrors.Internal("failed to get task")
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*model.Task, *apperrors.APIError) {
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, apperrors.InvalidField("invalid_title", "title", "title must not be empty")
		}
		input.Title = &trimmed
	}
	if input.Status != nil && !model.IsValidTaskStatus(*input.Status) {
		return nil, apperrors.InvalidField("invalid_status", "status", "status must be to_do, in_progress or completed")
	}

	task, err := s.tasks.Update(ctx, id, model.TaskUpdate{Title: input.Title, Status: input.Status})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("task", id).Msg("update task failed")
		return nil, apperrors.Internal("failed to update task")
	}
	return task, nil
}
