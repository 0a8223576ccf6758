package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

const (
	maxTitleLength = 200
	maxEstimate    = 100
)

type TaskService struct {
	repo   *repository.TaskRepository
	logger *slog.Logger
}

func NewTaskService(repo *repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

func (s *TaskService) List(ctx context.Context, userID, sortBy, sortOrder string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID, sortBy, strings.EqualFold(sortOrder, "desc"))
	if err != nil {
		s.logger.Error("list tasks", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, req model.CreateTaskRequest) (*model.Task, *apperrors.APIError) {
	title, apiErr := validateTitle(req.Title)
	if apiErr != nil {
		return nil, apiErr
	}
	estimate := req.EstimatedPomodoros
	if estimate == 0 {
		estimate = 1
	}
	if apiErr := validateEstimate(estimate); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:                 uuid.NewString(),
		Title:              title,
		EstimatedPomodoros: estimate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, userID, &task); err != nil {
		s.logger.Error("create task", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, req model.UpdateTaskRequest) (*model.Task, *apperrors.APIError) {
	task, apiErr := s.get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}

	if req.Title != nil {
		title, apiErr := validateTitle(*req.Title)
		if apiErr != nil {
			return nil, apiErr
		}
		task.Title = title
	}
	if req.EstimatedPomodoros != nil {
		if apiErr := validateEstimate(*req.EstimatedPomodoros); apiErr != nil {
			return nil, apiErr
		}
		task.EstimatedPomodoros = *req.EstimatedPomodoros
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
		// A finished task can no longer be the focus target.
		if task.IsCompleted {
			task.IsActive = false
		}
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, userID, task); err != nil {
		return nil, s.writeFailed("update task", userID, err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.writeFailed("delete task", userID, err)
	}
	return nil
}

// ToggleActive flips the task's active flag. At most one task per user is
// active: activating one deactivates the rest in the same transaction.
func (s *TaskService) ToggleActive(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	task, err := s.repo.GetTx(ctx, tx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.logger.Error("get task", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to get task")
	}
	if !task.IsActive && task.IsCompleted {
		return nil, apperrors.BadRequest("task_completed", "a completed task cannot be activated")
	}

	now := time.Now().UTC()
	task.IsActive = !task.IsActive
	task.UpdatedAt = now
	if task.IsActive {
		if err := s.repo.DeactivateOthersTx(ctx, tx, userID, task.ID, now.Format(time.RFC3339Nano)); err != nil {
			s.logger.Error("deactivate tasks", "user_id", userID, "error", err)
			return nil, apperrors.Internal("failed to update tasks")
		}
	}
	if err := s.repo.UpdateTx(ctx, tx, userID, task); err != nil {
		return nil, s.writeFailed("toggle task", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return task, nil
}

func (s *TaskService) get(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	task, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.logger.Error("get task", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to get task")
	}
	return task, nil
}

func (s *TaskService) writeFailed(op, userID string, err error) *apperrors.APIError {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	s.logger.Error(op, "user_id", userID, "error", err)
	return apperrors.Internal("failed to " + op)
}

func validateTitle(raw string) (string, *apperrors.APIError) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.BadRequest("invalid_title", "title is required")
	}
	if len(title) > maxTitleLength {
		return "", apperrors.BadRequest("invalid_title", "title must be at most 200 characters")
	}
	return title, nil
}

func validateEstimate(estimate int) *apperrors.APIError {
	if estimate < 1 || estimate > maxEstimate {
		return apperrors.BadRequest("invalid_estimate", "estimated pomodoros must be between 1 and 100")
	}
	return nil
}
