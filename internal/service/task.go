package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaekwang-park/taskapp/internal/model"
	"github.com/jaekwang-park/taskapp/internal/repository"
)

// parseDueDate accepts a calendar date or an RFC3339 timestamp and returns
// the calendar date. An empty string means no due date.
func parseDueDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(model.DueDateLayout, s); err == nil {
		return t.Format(model.DueDateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(model.DueDateLayout), nil
	}
	return "", fmt.Errorf("%w: invalid due date %q, expected YYYY-MM-DD", ErrInvalidInput, s)
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      model.TaskStatus   // defaults to todo
	Priority    model.TaskPriority // defaults to medium
	DueDate     string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
	Priority    *model.TaskPriority
	DueDate     *string
}

type TaskService struct {
	repo  repository.TaskRepository
	now   func() time.Time
	newID func() (string, error)
}

func NewTaskService(repo repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now, newID: newUUIDv7}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %w", ErrNetwork, err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	status := input.Status
	if status == "" {
		status = model.TaskStatusTodo
	}
	if !status.IsValid() {
		return model.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	priority := input.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, priority)
	}
	due, err := parseDueDate(input.DueDate)
	if err != nil {
		return model.Task{}, err
	}

	id, err := s.newID()
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to generate task id: %w", err)
	}

	task := model.Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueDate:     due,
		Priority:    priority,
		CreatedAt:   s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: failed to create task: %w", ErrNetwork, err)
	}
	return created, nil
}

// get loads a task and checks that userID owns it.
func (s *TaskService) get(ctx context.Context, userID, taskID string) (model.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("%w: failed to get task: %w", ErrNetwork, err)
	}
	if task.UserID != userID {
		return model.Task{}, ErrForbidden
	}
	return task, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	return s.get(ctx, userID, taskID)
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (model.Task, error) {
	existing, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return model.Task{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		existing.Title = title
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *input.Status)
		}
		existing.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *input.Priority)
		}
		existing.Priority = *input.Priority
	}
	if input.DueDate != nil {
		due, err := parseDueDate(*input.DueDate)
		if err != nil {
			return model.Task{}, err
		}
		existing.DueDate = due
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("%w: failed to update task: %w", ErrNetwork, err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.get(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: failed to delete task: %w", ErrNetwork, err)
	}
	return nil
}
