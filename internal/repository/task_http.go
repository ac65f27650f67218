package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jaekwang-park/taskapp/internal/model"
)

const tasksPath = "/tasks"

type HTTPTaskRepository struct {
	client *Client
}

func NewHTTPTask(client *Client) *HTTPTaskRepository {
	return &HTTPTaskRepository{client: client}
}

func (r *HTTPTaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	query := url.Values{"userId": {userID}}
	if err := r.client.do(ctx, http.MethodGet, tasksPath, query, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (r *HTTPTaskRepository) GetByID(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	if err := r.client.do(ctx, http.MethodGet, tasksPath+escapeID(id), nil, nil, &t); err != nil {
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (r *HTTPTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	var created model.Task
	if err := r.client.do(ctx, http.MethodPost, tasksPath, nil, task, &created); err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

func (r *HTTPTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	var updated model.Task
	if err := r.client.do(ctx, http.MethodPut, tasksPath+escapeID(task.ID), nil, task, &updated); err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

func (r *HTTPTaskRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.do(ctx, http.MethodDelete, tasksPath+escapeID(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

var _ TaskRepository = (*HTTPTaskRepository)(nil)
