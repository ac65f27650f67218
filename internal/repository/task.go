package repository

import (
	"context"

	"github.com/jaekwang-park/taskapp/internal/model"
)

type TaskRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	GetByID(ctx context.Context, id string) (model.Task, error)
	Create(ctx context.Context, task model.Task) (model.Task, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	Delete(ctx context.Context, id string) error
}
