package repository

import (
	"context"

	"github.com/jaekwang-park/taskapp/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) ([]model.User, error)
	Create(ctx context.Context, user model.User) (model.User, error)
}
