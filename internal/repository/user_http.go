package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jaekwang-park/taskapp/internal/model"
)

const usersPath = "/users"

type HTTPUserRepository struct {
	client *Client
}

func NewHTTPUser(client *Client) *HTTPUserRepository {
	return &HTTPUserRepository{client: client}
}

func (r *HTTPUserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := r.client.do(ctx, http.MethodGet, usersPath+escapeID(id), nil, nil, &u); err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *HTTPUserRepository) FindByUsername(ctx context.Context, username string) ([]model.User, error) {
	return r.find(ctx, "username", username)
}

func (r *HTTPUserRepository) FindByEmail(ctx context.Context, email string) ([]model.User, error) {
	return r.find(ctx, "email", email)
}

func (r *HTTPUserRepository) find(ctx context.Context, field, value string) ([]model.User, error) {
	var users []model.User
	query := url.Values{field: {value}}
	if err := r.client.do(ctx, http.MethodGet, usersPath, query, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to find users by %s: %w", field, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (r *HTTPUserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	var created model.User
	if err := r.client.do(ctx, http.MethodPost, usersPath, nil, user, &created); err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

var _ UserRepository = (*HTTPUserRepository)(nil)
