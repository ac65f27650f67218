package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jaekwang-park/taskapp/internal/model"
)

const (
	UserKey  = "taskapp_user"
	TokenKey = "taskapp_token"
)

var (
	// ErrNoSession means neither session entry is present.
	ErrNoSession = errors.New("no saved session")
	// ErrIncomplete means exactly one of the two entries is present.
	ErrIncomplete = errors.New("incomplete saved session")
	// ErrCorrupt means the saved user entry cannot be decoded.
	ErrCorrupt = errors.New("corrupt saved session")
)

// Saved is a session read back from the store.
type Saved struct {
	User  model.SessionUser
	Token string
}

// Manager reads and writes the user and token entries as one unit.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Save writes both entries. If the token write fails both keys are
// removed, so neither the new user nor a token left by an earlier session
// survives alone.
func (m *Manager) Save(ctx context.Context, user model.SessionUser, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}

	if err := m.store.Set(ctx, UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session user: %w", err)
	}
	if err := m.store.Set(ctx, TokenKey, token); err != nil {
		if rbErr := m.Clear(ctx); rbErr != nil {
			return errors.Join(fmt.Errorf("failed to save session token: %w", err), rbErr)
		}
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

// Load returns the saved session. It fails with ErrNoSession when nothing
// is saved, and with ErrIncomplete or ErrCorrupt for entries that must be
// discarded.
func (m *Manager) Load(ctx context.Context) (Saved, error) {
	rawUser, hasUser, err := m.store.Get(ctx, UserKey)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to read session user: %w", err)
	}
	token, hasToken, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to read session token: %w", err)
	}

	switch {
	case !hasUser && !hasToken:
		return Saved{}, ErrNoSession
	case !hasUser || !hasToken || rawUser == "" || token == "":
		return Saved{}, ErrIncomplete
	}

	var user model.SessionUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Saved{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if user.ID == "" {
		return Saved{}, fmt.Errorf("%w: missing user id", ErrCorrupt)
	}
	return Saved{User: user, Token: token}, nil
}

// Clear removes both entries. Both removals are attempted even if the
// first fails.
func (m *Manager) Clear(ctx context.Context) error {
	return errors.Join(
		m.store.Remove(ctx, UserKey),
		m.store.Remove(ctx, TokenKey),
	)
}
