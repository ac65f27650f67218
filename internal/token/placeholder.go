package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jaekwang-park/taskapp/internal/model"
)

// Placeholder mints "token_{userId}_{unixMillis}" strings. They are not
// signed and Verify accepts any token: session validity rests entirely on
// the user record still existing in the store.
type Placeholder struct {
	now func() time.Time
}

func NewPlaceholder(now func() time.Time) *Placeholder {
	if now == nil {
		now = time.Now
	}
	return &Placeholder{now: now}
}

func (p *Placeholder) Issue(ctx context.Context, sub Subject) (string, error) {
	if sub.UserID == "" {
		return "", fmt.Errorf("placeholder token: empty user id")
	}
	return fmt.Sprintf("token_%s_%d", sub.UserID, p.now().UnixMilli()), nil
}

func (p *Placeholder) Verify(ctx context.Context, user model.SessionUser, token string) error {
	return nil
}

var _ Issuer = (*Placeholder)(nil)
