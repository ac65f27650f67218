// Package token issues and checks the opaque session token saved next to
// the session user.
package token

import (
	"context"
	"errors"

	"github.com/jaekwang-park/taskapp/internal/model"
)

// ErrInvalidToken is returned by Verify when a token does not belong to the user
// or can no longer be trusted.
var ErrInvalidToken = errors.New("invalid session token")

// ErrRejected is returned by Issue when the issuer itself refuses the
// credentials it was given.
var ErrRejected = errors.New("credentials rejected")

// Subject describes the account a token is issued for. Password is only
// used by schemes that authenticate against a third party.
type Subject struct {
	UserID   string
	Username string
	Email    string
	Password string
}

// Issuer creates and checks session tokens.
type Issuer interface {
	Issue(ctx context.Context, sub Subject) (string, error)
	Verify(ctx context.Context, user model.SessionUser, token string) error
}

// Enroller is implemented by issuers that must be told about newly
// registered accounts before they can issue tokens for them.
type Enroller interface {
	Enroll(ctx context.Context, sub Subject) error
}
