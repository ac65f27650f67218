package service

import (
	"errors"

	"github.com/jaekwang-park/taskapp/internal/locale"
)

var (
	ErrNetwork             = errors.New("network error")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrValidation          = errors.New("validation failed")
	ErrSessionInvalid      = errors.New("saved session is invalid")
	ErrOperationInProgress = errors.New("another operation is in progress")
	ErrAlreadyRestored     = errors.New("session already restored")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// UserMessage returns the catalog text for a known error, or "" when the
// error has no user-facing translation.
func UserMessage(err error, c locale.Catalog) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return c.InvalidCredentials
	case errors.Is(err, ErrDuplicateUsername):
		return c.DuplicateUsername
	case errors.Is(err, ErrDuplicateEmail):
		return c.DuplicateEmail
	case errors.Is(err, ErrNetwork):
		return c.NetworkError
	case errors.Is(err, ErrOperationInProgress):
		return c.Busy
	}
	return ""
}
