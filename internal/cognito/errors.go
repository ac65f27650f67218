package cognito

import "errors"

// Sentinel errors for Cognito operations.
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserNotConfirmed  = errors.New("user not confirmed")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidParameter  = errors.New("invalid parameter")
)

// Retryable reports whether err is a throttling error worth retrying later.
func Retryable(err error) bool {
	return errors.Is(err, ErrTooManyRequests)
}
