// Package credential decides how passwords are written to and compared
// against user records in the document store.
package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme hashes passwords before they are stored and matches login
// attempts against stored values.
type Scheme interface {
	Hash(password string) (string, error)
	Match(stored, password string) bool
}

// Plain stores passwords as given and compares them exactly. It matches
// records created by existing clients of the store.
type Plain struct{}

func (Plain) Hash(password string) (string, error) {
	return password, nil
}

func (Plain) Match(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Bcrypt stores bcrypt hashes. Records that still hold a plain password
// are matched exactly when AllowLegacy is set, so an existing store can be
// migrated gradually.
type Bcrypt struct {
	Cost        int
	AllowLegacy bool
}

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

func (b Bcrypt) Match(stored, password string) bool {
	if !isBcryptHash(stored) {
		return b.AllowLegacy && Plain{}.Match(stored, password)
	}
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	return err == nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// ErrUnknownScheme is returned by ForName for unsupported names.
var ErrUnknownScheme = errors.New("unknown password scheme")

// ForName maps a PASSWORD_SCHEME value to a Scheme.
func ForName(name string) (Scheme, error) {
	switch name {
	case "", "plain":
		return Plain{}, nil
	case "bcrypt":
		return Bcrypt{AllowLegacy: true}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}
