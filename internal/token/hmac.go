package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/taskapp/internal/model"
)

const hmacIssuerName = "taskapp"

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HMACIssuer signs HS256 JWTs whose subject is the user id.
type HMACIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACIssuer(secret []byte, ttl time.Duration, now func() time.Time) (*HMACIssuer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token: HMAC secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &HMACIssuer{secret: secret, ttl: ttl, now: now}, nil
}

func (h *HMACIssuer) Issue(ctx context.Context, sub Subject) (string, error) {
	now := h.now()
	claims := sessionClaims{
		Username: sub.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    hmacIssuerName,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (h *HMACIssuer) Verify(ctx context.Context, user model.SessionUser, tokenStr string) error {
	_, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(hmacIssuerName),
		jwt.WithSubject(user.ID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

var _ Issuer = (*HMACIssuer)(nil)
