package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/taskapp/internal/cognito"
	"github.com/jaekwang-park/taskapp/internal/model"
)

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}

// CognitoIssuerURL returns the expected iss claim for the given Cognito User Pool.
func CognitoIssuerURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// CognitoIssuer uses a Cognito user pool ID token as the session token.
// Pool usernames mirror document-store usernames.
type CognitoIssuer struct {
	client      cognito.Client
	keys        KeySource
	issuer      string
	appClientID string
	now         func() time.Time
}

type CognitoIssuerConfig struct {
	Client      cognito.Client
	Keys        KeySource
	Issuer      string
	AppClientID string
	Now         func() time.Time
}

func NewCognitoIssuer(cfg CognitoIssuerConfig) (*CognitoIssuer, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("token: cognito client is required")
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("token: key source is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CognitoIssuer{
		client:      cfg.Client,
		keys:        cfg.Keys,
		issuer:      cfg.Issuer,
		appClientID: cfg.AppClientID,
		now:         cfg.Now,
	}, nil
}

func (c *CognitoIssuer) Issue(ctx context.Context, sub Subject) (string, error) {
	out, err := c.client.Login(ctx, cognito.LoginInput{
		Username: sub.Username,
		Password: sub.Password,
	})
	if err != nil {
		if errors.Is(err, cognito.ErrNotAuthorized) || errors.Is(err, cognito.ErrUserNotFound) {
			return "", fmt.Errorf("cognito login: %w: %w", ErrRejected, err)
		}
		return "", fmt.Errorf("cognito login: %w", err)
	}
	if out.IDToken == "" {
		return "", fmt.Errorf("cognito login returned no id token")
	}
	return out.IDToken, nil
}

// Enroll signs the account up in the pool. An account that already exists
// is not an error.
func (c *CognitoIssuer) Enroll(ctx context.Context, sub Subject) error {
	_, err := c.client.SignUp(ctx, cognito.SignUpInput{
		Username: sub.Username,
		Password: sub.Password,
		Email:    sub.Email,
	})
	if err != nil && !errors.Is(err, cognito.ErrUserAlreadyExists) {
		return fmt.Errorf("cognito sign-up: %w", err)
	}
	return nil
}

func (c *CognitoIssuer) Verify(ctx context.Context, user model.SessionUser, tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}
		return c.keys.GetKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.appClientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}
	if use, _ := claims["token_use"].(string); use != "id" {
		return fmt.Errorf("%w: token_use %q", ErrInvalidToken, use)
	}
	if name, _ := claims["cognito:username"].(string); name != user.Username {
		return fmt.Errorf("%w: token belongs to %q", ErrInvalidToken, name)
	}
	return nil
}

var (
	_ Issuer   = (*CognitoIssuer)(nil)
	_ Enroller = (*CognitoIssuer)(nil)
)
