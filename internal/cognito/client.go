package cognito

import "context"

// Client is the subset of the Cognito user-pool API used to issue
// session tokens for document-store accounts.
type Client interface {
	SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error)
	Login(ctx context.Context, input LoginInput) (AuthOutput, error)
}

// SignUpInput registers Username in the pool with an email attribute.
type SignUpInput struct {
	Username string
	Password string
	Email    string
}

// SignUpOutput contains the result of a successful sign-up.
type SignUpOutput struct {
	UserSub   string
	Confirmed bool
}

type LoginInput struct {
	Username string
	Password string
}

// AuthOutput contains tokens returned after successful authentication.
type AuthOutput struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
}
