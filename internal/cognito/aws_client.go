package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// api is the part of the SDK client AWSClient calls; tests substitute it.
type api interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

// AWSClient implements Client using the AWS SDK v2.
type AWSClient struct {
	cip          api
	clientID     string
	clientSecret string
}

// NewAWSClient creates a new AWSClient for the given region and app client.
func NewAWSClient(ctx context.Context, region, clientID, clientSecret string) (*AWSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSClient(cip.NewFromConfig(cfg), clientID, clientSecret), nil
}

func newAWSClient(c api, clientID, clientSecret string) *AWSClient {
	return &AWSClient{cip: c, clientID: clientID, clientSecret: clientSecret}
}

// SecretHash is Base64(HMAC_SHA256(clientSecret, username + clientID)),
// required when the app client has a secret.
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username))
	mac.Write([]byte(clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *AWSClient) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(username, c.clientID, c.clientSecret))
}

func (c *AWSClient) SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error) {
	out, err := c.cip.SignUp(ctx, &cip.SignUpInput{
		ClientId:   &c.clientID,
		SecretHash: c.secretHash(input.Username),
		Username:   &input.Username,
		Password:   &input.Password,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: &input.Email},
		},
	})
	if err != nil {
		return SignUpOutput{}, mapAWSError(err)
	}
	return SignUpOutput{
		UserSub:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}, nil
}

func (c *AWSClient) Login(ctx context.Context, input LoginInput) (AuthOutput, error) {
	authParams := map[string]string{
		"USERNAME": input.Username,
		"PASSWORD": input.Password,
	}
	if h := c.secretHash(input.Username); h != nil {
		authParams["SECRET_HASH"] = *h
	}

	out, err := c.cip.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       &c.clientID,
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: authParams,
	})
	if err != nil {
		return AuthOutput{}, mapAWSError(err)
	}
	if out.AuthenticationResult == nil {
		// A challenge (MFA, new password) is pending; the client cannot answer it.
		return AuthOutput{}, fmt.Errorf("cognito challenge %q not supported: %w", out.ChallengeName, ErrNotAuthorized)
	}
	r := out.AuthenticationResult
	return AuthOutput{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
		ExpiresIn:    r.ExpiresIn,
	}, nil
}

// mapAWSError converts AWS SDK errors to cognito sentinel errors.
func mapAWSError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}

	switch apiErr.ErrorCode() {
	case "UsernameExistsException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrUserAlreadyExists)
	case "UserNotFoundException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrUserNotFound)
	case "UserNotConfirmedException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrUserNotConfirmed)
	case "InvalidPasswordException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrInvalidPassword)
	case "TooManyRequestsException", "LimitExceededException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrTooManyRequests)
	case "NotAuthorizedException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrNotAuthorized)
	case "InvalidParameterException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrInvalidParameter)
	default:
		return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
	}
}

// Compile-time check: AWSClient implements Client.
var _ Client = (*AWSClient)(nil)
