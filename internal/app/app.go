// Package app assembles the client from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	cognitopkg "github.com/jaekwang-park/taskapp/internal/cognito"
	"github.com/jaekwang-park/taskapp/internal/config"
	"github.com/jaekwang-park/taskapp/internal/credential"
	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/netwatch"
	"github.com/jaekwang-park/taskapp/internal/repository"
	"github.com/jaekwang-park/taskapp/internal/service"
	"github.com/jaekwang-park/taskapp/internal/session"
	"github.com/jaekwang-park/taskapp/internal/token"
)

type App struct {
	Config  config.Config
	Catalog locale.Catalog
	Logger  *slog.Logger

	Client  *repository.Client
	Auth    *service.AuthController
	Tasks   *service.TaskService
	Watcher *netwatch.Watcher

	closers []func() error
}

// Options replaces parts of the assembly, mainly for tests.
type Options struct {
	HTTPClient *http.Client
	Store      session.Store
	Tokens     token.Issuer
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Catalog: locale.Lookup(cfg.Locale),
		Logger:  logger,
	}

	store := opts.Store
	if store == nil {
		s, closeFn, err := OpenSessionStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s
		a.closers = append(a.closers, closeFn)
	}

	issuer := opts.Tokens
	if issuer == nil {
		var err error
		issuer, err = NewIssuer(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	passwords, err := credential.ForName(cfg.PasswordScheme)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Client = repository.NewClient(cfg.APIBaseURL, opts.HTTPClient, logger)
	a.Auth = service.NewAuthController(service.AuthConfig{
		Users:     repository.NewHTTPUser(a.Client),
		Session:   session.NewManager(store),
		Tokens:    issuer,
		Passwords: passwords,
		Catalog:   a.Catalog,
		Logger:    logger,
	})
	a.closers = append(a.closers, func() error {
		a.Auth.Close()
		return nil
	})
	a.Tasks = service.NewTaskService(repository.NewHTTPTask(a.Client))
	a.Watcher = netwatch.New(a.Client, a.Auth, cfg.NetwatchInterval, logger)

	logger.Debug("client assembled",
		"api_base_url", cfg.APIBaseURL,
		"session_store", cfg.Session.Store,
		"token_scheme", cfg.Token.Scheme,
		"password_scheme", cfg.PasswordScheme,
		"locale", a.Catalog.Tag,
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenSessionStore opens the store selected by SESSION_STORE. The returned
// func closes it.
func OpenSessionStore(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	switch cfg.Session.Store {
	case config.SessionStoreFile, "":
		return session.NewFileStore(cfg.Session.Path), func() error { return nil }, nil
	case config.SessionStoreSQLite:
		s, err := session.OpenSQLite(ctx, cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.SessionStorePostgres:
		s, err := session.OpenPostgres(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// NewIssuer builds the token issuer selected by TOKEN_SCHEME.
func NewIssuer(ctx context.Context, cfg config.Config) (token.Issuer, error) {
	switch cfg.Token.Scheme {
	case config.TokenSchemePlaceholder, "":
		return token.NewPlaceholder(nil), nil
	case config.TokenSchemeJWT:
		issuer, err := token.NewHMACIssuer([]byte(cfg.Token.Secret), cfg.Token.TTL, nil)
		if err != nil {
			return nil, err
		}
		return issuer, nil
	case config.TokenSchemeCognito:
		client, err := cognitopkg.NewAWSClient(ctx,
			cfg.Cognito.Region,
			cfg.Cognito.AppClientID,
			cfg.Cognito.AppClientSecret,
		)
		if err != nil {
			return nil, err
		}
		issuer, err := token.NewCognitoIssuer(token.CognitoIssuerConfig{
			Client:      client,
			Keys:        token.NewJWKSClient(token.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID)),
			Issuer:      token.CognitoIssuerURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID),
			AppClientID: cfg.Cognito.AppClientID,
		})
		if err != nil {
			return nil, err
		}
		return issuer, nil
	default:
		return nil, fmt.Errorf("unknown token scheme %q", cfg.Token.Scheme)
	}
}
