package form

import (
	"context"

	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/service"
)

type LoginSubmitter interface {
	Login(ctx context.Context, cred service.Credentials) error
}

type LoginForm struct {
	base
	auth LoginSubmitter
}

func NewLoginForm(auth LoginSubmitter, c locale.Catalog) *LoginForm {
	return &LoginForm{
		base: newBase(c, FieldUsername, FieldPassword),
		auth: auth,
	}
}

// Submit validates and, if valid, logs in. Field values are kept either way.
func (f *LoginForm) Submit(ctx context.Context) bool {
	if f.Validate() != nil {
		return false
	}
	err := f.auth.Login(ctx, service.Credentials{
		Username: f.values[FieldUsername],
		Password: f.values[FieldPassword],
	})
	f.finish(err, f.catalog.LoginFailed)
	return err == nil
}

func (f *LoginForm) Retry(ctx context.Context) bool {
	return f.Submit(ctx)
}

func (f *LoginForm) View(loading bool) View {
	return f.view(loading, f.catalog.LoginLabel, f.catalog.LoggingIn)
}
