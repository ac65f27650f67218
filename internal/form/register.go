package form

import (
	"context"
	"errors"

	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/service"
)

type RegisterSubmitter interface {
	Register(ctx context.Context, reg service.Registration) error
}

type RegisterForm struct {
	base
	auth RegisterSubmitter
}

func NewRegisterForm(auth RegisterSubmitter, c locale.Catalog) *RegisterForm {
	return &RegisterForm{
		base: newBase(c, FieldUsername, FieldEmail, FieldPassword),
		auth: auth,
	}
}

// Submit validates and, if valid, registers. A successful registration
// empties every field.
func (f *RegisterForm) Submit(ctx context.Context) bool {
	if f.Validate() != nil {
		return false
	}
	err := f.auth.Register(ctx, service.Registration{
		Username: f.values[FieldUsername],
		Password: f.values[FieldPassword],
		Email:    f.values[FieldEmail],
	})
	if errors.Is(err, service.ErrNetwork) {
		f.focus = FieldUsername
		f.submitErr = f.catalog.NetworkRegister
		return false
	}
	f.finish(err, f.catalog.RegisterFailed)
	if err != nil {
		return false
	}
	for _, field := range f.fields {
		f.values[field] = ""
	}
	return true
}

func (f *RegisterForm) Retry(ctx context.Context) bool {
	return f.Submit(ctx)
}

func (f *RegisterForm) View(loading bool) View {
	return f.view(loading, f.catalog.RegisterLabel, f.catalog.Registering)
}
