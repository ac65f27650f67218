// Package form holds the state of the login and registration forms
// independently of how they are drawn.
package form

import (
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jaekwang-park/taskapp/internal/locale"
	"github.com/jaekwang-park/taskapp/internal/service"
)

type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldEmail    Field = "email"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, string(f))
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, e.Fields[Field(n)])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return service.ErrValidation
}

// Input is one rendered field.
type Input struct {
	Name     Field
	Value    string
	Error    string
	Secret   bool
	Focused  bool
	Disabled bool
}

// View is everything a front end needs to draw a form.
type View struct {
	Inputs         []Input
	SubmitLabel    string
	SubmitDisabled bool
	Error          string
}

// base is the state shared by both forms.
type base struct {
	catalog   locale.Catalog
	fields    []Field
	values    map[Field]string
	errors    map[Field]string
	submitErr string
	focus     Field
}

func newBase(c locale.Catalog, fields ...Field) base {
	return base{
		catalog: c,
		fields:  fields,
		values:  make(map[Field]string, len(fields)),
		errors:  make(map[Field]string),
		focus:   FieldUsername,
	}
}

func (b *base) has(f Field) bool {
	for _, x := range b.fields {
		if x == f {
			return true
		}
	}
	return false
}

// Set stores value and clears that field's error and the submission error.
// Unknown fields are ignored.
func (b *base) Set(f Field, value string) {
	if !b.has(f) {
		return
	}
	b.values[f] = value
	delete(b.errors, f)
	b.submitErr = ""
}

func (b *base) Value(f Field) string { return b.values[f] }

func (b *base) FieldError(f Field) string { return b.errors[f] }

func (b *base) SubmitError() string { return b.submitErr }

func (b *base) DismissError() { b.submitErr = "" }

func (b *base) Focused() Field { return b.focus }

func (b *base) Validate() error {
	errs := make(map[Field]string)
	for _, f := range b.fields {
		if msg := b.check(f, b.values[f]); msg != "" {
			errs[f] = msg
		}
	}
	b.errors = errs
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: maps.Clone(errs)}
}

func (b *base) check(f Field, v string) string {
	c := b.catalog
	switch f {
	case FieldUsername:
		if strings.TrimSpace(v) == "" {
			return c.UsernameRequired
		}
		if utf8.RuneCountInString(v) < minUsernameLength {
			return c.UsernameTooShort
		}
	case FieldPassword:
		if v == "" {
			return c.PasswordRequired
		}
		if utf8.RuneCountInString(v) < minPasswordLength {
			return c.PasswordTooShort
		}
	case FieldEmail:
		if v == "" {
			return c.EmailRequired
		}
		if !emailPattern.MatchString(v) {
			return c.EmailInvalid
		}
	}
	return ""
}

func (b *base) view(loading bool, label, loadingLabel string) View {
	v := View{
		SubmitLabel:    label,
		SubmitDisabled: loading,
		Error:          b.submitErr,
	}
	if loading {
		v.SubmitLabel = loadingLabel
	}
	for _, f := range b.fields {
		v.Inputs = append(v.Inputs, Input{
			Name:     f,
			Value:    b.values[f],
			Error:    b.errors[f],
			Secret:   f == FieldPassword,
			Focused:  f == b.focus,
			Disabled: loading,
		})
	}
	return v
}

// finish records the outcome of a submission and moves focus back to the
// username field.
func (b *base) finish(err error, fallback string) {
	b.focus = FieldUsername
	if err == nil {
		b.submitErr = ""
		return
	}
	msg := service.UserMessage(err, b.catalog)
	if msg == "" {
		msg = fallback
	}
	b.submitErr = msg
}
