package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jaekwang-park/taskapp/internal/form"
)

// formUI is what login and register share.
type formUI interface {
	Set(f form.Field, value string)
	Submit(ctx context.Context) bool
	View(loading bool) form.View
}

// fill prompts for every field that was not given on the command line.
func (c *cli) fill(f formUI, given map[form.Field]string) {
	for _, in := range f.View(false).Inputs {
		v, ok := given[in.Name]
		if !ok || v == "" {
			v = c.in.ask(c.out, fmt.Sprintf("%s: ", in.Name))
		}
		f.Set(in.Name, v)
	}
}

func (c *cli) submit(ctx context.Context, f formUI) error {
	fmt.Fprintln(c.errOut, f.View(true).SubmitLabel)
	if f.Submit(ctx) {
		return nil
	}

	v := f.View(false)
	for _, in := range v.Inputs {
		if in.Error != "" {
			fmt.Fprintf(c.errOut, "  %s: %s\n", in.Name, in.Error)
		}
	}
	if v.Error != "" {
		fmt.Fprintln(c.errOut, v.Error)
	}
	return errReported
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	f := form.NewLoginForm(c.app.Auth, c.app.Catalog)
	c.fill(f, map[form.Field]string{
		form.FieldUsername: *user,
		form.FieldPassword: *pass,
	})
	if err := c.submit(ctx, f); err != nil {
		return err
	}
	return c.whoami()
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	user := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	c.app.Auth.ShowRegister()
	f := form.NewRegisterForm(c.app.Auth, c.app.Catalog)
	c.fill(f, map[form.Field]string{
		form.FieldUsername: *user,
		form.FieldEmail:    *email,
		form.FieldPassword: *pass,
	})
	if err := c.submit(ctx, f); err != nil {
		return err
	}
	return c.whoami()
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.app.Auth.Logout(ctx); err != nil {
		c.app.Logger.Debug("logout failed", "error", err)
		return errReported
	}
	return nil
}

func (c *cli) whoami() error {
	st := c.app.Auth.State()
	if !st.LoggedIn || st.User == nil {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	fmt.Fprintf(c.out, "%s <%s> (id %s)\n", st.User.Username, st.User.Email, st.User.ID)
	return nil
}
