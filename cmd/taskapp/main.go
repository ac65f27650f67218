// Command taskapp is a terminal client for a json-server style task store.
//
// Usage:
//
//	taskapp [-env-file .env] <command> [flags]
//
// Commands: login, register, logout, whoami, tasks list|add|edit|delete.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jaekwang-park/taskapp/internal/app"
	"github.com/jaekwang-park/taskapp/internal/config"
	"github.com/jaekwang-park/taskapp/internal/service"
)

// errReported means the failure has already been shown to the user.
var errReported = errors.New("command failed")

const usage = `usage: taskapp [-env-file FILE] <command> [flags]

commands:
  login     [-u USER] [-p PASSWORD]
  register  [-u USER] [-e EMAIL] [-p PASSWORD]
  logout
  whoami
  tasks list
  tasks add    -title T [-desc D] [-status S] [-priority P] [-due YYYY-MM-DD]
  tasks edit   ID [-title T] [-desc D] [-status S] [-priority P] [-due YYYY-MM-DD]
  tasks delete ID [-yes]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// cli carries what every command needs.
type cli struct {
	app    *app.App
	in     *lineReader
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("taskapp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	envFile := fs.String("env-file", ".env", "file with KEY=VALUE settings")
	if err := fs.Parse(args); err != nil {
		return errReported
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errReported
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.ParseLogLevel()
	if os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	c := &cli{app: a, in: newLineReader(stdin), out: stdout, errOut: stderr}
	unsubscribe := c.showGlobalErrors()
	defer unsubscribe()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go a.Watcher.Run(watchCtx)

	fmt.Fprintln(stderr, a.Catalog.CheckingSession)
	if err := a.Auth.Restore(ctx); err != nil {
		return err
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami()
	case "tasks":
		return c.tasks(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return errReported
	}
}

// showGlobalErrors prints each new global error once.
func (c *cli) showGlobalErrors() func() {
	var mu sync.Mutex
	last := ""
	return c.app.Auth.Subscribe(func(s service.State) {
		mu.Lock()
		defer mu.Unlock()
		if s.GlobalError != "" && s.GlobalError != last {
			fmt.Fprintln(c.errOut, "!", s.GlobalError)
		}
		last = s.GlobalError
	})
}

// requireUser returns the logged-in user or explains how to log in.
func (c *cli) requireUser() (string, error) {
	st := c.app.Auth.State()
	if !st.LoggedIn || st.User == nil {
		fmt.Fprintln(c.errOut, "not logged in: run `taskapp login` first")
		return "", errReported
	}
	return st.User.ID, nil
}

// fail prints the user-facing text for err.
func (c *cli) fail(err error) error {
	msg := service.UserMessage(err, c.app.Catalog)
	if msg == "" {
		return err
	}
	fmt.Fprintln(c.errOut, msg)
	return errReported
}
