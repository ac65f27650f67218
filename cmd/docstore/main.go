// Command docstore serves a json-server compatible document store with
// "users" and "tasks" collections for local runs of taskapp.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaekwang-park/taskapp/internal/config"
	"github.com/jaekwang-park/taskapp/internal/docstore"
	todohttp "github.com/jaekwang-park/taskapp/internal/http"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.Server.Port,
		"data_file", cfg.Server.DataFile,
		"log_level", cfg.LogLevel,
	)

	store := docstore.New()
	if cfg.Server.DataFile != "" {
		var err error
		store, err = docstore.Open(cfg.Server.DataFile)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("DOCSTORE_FILE not set: documents are kept in memory only")
	}
	logger.Info("document store ready", "collections", store.Collections())

	srv := todohttp.NewServer(cfg.Server.Port, logger, store)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
