// Package netwatch probes the backend and reports connectivity changes.
package netwatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Listener receives transitions only, never repeated states.
type Listener interface {
	Offline()
	Online()
}

type Watcher struct {
	pinger   Pinger
	listener Listener
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
}

// New returns a Watcher that assumes the backend starts out reachable.
func New(p Pinger, l Listener, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pinger:   p,
		listener: l,
		interval: interval,
		logger:   logger,
		online:   true,
	}
}

func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Check probes once, bounded by the poll interval, and notifies the
// listener if reachability changed. A probe cut short by ctx is ignored.
func (w *Watcher) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	err := w.pinger.Ping(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return w.Online()
	}
	up := err == nil

	w.mu.Lock()
	changed := up != w.online
	w.online = up
	w.mu.Unlock()

	if !changed {
		return up
	}
	if up {
		w.logger.Info("backend reachable again")
		w.listener.Online()
	} else {
		w.logger.Warn("backend unreachable", "error", err)
		w.listener.Offline()
	}
	return up
}

// Run probes every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
