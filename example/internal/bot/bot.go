// Package bot holds the plumbing shared by the example clients: flag and
// config loading, signal handling and reconnection.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Zereker/irc"
)

// Reconnect delays used when the Supervisor fields are zero.
const (
	DefaultInitialDelay = 5 * time.Second
	DefaultMaxDelay     = 60 * time.Second
)

// Supervisor keeps a connection alive until its context is canceled.
type Supervisor struct {
	Conn   *irc.Conn
	Logger *slog.Logger

	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Run connects and, whenever the session ends, reconnects with exponential
// backoff. A session that reached the welcome reply resets the delay.
// Run returns nil once ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	initialDelay, maxDelay := s.InitialDelay, s.MaxDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	b := newBackoff(initialDelay, maxDelay)

	var welcomed atomic.Bool
	if err := s.Conn.RegisterHandler(func(ev irc.Event) {
		if ev.Kind == irc.EventConnected {
			welcomed.Store(true)
		}
	}); err != nil {
		return err
	}

	for {
		welcomed.Store(false)
		err := s.Conn.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, irc.ErrAlreadyRunning) || errors.Is(err, irc.ErrConnectionClosed) {
			return err
		}
		if welcomed.Load() {
			b.Reset()
		}

		delay := b.Next()
		logger.Warn("session ended, reconnecting", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// SignalContext returns a context canceled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			logger.Info("shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// backoff doubles the delay on every call to Next, up to max.
type backoff struct {
	base time.Duration
	cur  time.Duration
	max  time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if max < base {
		max = base
	}
	return &backoff{base: base, cur: base, max: max}
}

func (b *backoff) Next() time.Duration {
	d := b.cur
	b.cur = min(b.cur*2, b.max)
	return d
}

func (b *backoff) Reset() {
	b.cur = b.base
}
