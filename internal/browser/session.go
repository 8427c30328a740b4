// Package browser owns the Chrome session that scenarios drive. A Session
// is opened once per suite run and released exactly once.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/irtazafoods/homecheck/internal/config"
)

const defaultStartTimeout = 15 * time.Second

// ErrSessionClosed is returned by page operations after Close.
var ErrSessionClosed = errors.New("browser session closed")

type Session struct {
	cfg *config.RuntimeConfig
	ctx context.Context

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc

	once     sync.Once
	closed   atomic.Bool
	closeErr error
}

// Open starts (or attaches to) a browser and returns a ready session.
// Driver resolution failures wrap ErrNoDriver.
func Open(ctx context.Context, cfg *config.RuntimeConfig) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allocCtx, allocCancel, err := setupAllocator(cfg)
	if err != nil {
		return nil, err
	}

	bCtx, bCancel, err := startChrome(ctx, allocCtx, cfg)
	if err != nil {
		allocCancel()
		slog.Error("chrome start failed", "err", err)
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	slog.Debug("chrome session ready")
	return &Session{
		cfg:           cfg,
		ctx:           bCtx,
		allocCancel:   allocCancel,
		browserCancel: bCancel,
	}, nil
}

// Close releases the browser. Only the first call does work; later calls
// return its result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.ctx != nil {
			if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, chromedp.ErrInvalidContext) && !errors.Is(err, context.Canceled) {
				s.closeErr = err
			}
		}
		if s.browserCancel != nil {
			s.browserCancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
		slog.Info("chrome session released")
	})
	return s.closeErr
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

// scope derives a context for one browser operation from the session's
// context. It is bounded by timeout (if positive) and cancelled with ctx.
func (s *Session) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if s.Closed() {
		return nil, nil, ErrSessionClosed
	}

	var (
		opCtx  context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}, nil
}

// run executes actions in a scoped context and prefers the caller's
// cancellation error over the derived one.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, done, err := s.scope(ctx, timeout)
	if err != nil {
		return err
	}
	defer done()

	err = chromedp.Run(opCtx, actions...)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if s.Closed() {
			return ErrSessionClosed
		}
	}
	return err
}
