// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes token pairs whose refresh window has
// closed. A cycle that is still running when the next tick fires is
// skipped, never queued; failures are logged and retried on the next
// tick.
type Sweeper struct {
	tokens       TokenRepository
	interval     time.Duration
	queryTimeout time.Duration
	logger       *slog.Logger
	clock        func() time.Time

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSweeper creates a Sweeper.
func NewSweeper(tokens TokenRepository, interval time.Duration) (*Sweeper, error) {
	if tokens == nil {
		return nil, oops.Errorf("token repository is required")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		tokens:   tokens,
		interval: interval,
		logger:   slog.Default(),
		clock:    time.Now,
	}, nil
}

// WithLogger overrides the logger.
func (w *Sweeper) WithLogger(logger *slog.Logger) *Sweeper {
	w.logger = logger
	return w
}

// WithQueryTimeout bounds each sweep's store call. Without it a hung
// store would block the cycle forever and the single-flight guard
// would then skip every following tick.
func (w *Sweeper) WithQueryTimeout(timeout time.Duration) *Sweeper {
	w.queryTimeout = timeout
	return w
}

// WithClock overrides the time source. Intended for tests.
func (w *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	w.clock = clock
	return w
}

// RunOnce executes a single sweep cycle, bounded by the query timeout
// when one is configured.
func (w *Sweeper) RunOnce(ctx context.Context) error {
	if w.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.queryTimeout)
		defer cancel()
	}

	started := w.clock()
	removed, err := w.tokens.DeleteExpiredBefore(ctx, started)
	if err != nil {
		return oops.Code("SWEEP_FAILED").
			With("operation", "delete expired token pairs").
			Wrap(err)
	}

	recordSweep(removed, time.Since(started))
	if removed > 0 {
		w.logger.Info("removed expired token pairs", "count", removed)
	}
	return nil
}

// Start begins periodic sweeping until the context is canceled or
// Stop is called.
func (w *Sweeper) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the sweeper and waits for an in-flight cycle to finish.
func (w *Sweeper) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Sweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs one cycle with single-flight protection.
func (w *Sweeper) tick(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Warn("sweep cycle still running, skipping tick")
		return
	}
	defer w.running.Store(false)

	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("sweep cycle failed", "error", err)
	}
}
