// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline dispatches units of work through per-stage queues and
// worker pools, applying one retry policy table to transient failures.
// Implements: prd017-dispatch (R1-R5);
//
//	docs/ARCHITECTURE § Dispatch.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler processes one unit. A nil return counts as processed; a Rejection
// counts as a skip; an error wrapped by Transient is re-attempted per the
// policy table; any other error is an immediate terminal failure.
type Handler func(ctx context.Context, u Unit) error

// Runner owns the per-stage worker pools and the retry discipline.
type Runner struct {
	queue  Queue
	stats  *Stats
	log    *zap.Logger
	policy map[Stage]RetryPolicy

	handlers map[Stage]Handler
	workers  map[Stage]int
}

// NewRunner returns a runner over queue using the default policy table.
func NewRunner(queue Queue, stats *Stats, log *zap.Logger) *Runner {
	return &Runner{
		queue:    queue,
		stats:    stats,
		log:      log,
		policy:   DefaultPolicy(),
		handlers: make(map[Stage]Handler),
		workers:  make(map[Stage]int),
	}
}

// Register installs the handler for stage with a pool of workers goroutines.
// A non-positive workers count means one worker.
func (r *Runner) Register(stage Stage, workers int, h Handler) {
	if workers <= 0 {
		workers = 1
	}
	r.handlers[stage] = h
	r.workers[stage] = workers
}

// Run starts every registered pool and blocks until the queue closes or the
// context is canceled. Units in flight finish their dispatch before workers
// exit.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for stage, h := range r.handlers {
		stage, h := stage, h
		for i := 0; i < r.workers[stage]; i++ {
			g.Go(func() error {
				return r.work(ctx, stage, h)
			})
		}
	}
	return g.Wait()
}

func (r *Runner) work(ctx context.Context, stage Stage, h Handler) error {
	for {
		u, ok, err := r.queue.Dequeue(ctx, stage)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		r.dispatch(ctx, h, u)
	}
}

// dispatch runs one unit to a terminal outcome: processed, skipped, or
// failed. Retries happen here so handlers stay retry-free.
func (r *Runner) dispatch(ctx context.Context, h Handler, u Unit) {
	pol := r.policy[u.Stage]
	if pol.Attempts < 1 {
		pol.Attempts = 1
	}

	for u.Attempt = 1; ; u.Attempt++ {
		err := h(ctx, u)
		if err == nil {
			r.stats.MarkProcessed()
			r.log.Debug("unit processed",
				zap.String("stage", string(u.Stage)),
				zap.String("unit", u.ID.String()))
			return
		}

		if rej, ok := AsRejection(err); ok {
			r.stats.MarkSkipped()
			r.log.Info("unit skipped",
				zap.String("stage", string(u.Stage)),
				zap.String("unit", u.ID.String()),
				zap.String("kind", string(rej.Kind)),
				zap.String("reason", rej.Reason))
			return
		}

		if !IsTransient(err) || u.Attempt >= pol.Attempts {
			r.stats.MarkFailed()
			r.log.Error("unit failed",
				zap.String("stage", string(u.Stage)),
				zap.String("unit", u.ID.String()),
				zap.Int("attempt", u.Attempt),
				zap.Error(err))
			return
		}

		r.stats.MarkRetried()
		r.log.Warn("unit retrying",
			zap.String("stage", string(u.Stage)),
			zap.String("unit", u.ID.String()),
			zap.Int("attempt", u.Attempt),
			zap.Duration("backoff", pol.Backoff),
			zap.Error(err))

		select {
		case <-time.After(pol.Backoff):
		case <-ctx.Done():
			r.stats.MarkFailed()
			r.log.Error("unit abandoned at shutdown",
				zap.String("stage", string(u.Stage)),
				zap.String("unit", u.ID.String()),
				zap.Int("attempt", u.Attempt))
			return
		}
	}
}
