// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// runUnits pushes the given units through a single-worker runner for stage
// and returns the stats once the queue drains.
func runUnits(t *testing.T, stage Stage, h Handler, units ...Unit) *Stats {
	t.Helper()

	q := NewMemoryQueue(len(units) + 1)
	stats := &Stats{}
	r := NewRunner(q, stats, zap.NewNop())
	r.Register(stage, 1, h)

	ctx := context.Background()
	for _, u := range units {
		if err := q.Enqueue(ctx, u); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	q.Close()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return stats
}

func TestDispatchProcessed(t *testing.T) {
	stats := runUnits(t, StageIntake, func(ctx context.Context, u Unit) error {
		return nil
	}, NewIntakeUnit("https://example.com/a"))

	snap := stats.Snapshot()
	if snap.Processed != 1 || snap.Skipped != 0 || snap.Failed != 0 {
		t.Errorf("Snapshot() = %+v, want 1 processed", snap)
	}
}

func TestDispatchRejectionSkipsWithoutRetry(t *testing.T) {
	var calls int32
	stats := runUnits(t, StageIntake, func(ctx context.Context, u Unit) error {
		atomic.AddInt32(&calls, 1)
		return Reject(RejectDuplicate, "seen %s before", u.URL)
	}, NewIntakeUnit("https://example.com/a"))

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("handler calls = %d, want 1 (rejections are terminal)", got)
	}
	snap := stats.Snapshot()
	if snap.Skipped != 1 || snap.Failed != 0 || snap.Retried != 0 {
		t.Errorf("Snapshot() = %+v, want 1 skip only", snap)
	}
}

func TestDispatchTransientRetriesThenSucceeds(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	var calls int32
	stats := runUnits(t, StageIntake, func(ctx context.Context, u Unit) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return Transient(errors.New("connection reset"))
		}
		return nil
	}, NewIntakeUnit("https://example.com/a"))

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler calls = %d, want 2", got)
	}
	snap := stats.Snapshot()
	if snap.Processed != 1 || snap.Retried != 1 || snap.Failed != 0 {
		t.Errorf("Snapshot() = %+v, want 1 processed after 1 retry", snap)
	}
}

func TestDispatchExhaustsRetryBudget(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	var calls int32
	stats := runUnits(t, StageDiscovery, func(ctx context.Context, u Unit) error {
		atomic.AddInt32(&calls, 1)
		return Transient(errors.New("search provider unreachable"))
	}, NewDiscoveryUnit(""))

	// Discovery budget is 3 attempts.
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("handler calls = %d, want 3", got)
	}
	snap := stats.Snapshot()
	if snap.Failed != 1 || snap.Retried != 2 || snap.Processed != 0 {
		t.Errorf("Snapshot() = %+v, want 1 failure after 2 retries", snap)
	}
}

func TestDispatchTerminalErrorFailsImmediately(t *testing.T) {
	var calls int32
	stats := runUnits(t, StageUnderstanding, func(ctx context.Context, u Unit) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("handler bug")
	}, NewUnderstandingUnit(testDoc()))

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("handler calls = %d, want 1 (plain errors are terminal)", got)
	}
	if snap := stats.Snapshot(); snap.Failed != 1 {
		t.Errorf("Snapshot() = %+v, want 1 failure", snap)
	}
}

func TestRunnerMultipleStages(t *testing.T) {
	q := NewMemoryQueue(8)
	stats := &Stats{}
	r := NewRunner(q, stats, zap.NewNop())

	// Intake forwards into understanding; understanding completes.
	r.Register(StageIntake, 2, func(ctx context.Context, u Unit) error {
		return q.Enqueue(ctx, NewUnderstandingUnit(testDoc()))
	})
	var understood int32
	r.Register(StageUnderstanding, 2, func(ctx context.Context, u Unit) error {
		if atomic.AddInt32(&understood, 1) == 3 {
			q.Close()
		}
		return nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, NewIntakeUnit("https://example.com/a")); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := atomic.LoadInt32(&understood); got != 3 {
		t.Errorf("understanding handled %d units, want 3", got)
	}
	if snap := stats.Snapshot(); snap.Processed != 6 {
		t.Errorf("Snapshot().Processed = %d, want 6", snap.Processed)
	}
}
