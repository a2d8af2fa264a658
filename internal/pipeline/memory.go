// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// MemoryQueue is a bounded in-process Queue: one buffered channel per stage.
// Per prd017-dispatch R1.4-R1.5.
type MemoryQueue struct {
	chans map[Stage]chan Unit
	done  chan struct{}
	once  sync.Once
}

// NewMemoryQueue returns a queue holding up to size units per stage.
// A non-positive size falls back to 256.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	chans := make(map[Stage]chan Unit, len(Stages))
	for _, s := range Stages {
		chans[s] = make(chan Unit, size)
	}
	return &MemoryQueue{chans: chans, done: make(chan struct{})}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, u Unit) error {
	ch, ok := q.chans[u.Stage]
	if !ok {
		return fmt.Errorf("enqueue: unknown stage %q", u.Stage)
	}
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case ch <- u:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, stage Stage) (Unit, bool, error) {
	ch, ok := q.chans[stage]
	if !ok {
		return Unit{}, false, fmt.Errorf("dequeue: unknown stage %q", stage)
	}
	select {
	case u := <-ch:
		return u, true, nil
	case <-q.done:
		// Drain units buffered before Close.
		select {
		case u := <-ch:
			return u, true, nil
		default:
			return Unit{}, false, nil
		}
	case <-ctx.Done():
		return Unit{}, false, ctx.Err()
	}
}

func (q *MemoryQueue) Depth(stage Stage) int {
	return len(q.chans[stage])
}

func (q *MemoryQueue) Close() {
	q.once.Do(func() { close(q.done) })
}
