// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("queue closed")

// Queue transports units between stages. Implementations must be safe for
// concurrent producers and consumers. The pipeline assumes a queue is
// available; MemoryQueue is the in-process default, an external broker can
// stand in for multi-process deployments.
type Queue interface {
	// Enqueue adds a unit to its stage's queue, blocking while the queue
	// is full. Blocked producers are the back-pressure mechanism.
	Enqueue(ctx context.Context, u Unit) error

	// Dequeue removes the next unit for stage, blocking while the queue is
	// empty. It returns ok=false once the queue is closed and drained.
	Dequeue(ctx context.Context, stage Stage) (u Unit, ok bool, err error)

	// Depth reports the number of waiting units for stage.
	Depth(stage Stage) int

	// Close stops the queue. Buffered units remain dequeueable.
	Close()
}
