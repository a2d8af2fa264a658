// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "time"

// retryBackoff is the fixed delay between attempts. A variable so tests can
// shrink it.
var retryBackoff = 60 * time.Second

// RetryPolicy bounds delivery of one stage's units.
type RetryPolicy struct {
	// Attempts is the total delivery count, including the first.
	Attempts int

	// Backoff is the fixed delay before each re-attempt.
	Backoff time.Duration
}

// DefaultPolicy returns the single retry table applied by the dispatcher.
// Per prd017-dispatch R4.1: one fixed backoff for every stage; only the
// attempt budget differs. Handlers never retry on their own.
func DefaultPolicy() map[Stage]RetryPolicy {
	return map[Stage]RetryPolicy{
		StageDiscovery:     {Attempts: 3, Backoff: retryBackoff},
		StageIntake:        {Attempts: 2, Backoff: retryBackoff},
		StageUnderstanding: {Attempts: 2, Backoff: retryBackoff},
		StageEditorial:     {Attempts: 2, Backoff: retryBackoff},
		StageIngestion:     {Attempts: 3, Backoff: retryBackoff},
	}
}
