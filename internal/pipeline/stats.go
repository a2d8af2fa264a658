// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "sync/atomic"

// Stats aggregates pipeline counters across all stages. The control surface
// exposes these; per-document detail stays in the logs.
// Per prd017-dispatch R5.1-R5.2.
type Stats struct {
	processed int64
	skipped   int64
	failed    int64
	retried   int64
	flagged   int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Processed        int64 `json:"processed"`
	Skipped          int64 `json:"skipped"`
	Failed           int64 `json:"failed"`
	Retried          int64 `json:"retried"`
	FlaggedForReview int64 `json:"flagged_for_review"`
}

// MarkProcessed counts one unit that completed its stage.
func (s *Stats) MarkProcessed() { atomic.AddInt64(&s.processed, 1) }

// MarkSkipped counts one rejected unit (duplicate, policy denied, too short).
func (s *Stats) MarkSkipped() { atomic.AddInt64(&s.skipped, 1) }

// MarkFailed counts one unit abandoned after exhausting its retry budget.
func (s *Stats) MarkFailed() { atomic.AddInt64(&s.failed, 1) }

// MarkRetried counts one re-attempt of a transient failure.
func (s *Stats) MarkRetried() { atomic.AddInt64(&s.retried, 1) }

// MarkFlagged counts one document flagged for human review.
func (s *Stats) MarkFlagged() { atomic.AddInt64(&s.flagged, 1) }

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Processed:        atomic.LoadInt64(&s.processed),
		Skipped:          atomic.LoadInt64(&s.skipped),
		Failed:           atomic.LoadInt64(&s.failed),
		Retried:          atomic.LoadInt64(&s.retried),
		FlaggedForReview: atomic.LoadInt64(&s.flagged),
	}
}
