// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
)

// RejectKind classifies terminal non-error outcomes.
// Per prd017-dispatch R3.2.
type RejectKind string

const (
	// RejectPolicyDenied marks a fetch refused by robots.txt.
	RejectPolicyDenied RejectKind = "policy_denied"

	// RejectTooShort marks an extraction below the minimum text length.
	RejectTooShort RejectKind = "too_short"

	// RejectDuplicate marks a document already seen by the dedup store.
	RejectDuplicate RejectKind = "duplicate"
)

// Rejection is a permanent, non-retryable outcome. The dispatcher counts a
// rejection as a skip, never as a failure, and never re-attempts the unit.
type Rejection struct {
	Kind   RejectKind
	Reason string
}

func (e *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Reject builds a Rejection with a formatted reason.
func Reject(kind RejectKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection reports whether err is (or wraps) a Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// TransientError marks an error as retryable. The dispatcher re-attempts the
// unit per the stage's retry policy, then abandons it with a logged terminal
// failure.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
