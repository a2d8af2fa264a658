// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process Store. Single-process deployments only: state
// dies with the process and is invisible to other instances (R4.1).
type Memory struct {
	mu        sync.Mutex
	firstSeen map[string]time.Time
	retention time.Duration

	// now is replaced by retention tests.
	now func() time.Time
}

// NewMemory returns an empty in-process store. retention <= 0 keeps entries
// forever.
func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		firstSeen: make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

func (m *Memory) CheckAndMark(_ context.Context, canonicalURL, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.fresh(urlKey(canonicalURL), now) || m.fresh(hashKey(contentHash), now) {
		return true, nil
	}
	m.firstSeen[urlKey(canonicalURL)] = now
	m.firstSeen[hashKey(contentHash)] = now
	return false, nil
}

// fresh reports whether key is marked and within retention. Callers hold mu.
func (m *Memory) fresh(key string, now time.Time) bool {
	first, ok := m.firstSeen[key]
	if !ok {
		return false
	}
	return m.retention <= 0 || now.Sub(first) <= m.retention
}

// Close is a no-op for the in-process store.
func (m *Memory) Close() error { return nil }

// Len reports the number of marked keys (both key spaces). Used by tests
// and the stats surface.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.firstSeen)
}
