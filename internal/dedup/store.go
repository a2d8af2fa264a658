// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup suppresses reprocessing of documents the pipeline has
// already seen, keyed by canonical URL and by content hash.
// Implements: prd012-dedup (R1-R4);
//
//	docs/ARCHITECTURE § Dedup Store.
package dedup

import (
	"context"
	"fmt"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

// Store is the dedup check-and-mark used by intake. Implementations must be
// safe for concurrent use.
type Store interface {
	// CheckAndMark atomically tests whether canonicalURL or contentHash
	// was already marked, and marks both. It returns true when either key
	// was seen: the same page fetched again matches on URL, the same text
	// republished elsewhere matches on hash (R1.1-R1.3).
	//
	// With a retention configured, an entry expires that long after it was
	// first marked; an expired entry counts as unseen and is marked afresh
	// (R4.2). A fresh duplicate keeps its original first-seen time.
	CheckAndMark(ctx context.Context, canonicalURL, contentHash string) (bool, error)

	// Close releases backend resources.
	Close() error
}

// New builds the store selected by cfg.Backend. An empty backend means
// memory.
func New(cfg types.DedupConfig) (Store, error) {
	switch cfg.Backend {
	case types.DedupMemory, "":
		return NewMemory(cfg.Retention), nil
	case types.DedupSQLite:
		return NewSQLite(cfg.Path, cfg.Retention)
	default:
		return nil, fmt.Errorf("unknown dedup backend %q", cfg.Backend)
	}
}

// The two key spaces share one table; prefixes keep a URL from ever
// colliding with a hash.
func urlKey(canonicalURL string) string { return "u:" + canonicalURL }
func hashKey(contentHash string) string { return "h:" + contentHash }
