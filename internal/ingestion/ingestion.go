// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingestion writes processed documents into the knowledge store.
// Implements: prd016-ingestion (R1-R4);
//
//	docs/ARCHITECTURE.md § Ingestion Writer.
package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

const defaultCollection = "vertical_generic"

// Store is the slice of the knowledge-store contract that ingestion uses.
type Store interface {
	EnsureCollection(ctx context.Context, name string) error
	UpsertDocument(ctx context.Context, collection string, doc types.Document) (string, error)
	UpsertGraph(ctx context.Context, collection string, entities []types.Entity, edges []types.Edge) error
	Reindex(ctx context.Context, docID string) error
}

// Writer persists documents into one knowledge-store collection.
type Writer struct {
	store      Store
	collection string
	log        *zap.Logger
}

// NewWriter builds the ingestion writer. An empty collection name falls
// back to the built-in default (R1.1).
func NewWriter(store Store, cfg types.IngestionConfig, log *zap.Logger) *Writer {
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	return &Writer{store: store, collection: collection, log: log}
}

// Ingest writes one document and its graph fragment, then triggers
// reindexing (R2.1-R2.4). Collection setup, the graph write, and the
// reindex are best-effort: only a failed document upsert fails the unit,
// and that failure is retryable.
func (w *Writer) Ingest(ctx context.Context, doc types.Document) (string, error) {
	if err := w.store.EnsureCollection(ctx, w.collection); err != nil {
		// The collection usually exists already; the upsert below settles it.
		w.log.Warn("collection setup failed",
			zap.String("collection", w.collection),
			zap.Error(err))
	}

	docID, err := w.store.UpsertDocument(ctx, w.collection, doc)
	if err != nil {
		return "", pipeline.Transient(fmt.Errorf("upserting %q: %w", doc.CanonicalURL, err))
	}

	if len(doc.Entities) > 0 || len(doc.Edges) > 0 {
		if err := w.store.UpsertGraph(ctx, w.collection, doc.Entities, doc.Edges); err != nil {
			w.log.Warn("graph upsert failed",
				zap.String("doc_id", docID),
				zap.Error(err))
		}
	}

	if err := w.store.Reindex(ctx, docID); err != nil {
		w.log.Warn("reindex failed",
			zap.String("doc_id", docID),
			zap.Error(err))
	}

	w.log.Info("ingested document",
		zap.String("doc_id", docID),
		zap.String("collection", w.collection),
		zap.String("title", doc.Title),
		zap.Int("entities", len(doc.Entities)),
		zap.Int("edges", len(doc.Edges)))
	return docID, nil
}

// BatchResult holds the outcome of a bulk ingestion run.
type BatchResult struct {
	Ingested int
	Failed   int
	DocIDs   []string
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Ingested + r.Failed
}

// HasFailures reports whether any documents failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// BulkIngest writes a batch of documents with per-item isolation: one bad
// document never aborts the rest (R4.1). The collection is ensured once
// up front; documents are not individually reindexed.
func (w *Writer) BulkIngest(ctx context.Context, docs []types.Document) (BatchResult, error) {
	if err := w.store.EnsureCollection(ctx, w.collection); err != nil {
		return BatchResult{}, pipeline.Transient(fmt.Errorf("collection setup: %w", err))
	}

	var result BatchResult
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		docID, err := w.store.UpsertDocument(ctx, w.collection, doc)
		if err != nil {
			w.log.Warn("bulk upsert failed",
				zap.String("url", doc.CanonicalURL),
				zap.Error(err))
			result.Failed++
			continue
		}
		if len(doc.Entities) > 0 || len(doc.Edges) > 0 {
			if err := w.store.UpsertGraph(ctx, w.collection, doc.Entities, doc.Edges); err != nil {
				w.log.Warn("bulk graph upsert failed",
					zap.String("doc_id", docID),
					zap.Error(err))
			}
		}
		result.Ingested++
		result.DocIDs = append(result.DocIDs, docID)
	}

	w.log.Info("bulk ingest finished",
		zap.String("collection", w.collection),
		zap.Int("ingested", result.Ingested),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total()))
	return result, nil
}
