// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package understanding enriches admitted documents with labels, entities,
// chunks, and embeddings. Every sub-step degrades instead of failing: a
// document always leaves this stage carrying whatever enrichment succeeded.
// Implements: prd014-understanding (R1-R4);
//
//	docs/ARCHITECTURE § Understanding.
package understanding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/chunker"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

// Label defaults applied when classification fails or returns blanks (R1.3).
const (
	defaultDocType  = "article"
	defaultLanguage = "en"
	defaultAudience = "general"
)

// AI is the language-model surface this stage needs. *llm.Client implements
// it.
type AI interface {
	Classify(ctx context.Context, text string) (types.Labels, error)
	ExtractEntities(ctx context.Context, text string, labels types.Labels) ([]types.Entity, []types.Edge, error)
}

// Embedder turns chunk texts into vectors. *llm.Client implements it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore is the slice of the knowledge store that re-embedding
// needs.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (types.Document, error)
	UpdateDocument(ctx context.Context, id string, doc types.Document) error
	Reindex(ctx context.Context, id string) error
}

// Processor runs the understanding steps for one document.
type Processor struct {
	ai    AI
	embed Embedder
	cfg   types.UnderstandingConfig
	log   *zap.Logger
}

// NewProcessor wires an understanding processor.
func NewProcessor(ai AI, embed Embedder, cfg types.UnderstandingConfig, log *zap.Logger) *Processor {
	return &Processor{ai: ai, embed: embed, cfg: cfg, log: log}
}

// Understand classifies, extracts entities, chunks, and embeds doc
// (R1.1-R4.2). Sub-step failures fall back (default labels, no entities,
// single chunk, no vectors) and never abort the stage: the returned document
// is always ready for editorial.
func (p *Processor) Understand(ctx context.Context, doc types.Document) types.Document {
	labels, err := p.ai.Classify(ctx, doc.Text)
	if err != nil {
		p.log.Warn("classification failed, using defaults",
			zap.String("url", doc.CanonicalURL),
			zap.Error(err))
		labels = types.Labels{}
	}
	doc.Labels = withDefaults(labels)

	entities, edges, err := p.ai.ExtractEntities(ctx, doc.Text, doc.Labels)
	if err != nil {
		p.log.Warn("entity extraction failed",
			zap.String("url", doc.CanonicalURL),
			zap.Error(err))
		entities, edges = nil, nil
	}
	doc.Entities = entities
	doc.Edges = edges

	doc.Chunks = p.chunk(doc.Text)

	vectors, err := p.embed.Embed(ctx, doc.Chunks)
	if err != nil {
		p.log.Warn("embedding failed, forwarding without vectors",
			zap.String("url", doc.CanonicalURL),
			zap.Int("chunks", len(doc.Chunks)),
			zap.Error(err))
		vectors = nil
	}
	doc.Vectors = vectors

	p.log.Info("document understood",
		zap.String("url", doc.CanonicalURL),
		zap.String("doc_type", doc.Labels.DocType),
		zap.String("language", doc.Labels.Language),
		zap.Int("entities", len(doc.Entities)),
		zap.Int("chunks", len(doc.Chunks)),
		zap.Int("vectors", len(doc.Vectors)))
	return doc
}

// Reembed re-chunks and re-embeds a stored document, writes it back, and
// asks the store to reindex it. Unlike Understand this surfaces failures:
// it is an operator-invoked repair, not a pipeline stage.
func (p *Processor) Reembed(ctx context.Context, store DocumentStore, id string) error {
	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", id, err)
	}

	if len(doc.Chunks) == 0 {
		doc.Chunks = p.chunk(doc.Text)
	}
	vectors, err := p.embed.Embed(ctx, doc.Chunks)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(doc.Chunks), err)
	}
	doc.Vectors = vectors

	if err := store.UpdateDocument(ctx, id, doc); err != nil {
		return fmt.Errorf("updating document %s: %w", id, err)
	}
	if err := store.Reindex(ctx, id); err != nil {
		p.log.Warn("reindex failed after reembed",
			zap.String("doc_id", id),
			zap.Error(err))
	}

	p.log.Info("document reembedded",
		zap.String("doc_id", id),
		zap.Int("chunks", len(doc.Chunks)),
		zap.Int("vectors", len(doc.Vectors)))
	return nil
}

// chunk splits text per the configured strategy. Headings is the default;
// an empty result for non-empty text falls back to one whole-text chunk
// (R3.3).
func (p *Processor) chunk(text string) []string {
	opts := chunker.Options{
		TargetTokens:  p.cfg.TargetTokens,
		OverlapTokens: p.cfg.OverlapTokens,
		KeepHeadings:  p.cfg.KeepHeadings,
	}

	var chunks []string
	switch p.cfg.ChunkStrategy {
	case "sentences":
		chunks = chunker.BySentences(text, opts)
	default:
		chunks = chunker.ByHeadings(text, opts)
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		chunks = []string{text}
	}
	return chunks
}

// withDefaults fills the label fields editorial depends on. Jurisdiction
// stays empty when the classifier offers none.
func withDefaults(labels types.Labels) types.Labels {
	if labels.DocType == "" {
		labels.DocType = defaultDocType
	}
	if labels.Language == "" {
		labels.Language = defaultLanguage
	}
	if labels.Audience == "" {
		labels.Audience = defaultAudience
	}
	return labels
}
