// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package editorial writes the abstract, extracts claims, corroborates them
// against outside evidence, and scores document quality. Documents always
// move on to ingestion; what editorial controls is the NeedsReview flag.
// Implements: prd015-editorial (R1-R5);
//
//	docs/ARCHITECTURE § Editorial.
package editorial

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

const (
	defaultMaxClaims = 10

	// fallbackAbstractChars bounds the truncated-text abstract used when
	// the summarizer fails.
	fallbackAbstractChars = 500
)

// Summarizer is the language-model surface editorial needs. *llm.Client
// implements it.
type Summarizer interface {
	Summarize(ctx context.Context, text string, labels types.Labels) (string, error)
	ExtractClaims(ctx context.Context, abstract string, max int) ([]string, error)
}

// Verifier checks claims against outside evidence. *Corroborator implements
// it.
type Verifier interface {
	Corroborate(ctx context.Context, claims []string) (bool, []types.Citation, error)
}

// Processor runs the editorial steps for one document.
type Processor struct {
	ai       Summarizer
	verifier Verifier
	cfg      types.EditorialConfig
	log      *zap.Logger
}

// NewProcessor wires an editorial processor.
func NewProcessor(ai Summarizer, verifier Verifier, cfg types.EditorialConfig, log *zap.Logger) *Processor {
	return &Processor{ai: ai, verifier: verifier, cfg: cfg, log: log}
}

// Edit summarizes, fact-checks, and scores doc (R1.1-R5.2). Like
// understanding, no sub-failure blocks the stage: a failed summary degrades
// to truncated text, failed claim extraction to no claims, and a failed or
// negative corroboration run flags the document for review instead of
// dropping it.
func (p *Processor) Edit(ctx context.Context, doc types.Document) types.Document {
	abstract, err := p.ai.Summarize(ctx, doc.Text, doc.Labels)
	if err != nil {
		p.log.Warn("summarization failed, falling back to truncated text",
			zap.String("url", doc.CanonicalURL),
			zap.Error(err))
		abstract = fallbackAbstract(doc.Text)
	}
	doc.Abstract = abstract

	maxClaims := p.cfg.MaxClaims
	if maxClaims <= 0 {
		maxClaims = defaultMaxClaims
	}
	claims, err := p.ai.ExtractClaims(ctx, abstract, maxClaims)
	if err != nil {
		p.log.Warn("claim extraction failed",
			zap.String("url", doc.CanonicalURL),
			zap.Error(err))
		claims = nil
	}
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}
	doc.Claims = claims

	if len(claims) > 0 {
		accepted, citations, err := p.verifier.Corroborate(ctx, claims)
		switch {
		case err != nil:
			p.log.Warn("corroboration run failed, flagging for review",
				zap.String("url", doc.CanonicalURL),
				zap.Error(err))
			doc.NeedsReview = true
			citations = nil
		case !accepted:
			p.log.Warn("claims not corroborated, flagging for review",
				zap.String("url", doc.CanonicalURL),
				zap.Int("claims", len(claims)),
				zap.Int("citations", len(citations)))
			doc.NeedsReview = true
		}
		doc.Citations = citations
	}

	score, issues := Score(doc)
	doc.QualityScore = score
	floor := p.cfg.QualityFloor
	if floor <= 0 {
		floor = defaultQualityFloor
	}
	if score < floor {
		p.log.Warn("quality below floor, flagging for review",
			zap.String("url", doc.CanonicalURL),
			zap.Float64("score", score),
			zap.Float64("floor", floor),
			zap.Strings("issues", issues))
		doc.NeedsReview = true
	}

	p.log.Info("document edited",
		zap.String("url", doc.CanonicalURL),
		zap.Int("abstract_chars", len(doc.Abstract)),
		zap.Int("claims", len(doc.Claims)),
		zap.Int("citations", len(doc.Citations)),
		zap.Float64("quality", doc.QualityScore),
		zap.Bool("needs_review", doc.NeedsReview))
	return doc
}

// fallbackAbstract returns the first fallbackAbstractChars bytes of text
// (backed off to a rune boundary) with an ellipsis marker, or the whole
// text when it is already short enough.
func fallbackAbstract(text string) string {
	if len(text) <= fallbackAbstractChars {
		return text
	}
	cut := fallbackAbstractChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
