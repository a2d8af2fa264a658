// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intake turns one URL into one admitted Document: canonicalize,
// fetch under robots policy, extract text, and gate through the dedup
// store. Rejections (policy, shortness, duplicates) are terminal outcomes,
// never errors.
// Implements: prd011-intake (R1-R5);
//
//	docs/ARCHITECTURE § Intake.
package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/dedup"
	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/webfetch"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

const defaultMinTextChars = 100

// Fetcher retrieves one URL. *webfetch.Fetcher is the production
// implementation; tests substitute mocks.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*webfetch.Result, error)
}

// Processor runs the intake steps for one URL.
type Processor struct {
	fetcher Fetcher
	pdf     *PDFExtractor
	dedup   dedup.Store
	cfg     types.IntakeConfig
	log     *zap.Logger
}

// NewProcessor wires an intake processor over the given fetcher and dedup
// store.
func NewProcessor(fetcher Fetcher, store dedup.Store, cfg types.IntakeConfig, log *zap.Logger) *Processor {
	return &Processor{
		fetcher: fetcher,
		pdf:     NewPDFExtractor(cfg.PdftotextPath),
		dedup:   store,
		cfg:     cfg,
		log:     log,
	}
}

// Process fetches rawURL and builds the intake Document (R1.1-R1.6).
// Outcomes follow the dispatch taxonomy: robots refusals, short
// extractions, and duplicates return a *pipeline.Rejection; fetch and dedup
// infrastructure failures return transient errors; malformed input and
// extraction failures are terminal errors.
func (p *Processor) Process(ctx context.Context, rawURL string) (types.Document, error) {
	canonical, err := CanonicalizeURL(rawURL)
	if err != nil {
		return types.Document{}, err
	}

	res, err := p.fetcher.Fetch(ctx, canonical)
	if err != nil {
		if errors.Is(err, webfetch.ErrRobotsDisallowed) {
			return types.Document{}, pipeline.Reject(pipeline.RejectPolicyDenied, "robots.txt disallows %s", canonical)
		}
		return types.Document{}, pipeline.Transient(err)
	}

	doc := types.Document{
		Version:      types.SchemaVersion,
		URL:          rawURL,
		CanonicalURL: canonical,
		ContentType:  res.ContentType,
		FetchedAt:    time.Now().UTC(),
	}

	if strings.Contains(strings.ToLower(res.ContentType), "pdf") {
		text, err := p.pdf.Extract(ctx, res.Body)
		if err != nil {
			return types.Document{}, fmt.Errorf("extracting PDF text from %s: %w", canonical, err)
		}
		doc.Title = "PDF Document from " + canonical
		doc.Text = text
		doc.Metadata = map[string]string{"content_type": "application/pdf"}
	} else {
		page, err := ExtractHTML(res.Body, canonical)
		if err != nil {
			return types.Document{}, fmt.Errorf("extracting text from %s: %w", canonical, err)
		}
		doc.Title = page.Title
		doc.Text = page.Text
		doc.Metadata = page.Metadata
		doc.Links = page.Links
	}

	minChars := p.cfg.MinTextChars
	if minChars <= 0 {
		minChars = defaultMinTextChars
	}
	if len(doc.Text) < minChars {
		return types.Document{}, pipeline.Reject(pipeline.RejectTooShort,
			"extracted %d chars from %s, need %d", len(doc.Text), canonical, minChars)
	}

	doc.ContentHash = ContentHash(doc.Text)
	doc.SimilarityHash = dedup.Signature(doc.Text)

	seen, err := p.dedup.CheckAndMark(ctx, doc.CanonicalURL, doc.ContentHash)
	if err != nil {
		return types.Document{}, pipeline.Transient(fmt.Errorf("dedup check for %s: %w", canonical, err))
	}
	if seen {
		return types.Document{}, pipeline.Reject(pipeline.RejectDuplicate, "already processed %s", canonical)
	}

	p.log.Info("document admitted",
		zap.String("url", canonical),
		zap.String("content_hash", doc.ContentHash[:12]),
		zap.Int("chars", len(doc.Text)))
	return doc, nil
}

// ContentHash returns the hex SHA-256 of text; one of the two dedup keys.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
