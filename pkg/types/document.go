// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the editorial-engine pipeline.
// Implements: prd011-intake (Document intake fields, R2.1-R2.5);
//
//	prd014-understanding (Labels, Entity, Edge, R1.1-R1.4);
//	prd015-editorial (Citation, R3.1-R3.3);
//	prd016-ingestion (Chunk wire shape, R1.2);
//	prd020-web-search (SearchHit, R2.1).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// SchemaVersion tags the Document aggregate layout. Stages add fields
// monotonically; any layout change bumps this.
const SchemaVersion = 1

// SearchHit represents one result returned by the web search provider.
// Hits are ephemeral: discovery forwards the URL and drops the rest.
type SearchHit struct {
	// URL is the result location as returned by the provider.
	URL string `json:"url" yaml:"url"`

	// Title is the result title, possibly empty.
	Title string `json:"title" yaml:"title"`

	// Snippet is a short relevance excerpt, possibly empty.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Content carries raw page content when the provider includes it.
	// Corroboration matches claim text against this field.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Labels classifies a document. Produced by understanding; the summarizer
// selects its output language from Language.
type Labels struct {
	// DocType is one of: guideline, ruling, article, faq, spec, datasheet.
	DocType string `json:"doc_type" yaml:"doc_type"`

	// Language is the ISO 639-1 code of the document body (e.g. "en", "de").
	Language string `json:"language" yaml:"language"`

	// Audience is one of: general, expert, legal.
	Audience string `json:"audience" yaml:"audience"`

	// Jurisdiction is an optional locale tag (e.g. "EU", "US-CA").
	Jurisdiction string `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
}

// Entity is a typed mention extracted from one document.
type Entity struct {
	// Name is the surface form; the join key for Edge endpoints.
	Name string `json:"name" yaml:"name"`

	// Type is one of: Statute, Case, Organization, Form, Concept.
	Type string `json:"type" yaml:"type"`

	// Confidence is the extractor's score between 0.0 and 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Edge is a directed relation between two entities of one document.
// Source and Target are entity names; edges whose endpoints do not resolve
// against the document's entity list are dropped before the graph write.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	// Relation is one of: INTERPRETS, APPLIES, MAPS_TO, HARMONIZES.
	Relation string `json:"relation" yaml:"relation"`

	// Confidence is the extractor's score between 0.0 and 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Chunk is the wire shape of one text segment at ingestion.
// Order starts at 1 and follows source order; ID is "c<order>".
type Chunk struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Order int    `json:"order" yaml:"order"`
}

// Citation links one claim to one piece of corroborating search evidence.
type Citation struct {
	Claim   string `json:"claim" yaml:"claim"`
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Document is the single aggregate carried through the pipeline. Intake
// creates it; understanding, editorial, and ingestion add fields and never
// restructure existing ones. Stages pass it by value: once a unit is
// forwarded, the sending stage keeps no reference to the payload.
type Document struct {
	// Version is the aggregate layout version (SchemaVersion at creation).
	Version int `json:"version" yaml:"version"`

	// --- intake ---

	// URL is the originally requested location.
	URL string `json:"url" yaml:"url"`

	// CanonicalURL is URL with tracking parameters stripped; a dedup key.
	CanonicalURL string `json:"canonical_url" yaml:"canonical_url"`

	// ContentHash is the hex SHA-256 of Text; the other dedup key.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	// SimilarityHash is an advisory MinHash signature over Text, recorded
	// for near-duplicate diagnostics. It never gates intake.
	SimilarityHash string `json:"similarity_hash,omitempty" yaml:"similarity_hash,omitempty"`

	Title       string            `json:"title" yaml:"title"`
	Text        string            `json:"text" yaml:"text"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Links       []string          `json:"links,omitempty" yaml:"links,omitempty"`
	ContentType string            `json:"content_type" yaml:"content_type"`
	FetchedAt   time.Time         `json:"fetched_at" yaml:"fetched_at"`

	// --- understanding ---

	// Labels holds the classification outcome, or the documented fallback
	// when classification failed.
	Labels Labels `json:"labels" yaml:"labels"`

	Entities []Entity `json:"entities,omitempty" yaml:"entities,omitempty"`
	Edges    []Edge   `json:"edges,omitempty" yaml:"edges,omitempty"`

	// Chunks are the ordered text segments produced by the chunker.
	// Ingestion assigns the wire IDs (see Chunk).
	Chunks []string `json:"chunks,omitempty" yaml:"chunks,omitempty"`

	// Vectors holds one embedding per chunk, or nothing when embedding
	// failed. Never zero-filled placeholders.
	Vectors [][]float32 `json:"vectors,omitempty" yaml:"vectors,omitempty"`

	// --- editorial ---

	// Abstract is the editorial summary (at most 180 words), or the
	// first 500 characters of Text plus "..." when the summarizer failed.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	Claims    []string   `json:"claims,omitempty" yaml:"claims,omitempty"`
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`

	// NeedsReview flags the document for human review: corroboration
	// rejected or errored, or QualityScore fell below the configured floor.
	NeedsReview bool `json:"needs_review" yaml:"needs_review"`

	// QualityScore is the weighted completeness score between 0.0 and 1.0.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`
}
