// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kstore persists processed documents into the downstream
// knowledge store. Implements: prd018-knowledge-store (R1-R6);
//
//	docs/ARCHITECTURE.md § Knowledge Store.
//
// Two backends share the Store interface: Client speaks the store's HTTP
// API and PGStore writes straight into Postgres/pgvector. The backend is
// selected by configuration (R1.1); the HTTP API is the default.
package kstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/httputil"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	defaultSearchK = 20
)

// Store is the persistence contract used by ingestion, reembedding, and
// the query CLI. Both backends implement it; callers never see which one
// they got.
type Store interface {
	// EnsureCollection creates the named collection when the store does
	// not have it yet. Safe to call repeatedly (R3.1).
	EnsureCollection(ctx context.Context, name string) error

	// UpsertDocument writes doc into collection and returns the store's
	// document ID (R3.2).
	UpsertDocument(ctx context.Context, collection string, doc types.Document) (string, error)

	// UpsertGraph merges the document's entities and edges into the
	// collection's knowledge graph (R3.4).
	UpsertGraph(ctx context.Context, collection string, entities []types.Entity, edges []types.Edge) error

	// Reindex rebuilds the search indexes for one stored document (R3.3).
	Reindex(ctx context.Context, docID string) error

	// GetDocument fetches a stored document by its store ID (R4.1).
	GetDocument(ctx context.Context, id string) (types.Document, error)

	// UpdateDocument overwrites the stored document's fields (R4.2).
	UpdateDocument(ctx context.Context, id string, doc types.Document) error

	// SearchDocuments runs a hybrid search over collection, returning at
	// most k hits in descending score order (R5.1).
	SearchDocuments(ctx context.Context, collection, query string, k int) ([]SearchResult, error)

	// Close releases backend resources.
	Close() error
}

// SearchResult is one hit returned by SearchDocuments.
type SearchResult struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
	SourceURL string  `json:"source_url"`
	Citations int     `json:"citations"`
}

// New builds the configured Store: the HTTP client by default, the
// Postgres backend when selected (R1.1).
func New(ctx context.Context, cfg types.KnowledgeConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", types.KnowledgeAPI:
		return NewClient(cfg, log)
	case types.KnowledgePostgres:
		return NewPGStore(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown knowledge backend %q", cfg.Backend)
	}
}

// Client talks to the knowledge store's HTTP API (R2.1-R2.3). All calls
// authenticate with a bearer token and retry transient upstream failures.
type Client struct {
	base      string
	apiKey    string
	userAgent string
	http      *http.Client
	log       *zap.Logger
}

// NewClient builds the HTTP-API store client from configuration.
func NewClient(cfg types.KnowledgeConfig, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("knowledge store base URL not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}, nil
}

// EnsureCollection lists the store's collections and creates name when it
// is missing (R3.1). A conflict response from a concurrent creator counts
// as success.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("empty collection name")
	}

	var existing []apiCollection
	if err := c.do(ctx, http.MethodGet, "/v1/collections", nil, &existing); err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, col := range existing {
		if col.Name == name {
			return nil
		}
	}

	payload := apiCollection{Name: name, Description: "Auto-created collection for " + name}
	err := c.do(ctx, http.MethodPost, "/v1/collections", payload, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", name, err)
	}
	c.log.Info("created collection", zap.String("collection", name))
	return nil
}

// UpsertDocument writes doc into collection and returns the store's ID
// (R3.2). Chunks go out as {id: "c<n>", text, order} tuples, 1-indexed in
// source order.
func (c *Client) UpsertDocument(ctx context.Context, collection string, doc types.Document) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/documents/", toAPIDocument(collection, doc), &created); err != nil {
		return "", fmt.Errorf("upserting document %q: %w", doc.CanonicalURL, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("store returned no document ID for %q", doc.CanonicalURL)
	}
	return created.ID, nil
}

// UpsertGraph merges entities and edges into the collection's graph via a
// Cypher MERGE batch (R3.4). Documents without a graph fragment are a
// no-op; edges whose endpoints are missing from entities are dropped.
func (c *Client) UpsertGraph(ctx context.Context, collection string, entities []types.Entity, edges []types.Edge) error {
	cypher := buildCypher(entities, edges)
	if cypher == "" {
		return nil
	}
	payload := graphRequest{Collection: collection, Cypher: cypher}
	if err := c.do(ctx, http.MethodPost, "/v1/graph/query", payload, nil); err != nil {
		return fmt.Errorf("graph upsert: %w", err)
	}
	return nil
}

// Reindex rebuilds the search indexes for one stored document (R3.3).
func (c *Client) Reindex(ctx context.Context, docID string) error {
	if err := c.do(ctx, http.MethodPost, "/v1/documents/"+docID+"/reindex", nil, nil); err != nil {
		return fmt.Errorf("reindexing %s: %w", docID, err)
	}
	return nil
}

// GetDocument fetches a stored document by its store ID (R4.1). The store
// keeps no full body text; the returned document carries chunks instead.
func (c *Client) GetDocument(ctx context.Context, id string) (types.Document, error) {
	var got apiDocument
	if err := c.do(ctx, http.MethodGet, "/v1/documents/"+id, nil, &got); err != nil {
		return types.Document{}, fmt.Errorf("fetching document %s: %w", id, err)
	}
	return got.toDocument(), nil
}

// UpdateDocument patches the stored document with doc's fields (R4.2).
func (c *Client) UpdateDocument(ctx context.Context, id string, doc types.Document) error {
	if err := c.do(ctx, http.MethodPatch, "/v1/documents/"+id, toAPIDocument("", doc), nil); err != nil {
		return fmt.Errorf("updating document %s: %w", id, err)
	}
	return nil
}

// SearchDocuments runs a hybrid search over collection (R5.1). k caps the
// result count; 0 means the store default (20).
func (c *Client) SearchDocuments(ctx context.Context, collection, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = defaultSearchK
	}
	payload := searchRequest{
		Collection: collection,
		Query:      query,
		K:          k,
		Hybrid:     true,
		Return:     []string{"title", "snippet", "score", "citations", "source_url"},
	}
	var sr searchResponse
	if err := c.do(ctx, http.MethodPost, "/v1/search", payload, &sr); err != nil {
		return nil, fmt.Errorf("searching %q: %w", collection, err)
	}
	return sr.Results, nil
}

// Close implements Store; the HTTP client holds no resources.
func (c *Client) Close() error { return nil }

// do sends one JSON API request and decodes the response into out when
// out is non-nil. Non-2xx responses become an *apiError carrying a body
// snippet for the logs.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   string(bytes.TrimSpace(snippet)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s %s response: %w", method, path, err)
	}
	return nil
}

// buildCypher renders MERGE statements for one document's graph fragment:
// one node per entity, one relation per resolvable edge. Entity names are
// the join key; edges referencing an unknown name are dropped. Duplicate
// names resolve to their first occurrence.
func buildCypher(entities []types.Entity, edges []types.Edge) string {
	if len(entities) == 0 && len(edges) == 0 {
		return ""
	}

	index := make(map[string]int, len(entities))
	var parts []string
	for i, ent := range entities {
		if _, ok := index[ent.Name]; !ok {
			index[ent.Name] = i
		}
		typ := cypherIdent(ent.Type)
		if typ == "" {
			typ = "Entity"
		}
		parts = append(parts, fmt.Sprintf("MERGE (n%d:%s {name: '%s'})", i, typ, cypherString(ent.Name)))
	}
	for _, edge := range edges {
		src, ok := index[edge.Source]
		if !ok {
			continue
		}
		dst, ok := index[edge.Target]
		if !ok {
			continue
		}
		rel := cypherIdent(edge.Relation)
		if rel == "" {
			rel = "RELATED_TO"
		}
		parts = append(parts, fmt.Sprintf("MERGE (n%d)-[:%s]->(n%d)", src, rel, dst))
	}
	return strings.Join(parts, " ")
}

// cypherString escapes a value for a single-quoted Cypher string literal.
func cypherString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// cypherIdent strips everything outside [A-Za-z0-9_] so node labels and
// relation types cannot break out of the statement.
func cypherIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// apiError is a non-2xx response from the store API. EnsureCollection
// inspects Status to tolerate creation conflicts.
type apiError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *apiError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("knowledge store %s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("knowledge store %s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// API wire structures. Field names follow the store's JSON contract; the
// full body text never crosses this boundary, only chunks do.

type apiCollection struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type apiChunk struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type apiDocument struct {
	Collection   string            `json:"collection,omitempty"`
	Title        string            `json:"title"`
	SourceURL    string            `json:"source_url"`
	CanonicalURL string            `json:"canonical_url,omitempty"`
	Language     string            `json:"language,omitempty"`
	DocType      string            `json:"doc_type,omitempty"`
	Abstract     string            `json:"abstract,omitempty"`
	ContentHash  string            `json:"content_hash,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	Chunks       []apiChunk        `json:"chunks"`
	Entities     []types.Entity    `json:"entities"`
	Citations    []types.Citation  `json:"citations"`
	Metadata     map[string]string `json:"metadata"`
}

type searchRequest struct {
	Collection string   `json:"collection"`
	Query      string   `json:"query"`
	K          int      `json:"k"`
	Hybrid     bool     `json:"hybrid"`
	Return     []string `json:"return,omitempty"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type graphRequest struct {
	Collection string `json:"collection"`
	Cypher     string `json:"cypher"`
}

func toAPIDocument(collection string, doc types.Document) apiDocument {
	chunks := make([]apiChunk, 0, len(doc.Chunks))
	for i, text := range doc.Chunks {
		chunks = append(chunks, apiChunk{ID: fmt.Sprintf("c%d", i+1), Text: text, Order: i + 1})
	}
	return apiDocument{
		Collection:   collection,
		Title:        doc.Title,
		SourceURL:    doc.URL,
		CanonicalURL: doc.CanonicalURL,
		Language:     doc.Labels.Language,
		DocType:      doc.Labels.DocType,
		Abstract:     doc.Abstract,
		ContentHash:  doc.ContentHash,
		FetchedAt:    doc.FetchedAt,
		Chunks:       chunks,
		Entities:     doc.Entities,
		Citations:    doc.Citations,
		Metadata:     doc.Metadata,
	}
}

func (d apiDocument) toDocument() types.Document {
	ordered := append([]apiChunk(nil), d.Chunks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	chunks := make([]string, 0, len(ordered))
	for _, ch := range ordered {
		chunks = append(chunks, ch.Text)
	}

	doc := types.Document{
		Version:      types.SchemaVersion,
		URL:          d.SourceURL,
		CanonicalURL: d.CanonicalURL,
		ContentHash:  d.ContentHash,
		Title:        d.Title,
		Metadata:     d.Metadata,
		FetchedAt:    d.FetchedAt,
		Entities:     d.Entities,
		Citations:    d.Citations,
		Chunks:       chunks,
		Abstract:     d.Abstract,
	}
	doc.Labels.Language = d.Language
	doc.Labels.DocType = d.DocType
	return doc
}
