// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

const defaultVectorDim = 768

// PGStore writes documents straight into Postgres with pgvector chunk
// embeddings (R6.1-R6.4). The schema is this backend's private format,
// created on startup when missing; it is not a contract with anything
// else.
type PGStore struct {
	pool *pgxpool.Pool
	dim  int
	log  *zap.Logger
}

// NewPGStore connects to Postgres, enables the vector extension, and
// creates the schema when missing (R6.1).
func NewPGStore(ctx context.Context, cfg types.KnowledgeConfig, log *zap.Logger) (*PGStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not configured")
	}
	dim := cfg.VectorDim
	if dim <= 0 {
		dim = defaultVectorDim
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &PGStore{pool: pool, dim: dim, log: log}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL REFERENCES collections(name),
			title TEXT,
			source_url TEXT,
			canonical_url TEXT,
			language TEXT,
			doc_type TEXT,
			abstract TEXT,
			content_hash TEXT UNIQUE,
			needs_review BOOLEAN NOT NULL DEFAULT FALSE,
			quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			fetched_at TIMESTAMPTZ,
			entities JSONB,
			citations JSONB,
			metadata JSONB
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			body TEXT NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (doc_id, ord)
		)`, s.dim),
		`CREATE TABLE IF NOT EXISTS graph_nodes (
			collection TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT,
			confidence DOUBLE PRECISION,
			PRIMARY KEY (collection, name)
		)`,
		`CREATE TABLE IF NOT EXISTS graph_edges (
			collection TEXT NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			relation TEXT NOT NULL,
			confidence DOUBLE PRECISION,
			PRIMARY KEY (collection, source, target, relation)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// EnsureCollection registers name; an existing row is left alone (R3.1).
func (s *PGStore) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("empty collection name")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO collections (name, description) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, "Auto-created collection for "+name)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", name, err)
	}
	return nil
}

// UpsertDocument writes the document row and replaces its chunks in one
// transaction (R3.2). The content hash is the upsert key: re-ingesting
// the same text keeps the existing store ID.
func (s *PGStore) UpsertDocument(ctx context.Context, collection string, doc types.Document) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entities, _ := json.Marshal(doc.Entities)
	citations, _ := json.Marshal(doc.Citations)
	metadata, _ := json.Marshal(doc.Metadata)

	id := uuid.NewString()
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (id, collection, title, source_url, canonical_url,
			language, doc_type, abstract, content_hash, needs_review,
			quality_score, fetched_at, entities, citations, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (content_hash) DO UPDATE SET
			collection = EXCLUDED.collection,
			title = EXCLUDED.title,
			source_url = EXCLUDED.source_url,
			canonical_url = EXCLUDED.canonical_url,
			language = EXCLUDED.language,
			doc_type = EXCLUDED.doc_type,
			abstract = EXCLUDED.abstract,
			needs_review = EXCLUDED.needs_review,
			quality_score = EXCLUDED.quality_score,
			fetched_at = EXCLUDED.fetched_at,
			entities = EXCLUDED.entities,
			citations = EXCLUDED.citations,
			metadata = EXCLUDED.metadata
		 RETURNING id`,
		id, collection, doc.Title, doc.URL, doc.CanonicalURL,
		doc.Labels.Language, doc.Labels.DocType, doc.Abstract, doc.ContentHash,
		doc.NeedsReview, doc.QualityScore, doc.FetchedAt,
		entities, citations, metadata,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting document %q: %w", doc.CanonicalURL, err)
	}

	if err := replaceChunks(ctx, tx, id, doc); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// UpsertGraph merges entities and edges into the collection-wide graph
// tables (R3.4). Same semantics as the API backend's Cypher MERGE: nodes
// keyed by name, edges dropped when an endpoint is unknown.
func (s *PGStore) UpsertGraph(ctx context.Context, collection string, entities []types.Entity, edges []types.Edge) error {
	if len(entities) == 0 && len(edges) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	known := make(map[string]bool, len(entities))
	for _, ent := range entities {
		known[ent.Name] = true
		_, err := tx.Exec(ctx,
			`INSERT INTO graph_nodes (collection, name, type, confidence)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (collection, name) DO UPDATE SET
				type = EXCLUDED.type, confidence = EXCLUDED.confidence`,
			collection, ent.Name, ent.Type, ent.Confidence)
		if err != nil {
			return fmt.Errorf("merging node %q: %w", ent.Name, err)
		}
	}
	for _, edge := range edges {
		if !known[edge.Source] || !known[edge.Target] {
			continue
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO graph_edges (collection, source, target, relation, confidence)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (collection, source, target, relation) DO UPDATE SET
				confidence = EXCLUDED.confidence`,
			collection, edge.Source, edge.Target, edge.Relation, edge.Confidence)
		if err != nil {
			return fmt.Errorf("merging edge %q->%q: %w", edge.Source, edge.Target, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Reindex refreshes planner statistics over the chunks table (R3.3). The
// ivfflat index itself picks up new rows on write; ANALYZE keeps bulk
// loads from skewing query plans.
func (s *PGStore) Reindex(ctx context.Context, docID string) error {
	if _, err := s.pool.Exec(ctx, `ANALYZE chunks`); err != nil {
		return fmt.Errorf("reindexing %s: %w", docID, err)
	}
	return nil
}

// GetDocument fetches one document row and its ordered chunks (R4.1).
func (s *PGStore) GetDocument(ctx context.Context, id string) (types.Document, error) {
	var doc types.Document
	var entities, citations, metadata []byte
	err := s.pool.QueryRow(ctx,
		`SELECT title, source_url, canonical_url, language, doc_type, abstract,
			content_hash, needs_review, quality_score, fetched_at,
			entities, citations, metadata
		 FROM documents WHERE id = $1`, id).
		Scan(&doc.Title, &doc.URL, &doc.CanonicalURL, &doc.Labels.Language,
			&doc.Labels.DocType, &doc.Abstract, &doc.ContentHash,
			&doc.NeedsReview, &doc.QualityScore, &doc.FetchedAt,
			&entities, &citations, &metadata)
	if err != nil {
		return types.Document{}, fmt.Errorf("fetching document %s: %w", id, err)
	}

	doc.Version = types.SchemaVersion
	if len(entities) > 0 {
		_ = json.Unmarshal(entities, &doc.Entities)
	}
	if len(citations) > 0 {
		_ = json.Unmarshal(citations, &doc.Citations)
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &doc.Metadata)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT body FROM chunks WHERE doc_id = $1 ORDER BY ord`, id)
	if err != nil {
		return types.Document{}, fmt.Errorf("fetching chunks for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return types.Document{}, fmt.Errorf("scanning chunk: %w", err)
		}
		doc.Chunks = append(doc.Chunks, body)
	}
	if err := rows.Err(); err != nil {
		return types.Document{}, fmt.Errorf("reading chunks for %s: %w", id, err)
	}
	return doc, nil
}

// UpdateDocument overwrites the document row's mutable fields and
// replaces its chunks (R4.2). Collection and content hash stay put.
func (s *PGStore) UpdateDocument(ctx context.Context, id string, doc types.Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entities, _ := json.Marshal(doc.Entities)
	citations, _ := json.Marshal(doc.Citations)
	metadata, _ := json.Marshal(doc.Metadata)

	ct, err := tx.Exec(ctx,
		`UPDATE documents SET
			title = $2, source_url = $3, canonical_url = $4, language = $5,
			doc_type = $6, abstract = $7, needs_review = $8, quality_score = $9,
			entities = $10, citations = $11, metadata = $12
		 WHERE id = $1`,
		id, doc.Title, doc.URL, doc.CanonicalURL, doc.Labels.Language,
		doc.Labels.DocType, doc.Abstract, doc.NeedsReview, doc.QualityScore,
		entities, citations, metadata)
	if err != nil {
		return fmt.Errorf("updating document %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("document %s not found", id)
	}

	if err := replaceChunks(ctx, tx, id, doc); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SearchDocuments ranks chunks by text relevance and returns the best
// chunk per document (R5.1). Rank is text-only here: scoring by vector
// similarity would need a query embedding, which this layer does not
// have.
func (s *PGStore) SearchDocuments(ctx context.Context, collection, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = defaultSearchK
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, snippet, score, source_url, citations FROM (
			SELECT DISTINCT ON (d.id)
				d.id, d.title, LEFT(c.body, 200) AS snippet,
				ts_rank(to_tsvector('simple', c.body),
					plainto_tsquery('simple', $2)) AS score,
				d.source_url,
				jsonb_array_length(coalesce(d.citations, '[]'::jsonb)) AS citations
			FROM documents d
			JOIN chunks c ON c.doc_id = d.id
			WHERE d.collection = $1
			  AND to_tsvector('simple', c.body) @@ plainto_tsquery('simple', $2)
			ORDER BY d.id, score DESC
		 ) ranked
		 ORDER BY score DESC
		 LIMIT $3`,
		collection, query, k)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", collection, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Score, &r.SourceURL, &r.Citations); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return results, nil
}

// replaceChunks deletes and reinserts the document's chunks inside tx.
// Embeddings are stored when present and NULL otherwise; a chunk is never
// zero-filled.
func replaceChunks(ctx context.Context, tx pgx.Tx, id string, doc types.Document) error {
	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, id); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}
	for i, text := range doc.Chunks {
		var embedding any
		if i < len(doc.Vectors) && len(doc.Vectors[i]) > 0 {
			embedding = pgvector.NewVector(doc.Vectors[i])
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (doc_id, chunk_id, ord, body, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, fmt.Sprintf("c%d", i+1), i+1, text, embedding)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i+1, err)
		}
	}
	return nil
}
