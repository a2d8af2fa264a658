// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "EditorialEngine/1.0"). Per prd011-intake R3.2, robots.txt
	// checks use the same agent string.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig holds settings for the discovery stage.
// Per prd010-discovery R1.1-R1.6, R5.1.
type DiscoveryConfig struct {
	// Queries are search query templates. A "{topic}" placeholder expands
	// against Topics (or the built-in default set when Topics is empty);
	// templates without the placeholder pass through unchanged.
	Queries []string `json:"queries" yaml:"queries"`

	// MaxResults is the per-query result cap passed to the provider (default 25).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Freshness is a symbolic recency window: 1d, 7d, 30d, or 365d (default 30d).
	Freshness string `json:"freshness" yaml:"freshness"`

	// Allowlist restricts results to these domains when non-empty.
	Allowlist []string `json:"allowlist,omitempty" yaml:"allowlist,omitempty"`

	// Denylist excludes results from these domains.
	Denylist []string `json:"denylist,omitempty" yaml:"denylist,omitempty"`

	// Interval is the period of the serve-mode discovery timer (0 disables
	// periodic runs; cycles are then triggered through the control plane).
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// IntakeConfig holds settings for the intake stage.
// Per prd011-intake R3.1-R3.5, R5.2.
type IntakeConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchDelay paces consecutive fetches for politeness (default 1s).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// MinTextChars rejects extracted documents shorter than this (default 100).
	MinTextChars int `json:"min_text_chars" yaml:"min_text_chars"`

	// PdftotextPath is the external PDF-to-text binary (default "pdftotext").
	PdftotextPath string `json:"pdftotext_path" yaml:"pdftotext_path"`
}

// DedupBackend selects the dedup store implementation.
// Per prd012-dedup R4.1.
type DedupBackend string

const (
	DedupMemory DedupBackend = "memory"
	DedupSQLite DedupBackend = "sqlite"
)

// DedupConfig holds settings for the dedup store.
// Per prd012-dedup R4.1-R4.3.
type DedupConfig struct {
	// Backend selects the store: memory (single process) or sqlite.
	Backend DedupBackend `json:"backend" yaml:"backend"`

	// Path is the SQLite database file (sqlite backend only).
	Path string `json:"path" yaml:"path"`

	// Retention expires seen entries after this duration; 0 keeps them
	// forever.
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// ChunkStrategy selects the chunking algorithm.
// Per prd013-chunking R1.1, R6.1.
type ChunkStrategy string

const (
	ChunkHeadings  ChunkStrategy = "headings"
	ChunkSentences ChunkStrategy = "sentences"
)

// UnderstandingConfig holds settings for the understanding stage.
// Per prd014-understanding R5.1-R5.4.
type UnderstandingConfig struct {
	// ChunkStrategy selects the chunker: headings (default) or sentences.
	ChunkStrategy ChunkStrategy `json:"chunk_strategy" yaml:"chunk_strategy"`

	// TargetTokens is the per-chunk token budget (default 500).
	TargetTokens int `json:"target_tokens" yaml:"target_tokens"`

	// OverlapTokens is the inter-chunk overlap for the sentences strategy.
	OverlapTokens int `json:"overlap_tokens" yaml:"overlap_tokens"`

	// KeepHeadings retains heading marker lines with their sections.
	KeepHeadings bool `json:"keep_headings" yaml:"keep_headings"`
}

// EditorialConfig holds settings for the editorial stage.
// Per prd015-editorial R2.2, R4.1-R4.4.
type EditorialConfig struct {
	// MaxClaims caps the claims extracted from one abstract (default 10).
	MaxClaims int `json:"max_claims" yaml:"max_claims"`

	// RequiredCitations is the per-claim evidence threshold (default 2).
	RequiredCitations int `json:"required_citations" yaml:"required_citations"`

	// MinAcceptRatio is the verified-claims ratio that accepts a document
	// (default 0.8).
	MinAcceptRatio float64 `json:"min_accept_ratio" yaml:"min_accept_ratio"`

	// QualityFloor flags documents scoring below it for review (default 0.7).
	QualityFloor float64 `json:"quality_floor" yaml:"quality_floor"`
}

// IngestionConfig holds settings for the ingestion stage.
// Per prd016-ingestion R1.1.
type IngestionConfig struct {
	// Collection is the target knowledge-store collection (required).
	Collection string `json:"collection" yaml:"collection"`
}

// AIProvider identifies the LLM provider wire format.
// Per prd019-llm-provider R1.1.
type AIProvider string

const (
	ProviderOpenAI    AIProvider = "openai"
	ProviderAnthropic AIProvider = "anthropic"
	ProviderOllama    AIProvider = "ollama"
)

// AIConfig holds shared settings for stages that call a generative AI API.
// Per prd019-llm-provider R1.1-R1.4.
type AIConfig struct {
	// Provider selects the wire format: openai, anthropic, or ollama.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the generation model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// EmbedModel is the embedding model identifier (e.g. "nomic-embed-text").
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// BaseURL overrides the provider endpoint (required for ollama).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the web search provider client.
// Per prd020-web-search R1.1-R1.3.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the search API endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the authentication key for the search API (required).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// KnowledgeBackend selects the knowledge store client.
// Per prd018-knowledge-store R1.1.
type KnowledgeBackend string

const (
	KnowledgeAPI      KnowledgeBackend = "api"
	KnowledgePostgres KnowledgeBackend = "postgres"
)

// KnowledgeConfig holds settings for the downstream knowledge store.
// Per prd018-knowledge-store R1.1-R1.5.
type KnowledgeConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the store client: api (HTTP) or postgres (pgvector).
	Backend KnowledgeBackend `json:"backend" yaml:"backend"`

	// BaseURL is the store API endpoint (api backend only).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the authentication key for the store API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DSN is the Postgres connection string (postgres backend only).
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// VectorDim is the embedding dimensionality (postgres backend, default 768).
	VectorDim int `json:"vector_dim" yaml:"vector_dim"`
}

// WorkersConfig sets the per-stage worker pool sizes.
// Per prd017-dispatch R2.1.
type WorkersConfig struct {
	Discovery     int `json:"discovery" yaml:"discovery"`
	Intake        int `json:"intake" yaml:"intake"`
	Understanding int `json:"understanding" yaml:"understanding"`
	Editorial     int `json:"editorial" yaml:"editorial"`
	Ingestion     int `json:"ingestion" yaml:"ingestion"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	// Topics expand "{topic}" query templates (default: built-in set of 5).
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	Discovery     DiscoveryConfig     `json:"discovery" yaml:"discovery"`
	Intake        IntakeConfig        `json:"intake" yaml:"intake"`
	Dedup         DedupConfig         `json:"dedup" yaml:"dedup"`
	Understanding UnderstandingConfig `json:"understanding" yaml:"understanding"`
	Editorial     EditorialConfig     `json:"editorial" yaml:"editorial"`
	Ingestion     IngestionConfig     `json:"ingestion" yaml:"ingestion"`
	AI            AIConfig            `json:"ai" yaml:"ai"`
	Search        SearchConfig        `json:"search" yaml:"search"`
	Knowledge     KnowledgeConfig     `json:"knowledge" yaml:"knowledge"`
	Workers       WorkersConfig       `json:"workers" yaml:"workers"`

	// QueueSize bounds each stage queue (default 256).
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// Listen is the control-plane address (default ":8087").
	Listen string `json:"listen" yaml:"listen"`
}
