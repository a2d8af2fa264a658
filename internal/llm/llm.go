// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm adapts generative AI providers behind the narrow calls the
// pipeline needs: classification, entity extraction, summarization, claim
// extraction, and embeddings. Providers speak through langchaingo, so the
// wire format (openai, anthropic, ollama) is a config switch, not code.
// Implements: prd019-llm-provider (R1-R4);
//
//	docs/ARCHITECTURE § AI Backends.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

// Per-provider model defaults, applied when config leaves them empty.
const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultOpenAIEmbed    = "text-embedding-3-small"
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	defaultOllamaModel    = "llama3.1"
	defaultOllamaEmbed    = "nomic-embed-text"
	defaultOllamaURL      = "http://localhost:11434"
)

// retryDelay is the pause between retried provider calls. A variable so
// tests can shrink it.
var retryDelay = time.Second

const defaultMaxRetries = 3

// embedderClient is the embeddings surface of a provider. The anthropic API
// has none, so an anthropic Client carries a nil embedder and Embed fails
// with a descriptive error that understanding treats as a degradation.
type embedderClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is the provider-backed AI surface shared by understanding and
// editorial.
type Client struct {
	provider   types.AIProvider
	model      llms.Model
	embedder   embedderClient
	maxRetries int
}

// New constructs a Client for cfg.Provider. An empty provider means openai.
// The openai and anthropic providers require an API key; ollama requires
// only a reachable server (R1.1-R1.3).
func New(cfg types.AIConfig) (*Client, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	provider := cfg.Provider
	if provider == "" {
		provider = types.ProviderOpenAI
	}

	switch provider {
	case types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		embedModel := cfg.EmbedModel
		if embedModel == "" {
			embedModel = defaultOpenAIEmbed
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(model),
			openai.WithEmbeddingModel(embedModel),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing openai provider: %w", err)
		}
		return &Client{provider: provider, model: m, embedder: m, maxRetries: maxRetries}, nil

	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = defaultAnthropicModel
		}
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		m, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing anthropic provider: %w", err)
		}
		return &Client{provider: provider, model: m, maxRetries: maxRetries}, nil

	case types.ProviderOllama:
		base := cfg.BaseURL
		if base == "" {
			base = defaultOllamaURL
		}
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		embedModel := cfg.EmbedModel
		if embedModel == "" {
			embedModel = defaultOllamaEmbed
		}
		m, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(base))
		if err != nil {
			return nil, fmt.Errorf("initializing ollama provider: %w", err)
		}
		emb, err := ollama.New(ollama.WithModel(embedModel), ollama.WithServerURL(base))
		if err != nil {
			return nil, fmt.Errorf("initializing ollama embedder: %w", err)
		}
		return &Client{provider: provider, model: m, embedder: emb, maxRetries: maxRetries}, nil

	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// Classify labels a document from its leading text (R2.1). Fields the model
// leaves empty stay empty; the understanding stage owns the fallbacks.
func (c *Client) Classify(ctx context.Context, text string) (types.Labels, error) {
	prompt, err := renderPrompt(classifyTmpl, classifyData{Text: head(text, classifyTextLimit)})
	if err != nil {
		return types.Labels{}, err
	}

	raw, err := c.generateJSON(ctx, prompt, 1000)
	if err != nil {
		return types.Labels{}, fmt.Errorf("classify: %w", err)
	}

	var out struct {
		DocType      string `json:"doc_type"`
		Language     string `json:"language"`
		Audience     string `json:"audience"`
		Jurisdiction string `json:"jurisdiction"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.Labels{}, fmt.Errorf("classify: decoding labels: %w", err)
	}
	return types.Labels{
		DocType:      out.DocType,
		Language:     out.Language,
		Audience:     out.Audience,
		Jurisdiction: out.Jurisdiction,
	}, nil
}

// ExtractEntities pulls typed entities and their relations from the text
// (R2.2). Edge endpoints are entity names; resolution happens downstream.
func (c *Client) ExtractEntities(ctx context.Context, text string, labels types.Labels) ([]types.Entity, []types.Edge, error) {
	docType := labels.DocType
	if docType == "" {
		docType = "document"
	}
	prompt, err := renderPrompt(nerTmpl, nerData{DocType: docType, Text: head(text, nerTextLimit)})
	if err != nil {
		return nil, nil, err
	}

	raw, err := c.generateJSON(ctx, prompt, 2000)
	if err != nil {
		return nil, nil, fmt.Errorf("entity extraction: %w", err)
	}

	var out struct {
		Entities []struct {
			Name       string  `json:"name"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		} `json:"entities"`
		Relationships []struct {
			Source     string  `json:"source"`
			Target     string  `json:"target"`
			Relation   string  `json:"relation"`
			Confidence float64 `json:"confidence"`
		} `json:"relationships"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("entity extraction: decoding response: %w", err)
	}

	var entities []types.Entity
	for _, e := range out.Entities {
		entities = append(entities, types.Entity{Name: e.Name, Type: e.Type, Confidence: e.Confidence})
	}
	var edges []types.Edge
	for _, r := range out.Relationships {
		edges = append(edges, types.Edge{Source: r.Source, Target: r.Target, Relation: r.Relation, Confidence: r.Confidence})
	}
	return entities, edges, nil
}

// Summarize writes a neutral abstract of at most 180 words, in German when
// the document's language is "de" and in English otherwise (R2.3).
func (c *Client) Summarize(ctx context.Context, text string, labels types.Labels) (string, error) {
	docType := labels.DocType
	if docType == "" {
		docType = "document"
	}
	language := "Write in English"
	if labels.Language == "de" {
		language = "Write in German"
	}
	prompt, err := renderPrompt(summarizeTmpl, summarizeData{
		DocType:             docType,
		LanguageInstruction: language,
		Text:                head(text, summarizeTextLimit),
	})
	if err != nil {
		return "", err
	}

	abstract, err := c.generate(ctx, prompt, 300, 0.1)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return abstract, nil
}

// ExtractClaims pulls up to max atomic, verifiable claims from an abstract
// (R2.4). The model may answer with a bare array or a {"claims": []} object.
func (c *Client) ExtractClaims(ctx context.Context, abstract string, max int) ([]string, error) {
	if max <= 0 {
		max = 10
	}
	prompt, err := renderPrompt(claimsTmpl, claimsData{Max: max, Abstract: abstract})
	if err != nil {
		return nil, err
	}

	raw, err := c.generateJSON(ctx, prompt, 1000)
	if err != nil {
		return nil, fmt.Errorf("claim extraction: %w", err)
	}

	var claims []string
	if err := json.Unmarshal(raw, &claims); err == nil {
		return claims, nil
	}
	var wrapped struct {
		Claims []string `json:"claims"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("claim extraction: decoding response: %w", err)
	}
	return wrapped.Claims, nil
}

// generate runs one prompt through the provider, retrying transport errors
// up to maxRetries times.
func (c *Client) generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
			llms.WithMaxTokens(maxTokens),
			llms.WithTemperature(temperature))
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}

// jsonSegmentRe grabs the outermost JSON object or array from a response
// that wrapped it in prose or code fences.
var jsonSegmentRe = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// generateJSON runs one prompt at temperature zero and returns the JSON
// payload of the response. Models occasionally decorate their output; the
// segment regex recovers the JSON before giving up (R4.1).
func (c *Client) generateJSON(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error) {
	out, err := c.generate(ctx, prompt+"\n\nReturn valid JSON only.", maxTokens, 0.0)
	if err != nil {
		return nil, err
	}

	var probe any
	if err := json.Unmarshal([]byte(out), &probe); err == nil {
		return json.RawMessage(out), nil
	}
	if segment := jsonSegmentRe.FindString(out); segment != "" {
		if err := json.Unmarshal([]byte(segment), &probe); err == nil {
			return json.RawMessage(segment), nil
		}
	}
	return nil, fmt.Errorf("could not parse JSON from model response: %.200s", out)
}
