// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries the web search provider (Tavily wire format).
// Discovery plans its query cycles through it; editorial corroboration
// reuses the same client for evidence lookups.
// Implements: prd020-web-search (R1-R2);
//
//	docs/ARCHITECTURE § External Interfaces.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/editorial-engine/internal/httputil"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

// apiBase is the search provider endpoint. Declared as a var so tests can
// substitute an httptest server; config base_url overrides it per client.
var apiBase = "https://api.tavily.com"

// freshnessWindows maps the symbolic recency windows to the provider's
// time_range values. Unknown or empty windows fall back to "month" (R1.3).
var freshnessWindows = map[string]string{
	"1d":   "day",
	"7d":   "week",
	"30d":  "month",
	"365d": "year",
}

const defaultMaxResults = 10

// Options narrows one search call.
type Options struct {
	// MaxResults caps returned hits (<= 0 means 10).
	MaxResults int

	// Freshness is a symbolic recency window: 1d, 7d, 30d, or 365d.
	Freshness string

	// Allow restricts results to these domains when non-empty.
	Allow []string

	// Deny excludes results from these domains.
	Deny []string
}

// Client calls the search provider API (R1.1).
type Client struct {
	base      string
	apiKey    string
	userAgent string
	http      *http.Client
}

// NewClient builds a search client from cfg. The API key is required at
// call time, not here, so a keyless client can still be constructed for
// commands that never search.
func NewClient(cfg types.SearchConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = apiBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:      base,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Search runs one query and returns the provider's hits in rank order.
// Results without a URL are dropped: discovery forwards URLs and nothing
// else, so a hit with no location is unusable (R2.1-R2.2).
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]types.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("search API key not configured")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	payload := searchRequest{
		APIKey:            c.apiKey,
		Query:             query,
		MaxResults:        maxResults,
		SearchDepth:       "advanced",
		IncludeAnswer:     false,
		IncludeRawContent: true,
		TimeRange:         timeRange(opts.Freshness),
		IncludeDomains:    opts.Allow,
		ExcludeDomains:    opts.Deny,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	var hits []types.SearchHit
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		content := r.RawContent
		if content == "" {
			content = r.Content
		}
		hits = append(hits, types.SearchHit{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Content: content,
		})
	}
	return hits, nil
}

// timeRange translates a symbolic freshness window for the wire.
func timeRange(freshness string) string {
	if w, ok := freshnessWindows[freshness]; ok {
		return w
	}
	return "month"
}

// Search provider API JSON structures.
type searchRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	SearchDepth       string   `json:"search_depth"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	TimeRange         string   `json:"time_range,omitempty"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}
