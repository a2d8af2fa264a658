// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery expands configured query templates against topics and
// seeds the intake stage with every URL the web search returns.
// Implements: prd010-discovery (R1-R3);
//
//	docs/ARCHITECTURE § Discovery.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/websearch"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

// defaultMaxResults is the per-query result cap when the config leaves it
// unset.
const defaultMaxResults = 25

// defaultTopics expand {topic} templates when no topics are configured.
var defaultTopics = []string{"technology", "science", "policy", "regulation", "guidelines"}

// Searcher runs one web search query. *websearch.Client is the production
// implementation.
type Searcher interface {
	Search(ctx context.Context, query string, opts websearch.Options) ([]types.SearchHit, error)
}

// EnqueueFunc forwards one unit to the queue layer.
type EnqueueFunc func(ctx context.Context, u pipeline.Unit) error

// Planner turns discovery configuration into intake units: expand templates,
// search each query, forward every hit URL.
type Planner struct {
	search  Searcher
	enqueue EnqueueFunc
	cfg     types.DiscoveryConfig
	topics  []string
	log     *zap.Logger
}

// NewPlanner wires a planner over the given searcher and enqueue path.
// topics come from the vertical config; empty means the default topic set.
func NewPlanner(search Searcher, enqueue EnqueueFunc, cfg types.DiscoveryConfig, topics []string, log *zap.Logger) *Planner {
	return &Planner{
		search:  search,
		enqueue: enqueue,
		cfg:     cfg,
		topics:  topics,
		log:     log,
	}
}

// PlanResult summarizes one discovery cycle.
type PlanResult struct {
	Queries  int
	Failed   int
	Found    int
	Enqueued int
}

// HasFailures reports whether any query failed.
func (r PlanResult) HasFailures() bool {
	return r.Failed > 0
}

// ExpandQueries expands {topic} placeholders in each template against the
// topic list (R1.1). Templates without the placeholder pass through
// unchanged; an empty topic list expands against the default set.
func ExpandQueries(templates, topics []string) []string {
	if len(topics) == 0 {
		topics = defaultTopics
	}
	var queries []string
	for _, tmpl := range templates {
		if strings.Contains(tmpl, "{topic}") {
			for _, topic := range topics {
				queries = append(queries, strings.ReplaceAll(tmpl, "{topic}", topic))
			}
		} else {
			queries = append(queries, tmpl)
		}
	}
	return queries
}

// Plan runs one full discovery cycle: every expanded query is searched and
// every hit URL becomes an intake unit (R2.1-R2.3). A failed query is
// logged and skipped; the cycle only errors when no query succeeded (then
// transiently, so the dispatcher retries it) or when the queue itself
// refuses units.
func (p *Planner) Plan(ctx context.Context) (PlanResult, error) {
	queries := ExpandQueries(p.cfg.Queries, p.topics)
	result := PlanResult{Queries: len(queries)}
	if len(queries) == 0 {
		p.log.Warn("discovery has no queries configured")
		return result, nil
	}

	for _, query := range queries {
		hits, err := p.searchQuery(ctx, query)
		if err != nil {
			p.log.Warn("discovery query failed",
				zap.String("query", query),
				zap.Error(err))
			result.Failed++
			continue
		}
		p.log.Info("discovery query done",
			zap.String("query", query),
			zap.Int("results", len(hits)))
		if err := p.forward(ctx, hits, &result); err != nil {
			return result, err
		}
	}

	if result.Failed == result.Queries {
		return result, pipeline.Transient(fmt.Errorf("all %d discovery queries failed", result.Queries))
	}
	p.log.Info("discovery cycle complete",
		zap.Int("queries", result.Queries),
		zap.Int("failed", result.Failed),
		zap.Int("enqueued", result.Enqueued))
	return result, nil
}

// SearchOne runs a single ad-hoc query through the same search and forward
// path (R3.1). Used by the discover CLI command and the control plane.
func (p *Planner) SearchOne(ctx context.Context, query string) (PlanResult, error) {
	result := PlanResult{Queries: 1}
	hits, err := p.searchQuery(ctx, query)
	if err != nil {
		result.Failed = 1
		return result, pipeline.Transient(fmt.Errorf("search %q: %w", query, err))
	}
	if err := p.forward(ctx, hits, &result); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Planner) searchQuery(ctx context.Context, query string) ([]types.SearchHit, error) {
	maxResults := p.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return p.search.Search(ctx, query, websearch.Options{
		MaxResults: maxResults,
		Freshness:  p.cfg.Freshness,
		Allow:      p.cfg.Allowlist,
		Deny:       p.cfg.Denylist,
	})
}

// forward enqueues one intake unit per hit with a non-empty URL. Enqueue
// failures abort the cycle: they mean the queue is closed or the context is
// gone, not that one URL is bad.
func (p *Planner) forward(ctx context.Context, hits []types.SearchHit, result *PlanResult) error {
	for _, hit := range hits {
		if hit.URL == "" {
			continue
		}
		result.Found++
		if err := p.enqueue(ctx, pipeline.NewIntakeUnit(hit.URL)); err != nil {
			return fmt.Errorf("enqueueing intake unit: %w", err)
		}
		result.Enqueued++
	}
	return nil
}
