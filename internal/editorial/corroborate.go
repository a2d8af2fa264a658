// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editorial

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/websearch"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

const (
	defaultRequiredCitations = 2
	defaultMinAcceptRatio    = 0.8

	// evidenceResults is how many hits each claim's evidence search asks
	// for.
	evidenceResults = 5

	// snippetChars bounds the citation snippet length.
	snippetChars = 200
)

// Searcher issues evidence queries. *websearch.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, opts websearch.Options) ([]types.SearchHit, error)
}

// Corroborator verifies claims by lexical containment: a hit supports a
// claim when the hit's content contains the claim text case-insensitively.
// Coarse on purpose; it catches restated claims, not paraphrases.
type Corroborator struct {
	search   Searcher
	required int
	ratio    float64
	log      *zap.Logger
}

// NewCorroborator wires a corroborator over the given searcher.
// cfg.RequiredCitations and cfg.MinAcceptRatio fall back to 2 and 0.8.
func NewCorroborator(search Searcher, cfg types.EditorialConfig, log *zap.Logger) *Corroborator {
	required := cfg.RequiredCitations
	if required <= 0 {
		required = defaultRequiredCitations
	}
	ratio := cfg.MinAcceptRatio
	if ratio <= 0 {
		ratio = defaultMinAcceptRatio
	}
	return &Corroborator{search: search, required: required, ratio: ratio, log: log}
}

// Corroborate searches for evidence of each claim (R4.1-R4.4). A claim is
// verified when at least `required` hits contain it; the returned citations
// carry up to `required` supporting hits per verified claim. The whole set
// is accepted when the verified share reaches the configured ratio. Any
// search failure fails the run: partial evidence must not pass as a
// verdict.
func (c *Corroborator) Corroborate(ctx context.Context, claims []string) (bool, []types.Citation, error) {
	var citations []types.Citation
	verified := 0

	for _, claim := range claims {
		hits, err := c.search.Search(ctx, claim, websearch.Options{MaxResults: evidenceResults})
		if err != nil {
			return false, nil, fmt.Errorf("evidence search for claim %.80q: %w", claim, err)
		}

		supporting := matchHits(claim, hits)
		if len(supporting) >= c.required {
			verified++
			citations = append(citations, supporting[:c.required]...)
		}
		c.log.Debug("claim checked",
			zap.String("claim", claim),
			zap.Int("hits", len(hits)),
			zap.Int("supporting", len(supporting)))
	}

	accepted := float64(verified) >= float64(len(claims))*c.ratio
	return accepted, citations, nil
}

// matchHits returns one citation per hit whose content contains the claim.
func matchHits(claim string, hits []types.SearchHit) []types.Citation {
	needle := strings.ToLower(claim)
	var supporting []types.Citation
	for _, hit := range hits {
		if hit.Content == "" || !strings.Contains(strings.ToLower(hit.Content), needle) {
			continue
		}
		supporting = append(supporting, types.Citation{
			Claim:   claim,
			URL:     hit.URL,
			Title:   hit.Title,
			Snippet: snippet(hit.Content),
		})
	}
	return supporting
}

// snippet truncates content to snippetChars with an ellipsis marker.
func snippet(content string) string {
	if len(content) <= snippetChars {
		return content + "..."
	}
	cut := snippetChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
