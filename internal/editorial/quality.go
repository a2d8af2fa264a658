// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editorial

import "github.com/pdiddy/editorial-engine/pkg/types"

const defaultQualityFloor = 0.7

// Quality score weights. Text length dominates; title, abstract, entities,
// and citations split the rest.
const (
	weightText      = 0.3
	weightTitle     = 0.2
	weightAbstract  = 0.2
	weightEntities  = 0.15
	weightCitations = 0.15

	// fullTextChars is the text length earning the full text weight;
	// shorter texts earn a pro-rated share.
	fullTextChars = 500

	minTitleChars    = 5
	minAbstractChars = 50
)

// Score computes the weighted quality score for doc in [0, 1] and lists
// what is missing. A fully populated document scores 1.0.
func Score(doc types.Document) (float64, []string) {
	var score float64
	var issues []string

	if n := len(doc.Text); n >= fullTextChars {
		score += weightText
	} else {
		score += weightText * float64(n) / fullTextChars
		issues = append(issues, "text shorter than baseline")
	}

	if len(doc.Title) > minTitleChars {
		score += weightTitle
	} else {
		issues = append(issues, "missing or poor title")
	}

	if len(doc.Abstract) > minAbstractChars {
		score += weightAbstract
	} else {
		issues = append(issues, "missing or poor abstract")
	}

	if len(doc.Entities) > 0 {
		score += weightEntities
	} else {
		issues = append(issues, "no entities extracted")
	}

	if len(doc.Citations) > 0 {
		score += weightCitations
	} else {
		issues = append(issues, "no citations found")
	}

	return score, issues
}
