// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunker splits document text into token-budgeted segments for
// embedding and retrieval. Both strategies are pure and deterministic.
// Implements: prd013-chunking (R1-R4);
//
//	docs/ARCHITECTURE § Chunking.
package chunker

import (
	"regexp"
	"strings"
)

// defaultTargetTokens is the per-chunk budget when Options leaves it unset.
const defaultTargetTokens = 500

// Options tunes the chunkers. The zero value targets 500 tokens per chunk,
// discards heading markers, and applies no sentence overlap.
type Options struct {
	// TargetTokens is the per-chunk token budget (<= 0 means 500).
	TargetTokens int

	// OverlapTokens carries this many trailing tokens of each chunk into
	// the next one (BySentences only; <= 0 disables overlap).
	OverlapTokens int

	// KeepHeadings retains heading marker lines with the section that
	// follows them (ByHeadings only). Off, markers are dropped and only
	// the heading words inside mixed marker lines survive.
	KeepHeadings bool
}

// headingRe matches heading-like line starts: markdown headers, underline
// rows of equals signs, numbered or lettered list markers, and ALL-CAPS
// label lines ending in a colon.
var headingRe = regexp.MustCompile(`(?m)^(?:#+ |={2,}|\d+\.\s+|\w+\.\s+|[A-Z][A-Z\s]+:)`)

// tokens estimates the token count of s as len(s)/4. Crude, but stable and
// cheap; the budget only needs to be approximately right.
func tokens(s string) int {
	return len(s) / 4
}

// ByHeadings splits text at heading-like boundaries, then packs the sections
// into chunks of roughly opts.TargetTokens. A section longer than the budget
// becomes its own oversized chunk rather than being split mid-section.
// Sections keep their original order.
func ByHeadings(text string, opts Options) []string {
	target := opts.TargetTokens
	if target <= 0 {
		target = defaultTargetTokens
	}

	var chunks []string
	var buf strings.Builder
	for _, section := range splitSections(text, opts.KeepHeadings) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if buf.Len() > 0 && tokens(buf.String())+tokens(section) > target {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(section)
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// splitSections cuts text at heading matches. With keep=false the matched
// marker is discarded; with keep=true it stays attached to its section.
func splitSections(text string, keep bool) []string {
	matches := headingRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	sections := make([]string, 0, len(matches)+1)
	prev := 0
	for _, m := range matches {
		sections = append(sections, text[prev:m[0]])
		if keep {
			prev = m[0]
		} else {
			prev = m[1]
		}
	}
	sections = append(sections, text[prev:])
	return sections
}
