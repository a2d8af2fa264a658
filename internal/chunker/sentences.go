// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunker

import (
	"regexp"
	"strings"
)

// sentenceEndRe marks sentence boundaries: terminal punctuation followed by
// whitespace. The punctuation stays with its sentence.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// BySentences splits text at sentence boundaries and packs sentences into
// chunks of roughly opts.TargetTokens. With opts.OverlapTokens > 0, each
// chunk after the first opens with the trailing sentences of its predecessor
// up to that many tokens, so no retrieval window loses cross-boundary
// context. Overlap duplicates content between neighbors; callers that need
// exact coverage use ByHeadings.
func BySentences(text string, opts Options) []string {
	target := opts.TargetTokens
	if target <= 0 {
		target = defaultTargetTokens
	}

	var chunks []string
	var buf []string
	bufLen := 0
	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if len(buf) > 0 && bufLen/4+tokens(sentence) > target {
			chunks = append(chunks, strings.Join(buf, " "))
			buf = overlapTail(buf, opts.OverlapTokens)
		}
		buf = append(buf, sentence)
		bufLen = joinedLen(buf)
	}
	if len(buf) > 0 {
		if chunk := strings.Join(buf, " "); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// overlapTail returns the shortest suffix of sentences whose token estimate
// reaches overlap. A non-positive overlap returns nothing.
func overlapTail(sentences []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	total := 0
	i := len(sentences)
	for i > 0 && total < overlap {
		i--
		total += tokens(sentences[i])
	}
	// Copy: the caller appends to the result and must not clobber the
	// previous chunk's backing array.
	tail := make([]string, len(sentences)-i)
	copy(tail, sentences[i:])
	return tail
}

func joinedLen(sentences []string) int {
	n := 0
	for _, s := range sentences {
		n += len(s)
	}
	if len(sentences) > 1 {
		n += (len(sentences) - 1) // single-space joins
	}
	return n
}

// splitSentences cuts text after terminal punctuation, dropping the
// whitespace run that follows it.
func splitSentences(text string) []string {
	matches := sentenceEndRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	sentences := make([]string, 0, len(matches)+1)
	prev := 0
	for _, m := range matches {
		sentences = append(sentences, text[prev:m[0]+1])
		prev = m[1]
	}
	if prev < len(text) {
		sentences = append(sentences, text[prev:])
	}
	return sentences
}
