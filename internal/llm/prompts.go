// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"strings"
	"text/template"
	"unicode/utf8"
)

// Prompt input budgets, in bytes of document text. Anything past the budget
// is noise for the task at hand and only costs tokens.
const (
	classifyTextLimit  = 2000
	nerTextLimit       = 3000
	summarizeTextLimit = 4000
)

var classifyTmpl = template.Must(template.New("classify").Parse(
	`You are a strict document classifier. Output JSON only:
{ "doc_type": one_of["guideline","ruling","article","faq","spec","datasheet"],
  "language": iso639-1,
  "audience": one_of["general","expert","legal"],
  "jurisdiction": null_or_string }
Decide from the text below. No explanations.

Text:
{{.Text}}`))

type classifyData struct {
	Text string
}

var nerTmpl = template.Must(template.New("ner").Parse(
	`Extract named entities and relationships from this {{.DocType}}.

Return JSON with:
{
  "entities": [
    {"name": "entity_name", "type": "Statute|Case|Organization|Form|Concept", "confidence": 0.0-1.0}
  ],
  "relationships": [
    {"source": "entity1", "target": "entity2", "relation": "INTERPRETS|APPLIES|MAPS_TO|HARMONIZES", "confidence": 0.0-1.0}
  ]
}

Text:
{{.Text}}`))

type nerData struct {
	DocType string
	Text    string
}

var summarizeTmpl = template.Must(template.New("summarize").Parse(
	`Write a neutral abstract (max 180 words) for this {{.DocType}}.
{{.LanguageInstruction}}.

- Include only facts from the text
- Add bracketed numeric citations [1], [2], ... for key claims
- Be objective and neutral

Text:
{{.Text}}`))

type summarizeData struct {
	DocType             string
	LanguageInstruction string
	Text                string
}

var claimsTmpl = template.Must(template.New("claims").Parse(
	`Extract up to {{.Max}} atomic, verifiable claims from this abstract.
Return as JSON array of strings. Each claim should be a single factual statement.

Abstract:
{{.Abstract}}`))

type claimsData struct {
	Max      int
	Abstract string
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// head returns the first n bytes of s, backed off to a rune boundary so the
// cut never produces invalid UTF-8.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
