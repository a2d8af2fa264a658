// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editorial

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

type fakeSummarizer struct {
	abstract string
	sumErr   error

	claims    []string
	claimsErr error

	sumLabels  []types.Labels
	claimsMax  []int
	claimsText []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, labels types.Labels) (string, error) {
	f.sumLabels = append(f.sumLabels, labels)
	if f.sumErr != nil {
		return "", f.sumErr
	}
	return f.abstract, nil
}

func (f *fakeSummarizer) ExtractClaims(_ context.Context, abstract string, max int) ([]string, error) {
	f.claimsText = append(f.claimsText, abstract)
	f.claimsMax = append(f.claimsMax, max)
	if f.claimsErr != nil {
		return nil, f.claimsErr
	}
	return f.claims, nil
}

type fakeVerifier struct {
	accepted  bool
	citations []types.Citation
	err       error

	got [][]string
}

func (f *fakeVerifier) Corroborate(_ context.Context, claims []string) (bool, []types.Citation, error) {
	f.got = append(f.got, claims)
	if f.err != nil {
		return false, nil, f.err
	}
	return f.accepted, f.citations, nil
}

func editableDoc() types.Document {
	return types.Document{
		CanonicalURL: "https://example.com/d",
		Title:        "A Proper Title",
		Text:         strings.Repeat("Substantive reporting text. ", 25),
		Labels:       types.Labels{DocType: "article", Language: "en", Audience: "general"},
		Entities:     []types.Entity{{Name: "Agency", Type: "org", Confidence: 0.9}},
	}
}

func goodAbstract() string {
	return "The agency issued new rules [1] covering all filings, effective immediately [2]."
}

func newTestEditor(ai Summarizer, v Verifier, cfg types.EditorialConfig) *Processor {
	return NewProcessor(ai, v, cfg, zap.NewNop())
}

func TestEditHappyPath(t *testing.T) {
	ai := &fakeSummarizer{
		abstract: goodAbstract(),
		claims:   []string{"the agency issued new rules"},
	}
	verifier := &fakeVerifier{
		accepted:  true,
		citations: []types.Citation{{Claim: "the agency issued new rules", URL: "https://ev.example/1"}},
	}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	got := p.Edit(context.Background(), editableDoc())

	if got.Abstract != goodAbstract() {
		t.Errorf("Abstract = %q", got.Abstract)
	}
	if len(got.Claims) != 1 {
		t.Errorf("Claims = %v", got.Claims)
	}
	if len(got.Citations) != 1 {
		t.Errorf("Citations = %v", got.Citations)
	}
	if got.NeedsReview {
		t.Error("NeedsReview set on a clean document")
	}
	if math.Abs(got.QualityScore-1.0) > 1e-9 {
		t.Errorf("QualityScore = %v, want 1.0", got.QualityScore)
	}
	if len(verifier.got) != 1 || len(verifier.got[0]) != 1 {
		t.Errorf("verifier saw %v", verifier.got)
	}
}

func TestEditSummarizeFallbackTruncates(t *testing.T) {
	ai := &fakeSummarizer{sumErr: errors.New("model down"), claimsErr: errors.New("skip")}
	p := newTestEditor(ai, &fakeVerifier{}, types.EditorialConfig{})

	doc := editableDoc()
	got := p.Edit(context.Background(), doc)

	want := doc.Text[:500] + "..."
	if got.Abstract != want {
		t.Errorf("Abstract = %q, want first 500 chars with ellipsis", got.Abstract)
	}
}

func TestEditSummarizeFallbackShortText(t *testing.T) {
	ai := &fakeSummarizer{sumErr: errors.New("model down"), claimsErr: errors.New("skip")}
	p := newTestEditor(ai, &fakeVerifier{}, types.EditorialConfig{})

	doc := editableDoc()
	doc.Text = "Short body."
	got := p.Edit(context.Background(), doc)

	if got.Abstract != "Short body." {
		t.Errorf("Abstract = %q, want the whole short text untouched", got.Abstract)
	}
}

func TestEditClaimFailureSkipsCorroboration(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract(), claimsErr: errors.New("bad JSON")}
	verifier := &fakeVerifier{}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	got := p.Edit(context.Background(), editableDoc())

	if len(got.Claims) != 0 {
		t.Errorf("Claims = %v", got.Claims)
	}
	if len(verifier.got) != 0 {
		t.Error("verifier called without claims")
	}
	if len(got.Citations) != 0 {
		t.Errorf("Citations = %v", got.Citations)
	}
}

func TestEditNoClaimsSkipsCorroboration(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract()}
	verifier := &fakeVerifier{}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	p.Edit(context.Background(), editableDoc())

	if len(verifier.got) != 0 {
		t.Error("verifier called for an empty claim list")
	}
}

func TestEditRejectedClaimsFlagReview(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract(), claims: []string{"a", "b"}}
	verifier := &fakeVerifier{
		accepted:  false,
		citations: []types.Citation{{Claim: "a", URL: "https://ev.example/1"}},
	}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	got := p.Edit(context.Background(), editableDoc())

	if !got.NeedsReview {
		t.Error("NeedsReview not set after rejection")
	}
	if len(got.Citations) != 1 {
		t.Errorf("Citations = %v, want the partial evidence kept", got.Citations)
	}
}

func TestEditCorroborationErrorFlagsReview(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract(), claims: []string{"a"}}
	verifier := &fakeVerifier{err: errors.New("search API down")}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	got := p.Edit(context.Background(), editableDoc())

	if !got.NeedsReview {
		t.Error("NeedsReview not set after a failed corroboration run")
	}
	if len(got.Citations) != 0 {
		t.Errorf("Citations = %v, want none from a failed run", got.Citations)
	}
}

func TestEditQualityBelowFloorFlagsReview(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract(), claims: nil}
	p := newTestEditor(ai, &fakeVerifier{}, types.EditorialConfig{})

	doc := editableDoc()
	doc.Title = ""
	doc.Entities = nil
	got := p.Edit(context.Background(), doc)

	// 0.3 text + 0.2 abstract leaves 0.5, under the 0.7 default floor.
	if !got.NeedsReview {
		t.Errorf("NeedsReview not set at score %v", got.QualityScore)
	}
}

func TestEditCapsClaims(t *testing.T) {
	many := make([]string, 14)
	for i := range many {
		many[i] = goodAbstract()
	}
	ai := &fakeSummarizer{abstract: goodAbstract(), claims: many}
	verifier := &fakeVerifier{accepted: true}
	p := newTestEditor(ai, verifier, types.EditorialConfig{})

	got := p.Edit(context.Background(), editableDoc())

	if len(got.Claims) != 10 {
		t.Errorf("Claims = %d, want capped at 10", len(got.Claims))
	}
	if len(verifier.got[0]) != 10 {
		t.Errorf("verifier saw %d claims", len(verifier.got[0]))
	}
}

func TestEditPassesLabelsAndMax(t *testing.T) {
	ai := &fakeSummarizer{abstract: goodAbstract()}
	p := newTestEditor(ai, &fakeVerifier{}, types.EditorialConfig{MaxClaims: 4})

	doc := editableDoc()
	doc.Labels.Language = "de"
	p.Edit(context.Background(), doc)

	if len(ai.sumLabels) != 1 || ai.sumLabels[0].Language != "de" {
		t.Errorf("summarizer labels = %v", ai.sumLabels)
	}
	if len(ai.claimsMax) != 1 || ai.claimsMax[0] != 4 {
		t.Errorf("claims max = %v, want configured 4", ai.claimsMax)
	}
	if ai.claimsText[0] != goodAbstract() {
		t.Errorf("claims read %q, want the abstract", ai.claimsText[0])
	}
}
