// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/dedup"
	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/webfetch"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

type fakeFetcher struct {
	res  *webfetch.Result
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*webfetch.Result, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type failingStore struct{}

func (failingStore) CheckAndMark(context.Context, string, string) (bool, error) {
	return false, errors.New("disk full")
}

func (failingStore) Close() error { return nil }

func longArticle() string {
	return `<html><head><title>Filing Rules</title>
	<meta name="description" content="Deadlines for filings"></head>
	<body><main><p>All filings must be submitted within thirty days of the
	triggering event. Late filings are rejected without review unless the
	filer demonstrates good cause in a sworn statement.</p>
	<a href="/appendix">appendix</a></main></body></html>`
}

func newTestProcessor(t *testing.T, f Fetcher, cfg types.IntakeConfig) *Processor {
	t.Helper()
	return NewProcessor(f, dedup.NewMemory(0), cfg, zap.NewNop())
}

func TestProcessAdmitsDocument(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte(longArticle()),
		ContentType: "text/html; charset=utf-8",
		FinalURL:    "https://example.com/rules",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	doc, err := p.Process(context.Background(), "https://example.com/rules?utm_source=feed#top")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if doc.URL != "https://example.com/rules?utm_source=feed#top" {
		t.Errorf("URL = %q, want the raw input preserved", doc.URL)
	}
	if doc.CanonicalURL != "https://example.com/rules" {
		t.Errorf("CanonicalURL = %q", doc.CanonicalURL)
	}
	if len(fetcher.urls) != 1 || fetcher.urls[0] != "https://example.com/rules" {
		t.Errorf("fetched %v, want the canonical URL", fetcher.urls)
	}
	if doc.Version != types.SchemaVersion {
		t.Errorf("Version = %d", doc.Version)
	}
	if doc.Title != "Filing Rules" {
		t.Errorf("Title = %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "thirty days") {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", doc.ContentType)
	}
	if doc.Metadata["description"] != "Deadlines for filings" {
		t.Errorf("Metadata = %v", doc.Metadata)
	}
	if len(doc.Links) != 1 || doc.Links[0] != "https://example.com/appendix" {
		t.Errorf("Links = %v", doc.Links)
	}
	if doc.ContentHash != ContentHash(doc.Text) || len(doc.ContentHash) != 64 {
		t.Errorf("ContentHash = %q", doc.ContentHash)
	}
	if doc.SimilarityHash != dedup.Signature(doc.Text) || doc.SimilarityHash == "" {
		t.Errorf("SimilarityHash = %q", doc.SimilarityHash)
	}
	if doc.FetchedAt.IsZero() || time.Since(doc.FetchedAt) > time.Minute {
		t.Errorf("FetchedAt = %v", doc.FetchedAt)
	}
}

func TestProcessRobotsDenied(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("fetching https://example.com/p: %w", webfetch.ErrRobotsDisallowed)}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	_, err := p.Process(context.Background(), "https://example.com/p")
	rej, ok := pipeline.AsRejection(err)
	if !ok {
		t.Fatalf("want rejection, got %v", err)
	}
	if rej.Kind != pipeline.RejectPolicyDenied {
		t.Errorf("Kind = %q, want %q", rej.Kind, pipeline.RejectPolicyDenied)
	}
}

func TestProcessFetchFailureIsTransient(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	_, err := p.Process(context.Background(), "https://example.com/p")
	if !pipeline.IsTransient(err) {
		t.Errorf("want transient error, got %v", err)
	}
	if _, ok := pipeline.AsRejection(err); ok {
		t.Errorf("fetch failure must not be a rejection: %v", err)
	}
}

func TestProcessShortTextRejected(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte("<html><body><main>too short</main></body></html>"),
		ContentType: "text/html",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	_, err := p.Process(context.Background(), "https://example.com/stub")
	rej, ok := pipeline.AsRejection(err)
	if !ok {
		t.Fatalf("want rejection, got %v", err)
	}
	if rej.Kind != pipeline.RejectTooShort {
		t.Errorf("Kind = %q", rej.Kind)
	}
	if !strings.Contains(rej.Reason, "need 100") {
		t.Errorf("Reason = %q, want default threshold named", rej.Reason)
	}
}

func TestProcessMinTextCharsConfigurable(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte("<html><body><main>short but fine</main></body></html>"),
		ContentType: "text/html",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{MinTextChars: 5})

	if _, err := p.Process(context.Background(), "https://example.com/stub"); err != nil {
		t.Errorf("Process with MinTextChars=5: %v", err)
	}
}

func TestProcessDuplicateRejected(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte(longArticle()),
		ContentType: "text/html",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	if _, err := p.Process(context.Background(), "https://example.com/rules"); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	_, err := p.Process(context.Background(), "https://example.com/rules")
	rej, ok := pipeline.AsRejection(err)
	if !ok {
		t.Fatalf("want rejection, got %v", err)
	}
	if rej.Kind != pipeline.RejectDuplicate {
		t.Errorf("Kind = %q", rej.Kind)
	}
}

func TestProcessDuplicateContentAcrossURLs(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte(longArticle()),
		ContentType: "text/html",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})

	if _, err := p.Process(context.Background(), "https://example.com/rules"); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	// Mirror at a different URL carries the same text, so the content hash
	// key must still catch it.
	_, err := p.Process(context.Background(), "https://mirror.example.org/rules-copy")
	rej, ok := pipeline.AsRejection(err)
	if !ok || rej.Kind != pipeline.RejectDuplicate {
		t.Errorf("want duplicate rejection, got %v", err)
	}
}

func TestProcessDedupFailureIsTransient(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte(longArticle()),
		ContentType: "text/html",
	}}
	p := NewProcessor(fetcher, failingStore{}, types.IntakeConfig{}, zap.NewNop())

	_, err := p.Process(context.Background(), "https://example.com/rules")
	if !pipeline.IsTransient(err) {
		t.Errorf("want transient error, got %v", err)
	}
}

func TestProcessPDF(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte("%PDF-1.7 fake"),
		ContentType: "application/pdf",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})
	p.pdf.exec = &fakeRunner{output: strings.Repeat("Seite eins mit Inhalt. ", 10) + "\fSeite zwei."}

	doc, err := p.Process(context.Background(), "https://example.com/report.pdf")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if doc.Title != "PDF Document from https://example.com/report.pdf" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Metadata["content_type"] != "application/pdf" {
		t.Errorf("Metadata = %v", doc.Metadata)
	}
	if !strings.Contains(doc.Text, "Seite eins") || !strings.Contains(doc.Text, "\nSeite zwei.") {
		t.Errorf("Text = %q", doc.Text)
	}
	if len(doc.Links) != 0 {
		t.Errorf("Links = %v, want none for PDFs", doc.Links)
	}
}

func TestProcessPDFExtractionFailureIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{res: &webfetch.Result{
		Body:        []byte("%PDF-1.7 fake"),
		ContentType: "application/pdf",
	}}
	p := newTestProcessor(t, fetcher, types.IntakeConfig{})
	p.pdf.exec = &fakeRunner{err: errors.New("exit status 1")}

	_, err := p.Process(context.Background(), "https://example.com/report.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if pipeline.IsTransient(err) {
		t.Errorf("broken PDF must be terminal, got transient %v", err)
	}
	if _, ok := pipeline.AsRejection(err); ok {
		t.Errorf("broken PDF must be an error, not a rejection: %v", err)
	}
}

func TestProcessInvalidURL(t *testing.T) {
	p := newTestProcessor(t, &fakeFetcher{}, types.IntakeConfig{})

	_, err := p.Process(context.Background(), "https://exa mple.com/%zz")
	if err == nil {
		t.Fatal("expected error")
	}
	if pipeline.IsTransient(err) {
		t.Errorf("malformed URL must be terminal, got %v", err)
	}
}
