// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webfetch retrieves web documents politely: one robots.txt check
// per host, a shared pacing limiter between fetches, and a stable
// User-Agent.
// Implements: prd011-intake (R3.1-R3.4);
//
//	docs/ARCHITECTURE § Intake.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

// DefaultUserAgent identifies the pipeline to remote hosts and in robots.txt
// group matching.
const DefaultUserAgent = "EditorialEngine/1.0"

// ErrRobotsDisallowed marks a fetch refused by the host's robots.txt. The
// intake stage maps it to a policy rejection.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Result is one fetched document body.
type Result struct {
	// Body is the raw response payload.
	Body []byte

	// ContentType is the Content-Type header as sent by the server.
	ContentType string

	// FinalURL is the location after redirects.
	FinalURL string
}

// Fetcher retrieves URLs with politeness pacing. All fetches through one
// Fetcher share a limiter, so worker concurrency never multiplies the
// request rate (R3.3).
type Fetcher struct {
	http      *http.Client
	limiter   *rate.Limiter
	robots    *robotsCache
	userAgent string
}

// New builds a Fetcher from cfg. Zero-value fields fall back to a 30 s
// timeout, a 1 s fetch delay, and DefaultUserAgent.
func New(cfg types.IntakeConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := cfg.FetchDelay
	if delay <= 0 {
		delay = time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	client := &http.Client{Timeout: timeout}
	return &Fetcher{
		http:      client,
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
		robots:    newRobotsCache(client, ua),
		userAgent: ua,
	}
}

// Fetch retrieves rawURL. It waits for the politeness limiter, consults the
// host's robots.txt (ErrRobotsDisallowed when refused), and returns the body
// with its Content-Type. Network failures and non-200 statuses come back as
// plain errors for the caller to classify.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if !f.robots.allowed(ctx, u) {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
