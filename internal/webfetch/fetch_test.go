// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

// newTestFetcher returns a Fetcher with a negligible politeness delay.
func newTestFetcher() *Fetcher {
	cfg := types.IntakeConfig{FetchDelay: time.Millisecond}
	cfg.Timeout = 5 * time.Second
	return New(cfg)
}

func TestFetchReturnsBodyAndContentType(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer ts.Close()

	f := newTestFetcher()
	res, err := f.Fetch(context.Background(), ts.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, "<html><body>hello</body></html>", string(res.Body))
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, ts.URL+"/page", res.FinalURL)
}

func TestFetchNon200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), ts.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchRobotsDisallowed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte("content"))
	}))
	defer ts.Close()

	f := newTestFetcher()

	_, err := f.Fetch(context.Background(), ts.URL+"/private/report")
	assert.ErrorIs(t, err, ErrRobotsDisallowed)

	// Paths outside the disallowed prefix still fetch.
	res, err := f.Fetch(context.Background(), ts.URL+"/public/report")
	require.NoError(t, err)
	assert.Equal(t, "content", string(res.Body))
}

func TestFetchRobotsAgentGroup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			// Our agent is singled out; everyone else is blocked.
			w.Write([]byte("User-agent: EditorialEngine\nDisallow:\n\nUser-agent: *\nDisallow: /\n"))
			return
		}
		w.Write([]byte("content"))
	}))
	defer ts.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), ts.URL+"/anything")
	assert.NoError(t, err)
}

func TestFetchUnfetchableRobotsAllows(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"missing robots", http.StatusNotFound},
		{"robots server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/robots.txt" {
					w.WriteHeader(tt.status)
					return
				}
				w.Write([]byte("content"))
			}))
			defer ts.Close()

			f := newTestFetcher()
			res, err := f.Fetch(context.Background(), ts.URL+"/page")
			require.NoError(t, err)
			assert.Equal(t, "content", string(res.Body))
		})
	}
}

func TestFetchCachesRobotsPerHost(t *testing.T) {
	var robotsFetches int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&robotsFetches, 1)
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte("content"))
	}))
	defer ts.Close()

	f := newTestFetcher()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), ts.URL+"/page")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&robotsFetches))
}

func TestFetchPacesRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cfg := types.IntakeConfig{FetchDelay: 30 * time.Millisecond}
	f := New(cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), ts.URL+"/page")
		require.NoError(t, err)
	}
	// First request is immediate; the next two wait out the delay.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestFetchRejectsNonHTTPSchemes(t *testing.T) {
	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), "ftp://example.com/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}
