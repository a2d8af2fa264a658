// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package webfetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches per-host robots.txt verdicts. A host whose
// robots.txt cannot be fetched or parsed is cached as nil, which allows
// everything: an unreachable policy never blocks intake (R3.2).
type robotsCache struct {
	http      *http.Client
	userAgent string

	mu     sync.Mutex
	byHost map[string]*robotstxt.RobotsData
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		http:      client,
		userAgent: userAgent,
		byHost:    make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether u may be fetched under the host's robots.txt.
func (c *robotsCache) allowed(ctx context.Context, u *url.URL) bool {
	data := c.lookup(ctx, u)
	if data == nil {
		return true
	}
	return data.FindGroup(c.userAgent).Test(u.RequestURI())
}

func (c *robotsCache) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	c.mu.Lock()
	data, ok := c.byHost[u.Host]
	c.mu.Unlock()
	if ok {
		return data
	}

	data = c.fetch(ctx, u)
	c.mu.Lock()
	c.byHost[u.Host] = data
	c.mu.Unlock()
	return data
}

func (c *robotsCache) fetch(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}
