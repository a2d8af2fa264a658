// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"time"
)

// Embed returns one embedding per input text, in input order (R3.1). It
// fails when the provider has no embeddings API (anthropic); callers treat
// that the same as any other embedding failure.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("%s provider has no embeddings API", c.provider)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		vecs, err := c.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d texts", len(vecs), len(texts))
		}
		return vecs, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}
