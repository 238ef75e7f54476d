// Package fetch retrieves remote source images for the pipeline.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"image-pipeline/internal/domain"
)

// ErrSourceFetch marks a broken upstream reference (unreachable host or
// non-2xx response), distinct from a misconfigured deployment.
var ErrSourceFetch = errors.New("source fetch failed")

type Client struct {
	http     *http.Client
	maxBytes int64
}

func NewClient() *Client {
	return &Client{
		http:     &http.Client{Timeout: 20 * time.Second},
		maxBytes: domain.DefaultMaxUploadSize,
	}
}

func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrSourceFetch, rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFetch, err)
	}
	return data, nil
}
