// Package wordsource holds the HTTP clients for the external word-list and
// dictionary services. Every call is bounded by its own timeout and shares
// one outbound rate limiter.
package wordsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"spellcheck/internal/types"
)

const userAgent = "spellcheck-server"

// ErrNotFound is returned when an upstream answers 404 for a lookup.
var ErrNotFound = errors.New("not found upstream")

// Client performs throttled, timeout-bounded JSON GETs.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient builds a client. A zero rps disables throttling.
func NewClient(timeout time.Duration, rps float64, burst int) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    timeout,
	}
}

// getJSON decodes the body of a 200 response into out. A 404 yields
// ErrNotFound; every other failure wraps types.ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: throttle: %v", types.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", types.ErrUpstreamUnavailable, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", types.ErrUpstreamUnavailable, err)
	}
	return nil
}
