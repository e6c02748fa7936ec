package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/user/picscan/internal/proxy"
	"golang.org/x/time/rate"
)

// HTTP fetches pages with net/http, rotating user agents and proxies.
type HTTP struct {
	client       *http.Client
	proxies      *proxy.Manager
	limiter      *rate.Limiter
	maxLineBytes int
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithRequestsPerSecond paces fetches across all workers. Zero or less
// disables pacing.
func WithRequestsPerSecond(rps float64) HTTPOption {
	return func(h *HTTP) {
		if rps > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxLineBytes overrides DefaultMaxLineBytes.
func WithMaxLineBytes(n int) HTTPOption {
	return func(h *HTTP) {
		h.maxLineBytes = n
	}
}

// NewHTTP returns an HTTP fetcher. timeout bounds a whole fetch, including
// reading the body line by line.
func NewHTTP(timeout time.Duration, pm *proxy.Manager, opts ...HTTPOption) *HTTP {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = pm.Proxy

	h := &HTTP{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		proxies:      pm,
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Fetch(ctx context.Context, url string) (Lines, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", h.proxies.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, &FetchError{URL: url, Cause: fmt.Errorf("%w: %s", ErrStatus, resp.Status)}
	}

	return NewLines(resp.Body, h.maxLineBytes), nil
}
