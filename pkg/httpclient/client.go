package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// ErrRetriesExhausted is returned when every attempt failed with a retryable error.
var ErrRetriesExhausted = errors.New("httpclient: retries exhausted")

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// Transport overrides the default round tripper, e.g. for proxies or uTLS.
	Transport http.RoundTripper

	// Retries is the number of extra attempts after a network error, a 429
	// or a 5xx. Zero disables retrying.
	Retries int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
}

// Client wraps http.Client with a redirect policy, an optional cookie jar and
// bounded retries with linear backoff.
type Client struct {
	*http.Client
	retries int
	backoff time.Duration
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	c := &http.Client{Timeout: cfg.Timeout}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		if limit == 0 {
			limit = 10
		}
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("httpclient: stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c, retries: cfg.Retries, backoff: cfg.Backoff}, nil
}

// Do executes req under ctx, retrying network errors and retryable statuses.
// The last retryable response is returned once attempts run out so callers
// can still inspect it; a nil response comes with an error wrapping
// ErrRetriesExhausted.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
				return nil, fmt.Errorf("httpclient: %w", err)
			}
		}

		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("httpclient: rewind body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := c.Client.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("httpclient: %w", ctx.Err())
			}
			lastErr = err
			continue
		}
		if !Retryable(resp.StatusCode) || attempt == c.retries {
			return resp, nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.retries+1, lastErr)
}

// Retryable reports whether status is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
