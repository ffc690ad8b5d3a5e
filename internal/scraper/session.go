package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session is a store's private retrieval resource. Implementations acquire
// their underlying client or browser lazily on the first Open and release it
// on Close. Close may be called more than once.
type Session interface {
	// Open loads target. waitFor, when set, is a CSS selector the session
	// waits up to settle for before reading; static sessions ignore it.
	Open(ctx context.Context, target, waitFor string, settle time.Duration) *Page
	Close() error
}

// HTTPSession serves pages through a lazily built Fetcher.
type HTTPSession struct {
	cfg FetchConfig

	mu      sync.Mutex
	fetcher *Fetcher
}

// NewHTTPSession returns a session that builds its Fetcher from cfg on first use.
func NewHTTPSession(cfg FetchConfig) *HTTPSession {
	return &HTTPSession{cfg: cfg}
}

func (s *HTTPSession) acquire() (*Fetcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetcher == nil {
		f, err := NewFetcher(s.cfg)
		if err != nil {
			return nil, err
		}
		s.fetcher = f
	}
	return s.fetcher, nil
}

// Open fetches target. The settle arguments have no effect on static HTML.
func (s *HTTPSession) Open(ctx context.Context, target, _ string, _ time.Duration) *Page {
	f, err := s.acquire()
	if err != nil {
		return &Page{URL: target, Err: fmt.Errorf("scraper: session for %s: %w", s.cfg.Store, err)}
	}
	return f.Fetch(ctx, target)
}

// Close releases the fetcher's connections.
func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetcher != nil {
		s.fetcher.Close()
		s.fetcher = nil
	}
	return nil
}
