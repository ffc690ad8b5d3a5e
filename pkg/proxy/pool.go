package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnknownProxy is returned when reporting on a URL the pool never held.
	ErrUnknownProxy = errors.New("proxy: not in pool")
	// ErrNoHealthyProxy is returned by Func when every endpoint is cooling down.
	ErrNoHealthyProxy = errors.New("proxy: no healthy endpoint")
)

// Endpoint is one upstream proxy and its health counters.
type Endpoint struct {
	URL       *url.URL
	Failures  int
	Successes int
	LastUsed  time.Time
	// benchedUntil is zero while the endpoint is in rotation.
	benchedUntil time.Time
}

// Benched reports whether the endpoint is cooling down at now.
func (e *Endpoint) Benched(now time.Time) bool {
	return !e.benchedUntil.IsZero() && now.Before(e.benchedUntil)
}

// Config defines settings for the pool.
type Config struct {
	// MaxFailures consecutive failures bench an endpoint.
	MaxFailures int
	// Cooldown is how long a benched endpoint stays out of rotation.
	Cooldown time.Duration
}

// Pool rotates requests across proxy endpoints, benching failing ones.
type Pool struct {
	mu          sync.Mutex
	endpoints   []*Endpoint
	byURL       map[string]*Endpoint
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewPool creates an empty pool. Zero config values select 3 failures and a
// five minute cooldown.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		byURL:       make(map[string]*Endpoint),
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// LoadFile adds one proxy URL per line from path. Blank lines and lines
// starting with '#' are skipped.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: open list: %w", err)
	}
	defer f.Close()

	var raws []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("proxy: read list: %w", err)
	}
	return p.Add(raws...)
}

// Add parses and appends endpoints. A missing scheme defaults to http.
// Duplicates are ignored.
func (p *Pool) Add(raws ...string) error {
	parsed := make([]*url.URL, 0, len(raws))
	for _, raw := range raws {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return fmt.Errorf("proxy: invalid endpoint %q", raw)
		}
		parsed = append(parsed, u)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range parsed {
		key := u.String()
		if _, dup := p.byURL[key]; dup {
			continue
		}
		e := &Endpoint{URL: u}
		p.endpoints = append(p.endpoints, e)
		p.byURL[key] = e
	}
	return nil
}

// Len reports how many endpoints the pool holds.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Next returns the next endpoint in rotation that is not benched, or nil.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.endpoints {
		e := p.endpoints[p.next]
		p.next = (p.next + 1) % len(p.endpoints)
		if e.Benched(now) {
			continue
		}
		if !e.benchedUntil.IsZero() {
			// back from the bench with a clean slate
			e.benchedUntil = time.Time{}
			e.Failures = 0
		}
		e.LastUsed = now
		return e.URL
	}
	return nil
}

// Report records the outcome of a request sent through u.
func (p *Pool) Report(u *url.URL, ok bool) error {
	if u == nil {
		return ErrUnknownProxy
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e, found := p.byURL[u.String()]
	if !found {
		return ErrUnknownProxy
	}
	if ok {
		e.Successes++
		e.Failures = 0
		return nil
	}
	e.Failures++
	if e.Failures >= p.maxFailures {
		e.benchedUntil = p.now().Add(p.cooldown)
	}
	return nil
}

// Func adapts the pool to http.Transport.Proxy.
func (p *Pool) Func() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		if u := p.Next(); u != nil {
			return u, nil
		}
		return nil, ErrNoHealthyProxy
	}
}
