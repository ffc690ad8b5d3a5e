package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsAuditor answers robots.txt questions for store hosts, caching one
// parsed file per host. Unreachable or missing files allow everything.
type RobotsAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsAuditor returns an auditor that downloads robots.txt with fetcher.
func NewRobotsAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether agent may fetch target.
func (r *RobotsAuditor) Allowed(ctx context.Context, target, agent string) (bool, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false, fmt.Errorf("scraper: invalid url %q", target)
	}

	data := r.robotsFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.FindGroup(agent).Test(path), nil
}

func (r *RobotsAuditor) robotsFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[origin]; ok {
		return data
	}

	page := r.fetcher.Fetch(ctx, origin+"/robots.txt")
	var data *robotstxt.RobotsData
	switch {
	case page.Err != nil && page.StatusCode == 0:
		r.logger.Debug("robots.txt unreachable, allowing", "origin", origin, "err", page.Err)
		// not cached: a later call may reach it
		return nil
	case page.StatusCode >= http.StatusBadRequest:
		// a missing file means no restrictions
	default:
		parsed, err := robotstxt.FromBytes(page.Body)
		if err != nil {
			r.logger.Debug("robots.txt unparsable, allowing", "origin", origin, "err", err)
		} else {
			data = parsed
		}
	}
	r.cache[origin] = data
	return data
}
