package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/rigscout/internal/bypass"
	"github.com/FranksOps/rigscout/internal/fingerprint"
	"github.com/FranksOps/rigscout/internal/metrics"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/pkg/httpclient"
	"github.com/FranksOps/rigscout/pkg/proxy"
	"github.com/FranksOps/rigscout/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// maxBody caps how much of a page is read.
const maxBody = 8 << 20

// FetchConfig configures plain HTTP retrieval for one store.
type FetchConfig struct {
	Store        string
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	Retries      int
	Backoff      time.Duration
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Detectors    []bypass.Detector
	Logger       *slog.Logger

	// insecureTLS is flipped by tests talking to httptest TLS servers.
	insecureTLS bool
}

// Fetcher performs GET requests with browser-like TLS, headers and optional
// proxy rotation. One Fetcher keeps one cookie jar and connection pool.
type Fetcher struct {
	config    FetchConfig
	client    *httpclient.Client
	transport *fingerprint.Transport
	userAgent string
}

// NewFetcher builds a Fetcher. Zero values select a 30s timeout, the default
// User-Agent pool, the chrome fingerprint and the default detectors.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The proxy is chosen per request and carried on the request context so
	// one transport can rotate endpoints.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.NewTransport(fingerprint.Options{
		Profile:            cfg.Fingerprint,
		Proxy:              proxyFunc,
		InsecureSkipVerify: cfg.insecureTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		Retries:      cfg.Retries,
		Backoff:      cfg.Backoff,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: client: %w", err)
	}

	return &Fetcher{
		config:    cfg,
		client:    client,
		transport: transport,
		userAgent: cfg.UAPool.For(cfg.Store),
	}, nil
}

// UserAgent is the agent string this fetcher presents.
func (f *Fetcher) UserAgent() string { return f.userAgent }

// Fetch GETs target. It never returns nil; failures land in Page.Err, with
// network errors and bot challenges wrapping model.ErrTransientFetch.
func (f *Fetcher) Fetch(ctx context.Context, target string) *Page {
	start := time.Now()
	page := &Page{
		ID:        uuid.NewString(),
		URL:       target,
		FetchedAt: start.UTC(),
	}
	defer func() {
		page.Duration = time.Since(start)
		metrics.RecordFetch(metrics.Fetch{
			Store:     f.config.Store,
			Status:    page.StatusCode,
			Failed:    page.Err != nil,
			BlockedBy: page.BlockedBy,
			Duration:  page.Duration,
		})
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		page.Err = fmt.Errorf("scraper: build request: %w", err)
		return page
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", useragent.AcceptLanguage)

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.Report(activeProxy, false)
		}
		// A per-attempt client timeout also wraps DeadlineExceeded; only a
		// dead request context makes the failure final.
		if ctx.Err() != nil {
			page.Err = fmt.Errorf("scraper: %s: %w", target, err)
		} else {
			page.Err = fmt.Errorf("%w: %s: %v", model.ErrTransientFetch, target, err)
		}
		return page
	}
	defer resp.Body.Close()
	if activeProxy != nil {
		_ = f.config.ProxyPool.Report(activeProxy, true)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	page.StatusCode = resp.StatusCode
	page.Header = resp.Header
	page.Body = body
	if resp.Request != nil && resp.Request.URL != nil {
		page.FinalURL = resp.Request.URL.String()
	}
	if err != nil {
		page.Err = fmt.Errorf("%w: read body: %v", model.ErrTransientFetch, err)
		return page
	}

	if blocked, vendor := bypass.Analyze(bypass.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, f.config.Detectors); blocked {
		page.BlockedBy = vendor
		page.Err = fmt.Errorf("%w: challenged by %s", model.ErrTransientFetch, vendor)
		f.config.Logger.Warn("bot challenge", "store", f.config.Store, "url", target, "vendor", vendor)
		return page
	}
	switch {
	case httpclient.Retryable(resp.StatusCode):
		page.Err = fmt.Errorf("%w: status %d", model.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		page.Err = fmt.Errorf("scraper: %s: status %d", target, resp.StatusCode)
	}
	return page
}

// Close drops idle connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}
