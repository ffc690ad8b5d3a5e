package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/rigscout/internal/extract"
	"github.com/FranksOps/rigscout/internal/fingerprint"
	"github.com/FranksOps/rigscout/internal/metrics"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/scraper"
	"github.com/FranksOps/rigscout/pkg/proxy"
	"github.com/FranksOps/rigscout/pkg/useragent"
)

// Adapter is the capability surface every store exposes. Search and
// FetchDetail never fail: problems are logged and degrade to an empty slice
// or a nil detail.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string) []model.RawListing
	FetchDetail(ctx context.Context, url string) *model.ProductDetail
	Close() error
}

// Options carries the process-wide retrieval settings shared by all sites.
type Options struct {
	Timeout     time.Duration
	Backoff     time.Duration
	ProxyPool   *proxy.Pool
	UAPool      *useragent.Pool
	Fingerprint fingerprint.Profile
	ChromePath  string
	Headless    bool
	Logger      *slog.Logger

	// NewSession overrides how a site builds its retrieval session.
	NewSession func(cfg Config) scraper.Session
}

// Site is the Adapter for one configured store.
type Site struct {
	cfg     Config
	opts    Options
	logger  *slog.Logger
	uaPool  *useragent.Pool
	session scraper.Session

	robotsOnce sync.Once
	robots     *scraper.RobotsAuditor
	robotsUA   string
}

var _ Adapter = (*Site)(nil)

// New validates cfg and returns a Site. No connection or browser is opened
// until the first Search or FetchDetail.
func New(cfg Config, opts Options) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.UAPool == nil {
		opts.UAPool = useragent.NewPool(nil)
	}
	s := &Site{
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger.With("store", cfg.Name),
		uaPool: opts.UAPool,
	}
	if opts.NewSession != nil {
		s.session = opts.NewSession(cfg)
	} else {
		s.session = s.defaultSession()
	}
	return s, nil
}

// NewAll builds one Site per config.
func NewAll(cfgs []Config, opts Options) ([]Adapter, error) {
	out := make([]Adapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := New(cfg, opts)
		if err != nil {
			for _, a := range out {
				_ = a.Close()
			}
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s *Site) fetchConfig() scraper.FetchConfig {
	return scraper.FetchConfig{
		Store:        s.cfg.Name,
		Timeout:      s.opts.Timeout,
		UseCookieJar: true,
		Retries:      s.cfg.Retries,
		Backoff:      s.opts.Backoff,
		ProxyPool:    s.opts.ProxyPool,
		UAPool:       s.uaPool,
		Fingerprint:  s.opts.Fingerprint,
		Logger:       s.logger,
	}
}

func (s *Site) defaultSession() scraper.Session {
	if s.cfg.Render == RenderBrowser {
		return scraper.NewBrowserSession(scraper.BrowserConfig{
			Store:           s.cfg.Name,
			ExecPath:        s.opts.ChromePath,
			Headless:        s.opts.Headless,
			UserAgent:       s.uaPool.For(s.cfg.Name),
			NavigateTimeout: s.opts.Timeout,
			Logger:          s.logger,
		})
	}
	return scraper.NewHTTPSession(s.fetchConfig())
}

// Name returns the store name.
func (s *Site) Name() string { return s.cfg.Name }

// Config returns the effective store configuration.
func (s *Site) Config() Config { return s.cfg }

// Close releases the session. It is safe to call more than once.
func (s *Site) Close() error {
	return s.session.Close()
}

// Search runs the store's search page for query and returns at most
// MaxResults listings that have a name and a resolvable link.
func (s *Site) Search(ctx context.Context, query string) []model.RawListing {
	listings := []model.RawListing{}
	target := s.cfg.SearchURLFor(query)
	if !s.allowed(ctx, target) {
		return listings
	}

	page := s.open(ctx, target, s.cfg.Listing.WaitFor)
	if !page.OK() {
		metrics.AdapterFailures.WithLabelValues(s.cfg.Name, "search").Inc()
		s.logger.Warn("search failed", "url", target, "status", page.StatusCode, "err", page.Err)
		return listings
	}
	doc, err := page.Document()
	if err != nil {
		metrics.AdapterFailures.WithLabelValues(s.cfg.Name, "search").Inc()
		s.logger.Warn("search page unreadable", "url", target, "err", err)
		return listings
	}

	listings = s.parseListings(doc, page.Base())
	metrics.ListingsTotal.WithLabelValues(s.cfg.Name).Add(float64(len(listings)))
	s.logger.Info("search finished", "query", query, "listings", len(listings))
	return listings
}

// parseListings reads the result cards. Relative links resolve against base,
// the address the search page was finally served from.
func (s *Site) parseListings(doc *goquery.Document, base string) []model.RawListing {
	sel := s.cfg.Listing
	out := []model.RawListing{}
	doc.Find(sel.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(out) >= s.cfg.MaxResults {
			return false
		}
		name := textOf(card, sel.Name)
		href := attrOf(card, sel.Link, "href")
		link, ok := scraper.Resolve(base, href)
		if name == "" || !ok {
			s.logger.Debug("incomplete listing dropped", "name", name, "href", href)
			return true
		}
		if s.cfg.Excluded(name) {
			s.logger.Debug("accessory listing dropped", "name", name)
			return true
		}
		listing := model.RawListing{
			Name:     name,
			URL:      link,
			ImageURL: s.imageOf(card, sel.Image, base),
			Store:    s.cfg.Name,
		}
		if sel.Price != "" {
			listing.Price = extract.ParsePrice(textOf(card, sel.Price))
		}
		out = append(out, listing)
		return true
	})
	return out
}

// FetchDetail reads a product page. It returns nil when the page could not be
// read or has no product name.
func (s *Site) FetchDetail(ctx context.Context, target string) *model.ProductDetail {
	if !s.allowed(ctx, target) {
		return nil
	}
	page := s.open(ctx, target, s.cfg.Detail.WaitFor)
	if !page.OK() {
		metrics.AdapterFailures.WithLabelValues(s.cfg.Name, "detail").Inc()
		s.logger.Warn("detail fetch failed", "url", target, "status", page.StatusCode, "err", page.Err)
		return nil
	}
	if page.Unsettled {
		s.logger.Debug("detail read before settling", "url", target)
	}
	doc, err := page.Document()
	if err != nil {
		metrics.AdapterFailures.WithLabelValues(s.cfg.Name, "detail").Inc()
		s.logger.Warn("detail page unreadable", "url", target, "err", err)
		return nil
	}

	sel := s.cfg.Detail
	root := doc.Selection
	name := textOf(root, sel.Name)
	if name == "" {
		s.logger.Debug("detail without product name", "url", target)
		return nil
	}
	detail := &model.ProductDetail{
		Name:        name,
		URL:         target,
		ImageURL:    s.imageOf(root, sel.Image, page.Base()),
		Store:       s.cfg.Name,
		Description: allText(root, sel.Description),
	}
	if sel.Price != "" {
		detail.Price = extract.ParsePrice(textOf(root, sel.Price))
	}
	if table := tableText(root, sel.SpecsTable); table != "" {
		spec := extract.Extract(extract.Text(name, table, detail.Description))
		detail.Specifications = &spec
		detail.Description = extract.Text(detail.Description, table)
	}
	return detail
}

// open retrieves target, retrying with a linear backoff while retry allows.
func (s *Site) open(ctx context.Context, target, waitFor string) *scraper.Page {
	var page *scraper.Page
	for i := 0; i <= s.cfg.Retries; i++ {
		if i > 0 {
			s.logger.Debug("retrying", "url", target, "attempt", i+1, "err", page.Err)
			select {
			case <-ctx.Done():
				return page
			case <-time.After(s.opts.Backoff * time.Duration(i)):
			}
		}
		page = s.session.Open(ctx, target, waitFor, s.cfg.SettleTimeout)
		if page == nil {
			page = &scraper.Page{URL: target, Err: fmt.Errorf("%w: no page for %s", model.ErrTransientFetch, target)}
		}
		if !s.retry(page) {
			return page
		}
	}
	return page
}

// retry reports whether a transient failure is worth another attempt. HTTP
// sessions already retry network errors and 5xx inside the client, so only
// bot challenges are retried again here.
func (s *Site) retry(page *scraper.Page) bool {
	if page.Err == nil || !errors.Is(page.Err, model.ErrTransientFetch) {
		return false
	}
	return s.cfg.Render == RenderBrowser || page.BlockedBy != ""
}

func (s *Site) allowed(ctx context.Context, target string) bool {
	if !s.cfg.RespectRobots {
		return true
	}
	s.robotsOnce.Do(func() {
		f, err := scraper.NewFetcher(s.fetchConfig())
		if err != nil {
			s.logger.Warn("robots.txt checks disabled", "err", err)
			return
		}
		s.robots = scraper.NewRobotsAuditor(f, s.logger)
		s.robotsUA = f.UserAgent()
	})
	if s.robots == nil {
		return true
	}
	ok, err := s.robots.Allowed(ctx, target, s.robotsUA)
	if err != nil {
		s.logger.Debug("robots.txt check failed", "url", target, "err", err)
		return false
	}
	if !ok {
		metrics.AdapterFailures.WithLabelValues(s.cfg.Name, "robots").Inc()
		s.logger.Info("disallowed by robots.txt", "url", target)
	}
	return ok
}

func (s *Site) imageOf(root *goquery.Selection, selector, base string) string {
	if selector == "" {
		return ""
	}
	img := root.Find(selector).First()
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		v, _ := img.Attr(attr)
		if u, ok := scraper.Resolve(base, v); ok {
			return u
		}
	}
	return ""
}

func textOf(root *goquery.Selection, selector string) string {
	sel := root
	if selector != "" {
		sel = root.Find(selector).First()
	}
	return collapse(sel.Text())
}

func allText(root *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	var parts []string
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func attrOf(root *goquery.Selection, selector, attr string) string {
	sel := root
	if selector != "" {
		sel = root.Find(selector).First()
	}
	v, _ := sel.Attr(attr)
	return v
}

// tableText flattens a two-column spec table into "label: value" lines.
func tableText(root *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	var lines []string
	root.Find(selector).First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		label := collapse(row.Find("th").First().Text())
		cells := row.Find("td")
		if label == "" && cells.Length() > 1 {
			label = collapse(cells.First().Text())
			cells = cells.Slice(1, goquery.ToEnd)
		}
		value := collapse(cells.First().Text())
		switch {
		case label != "" && value != "":
			lines = append(lines, label+": "+value)
		case value != "":
			lines = append(lines, value)
		}
	})
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
