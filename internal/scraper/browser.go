package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/FranksOps/rigscout/internal/metrics"
	"github.com/FranksOps/rigscout/internal/model"
)

// BrowserConfig configures a headless Chrome session.
type BrowserConfig struct {
	Store string
	// ExecPath overrides Chrome discovery.
	ExecPath        string
	Headless        bool
	UserAgent       string
	NavigateTimeout time.Duration
	Logger          *slog.Logger
}

// BrowserSession renders pages in one headless Chrome instance. Each Open
// uses a fresh tab; the browser itself lives until Close.
type BrowserSession struct {
	cfg BrowserConfig

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewBrowserSession returns a session that starts Chrome on first use.
func NewBrowserSession(cfg BrowserConfig) *BrowserSession {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &BrowserSession{cfg: cfg}
}

// acquire starts the browser once. It is detached from any request context
// so one request ending does not tear down the store's browser.
func (b *BrowserSession) acquire() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
	)
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	if b.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			b.cfg.Logger.Debug(fmt.Sprintf(format, args...), "store", b.cfg.Store)
		}),
	)
	// an empty Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("scraper: start browser for %s: %w", b.cfg.Store, err)
	}

	b.browserCtx, b.cancelBrowser, b.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc
	b.cfg.Logger.Debug("browser started", "store", b.cfg.Store)
	return browserCtx, nil
}

// Open navigates a new tab to target, waits up to settle for waitFor to be
// visible and returns the rendered DOM. A settle timeout still returns the
// DOM read so far, flagged Unsettled.
func (b *BrowserSession) Open(ctx context.Context, target, waitFor string, settle time.Duration) *Page {
	start := time.Now()
	page := &Page{ID: uuid.NewString(), URL: target, FetchedAt: start.UTC(), Rendered: true}
	defer func() {
		page.Duration = time.Since(start)
		metrics.RecordFetch(metrics.Fetch{
			Store:    b.cfg.Store,
			Status:   page.StatusCode,
			Failed:   page.Err != nil,
			Duration: page.Duration,
		})
	}()

	browserCtx, err := b.acquire()
	if err != nil {
		page.Err = fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
		return page
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if err := chromedp.Run(tabCtx); err != nil {
		page.Err = fmt.Errorf("%w: open tab: %v", model.ErrTransientFetch, err)
		return page
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, b.cfg.NavigateTimeout)
	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(target))
	cancelNav()
	if err != nil {
		if ctx.Err() != nil {
			page.Err = fmt.Errorf("scraper: %s: %w", target, ctx.Err())
		} else {
			page.Err = fmt.Errorf("%w: navigate %s: %v", model.ErrTransientFetch, target, err)
		}
		return page
	}
	if resp != nil {
		page.StatusCode = int(resp.Status)
	}

	if waitFor != "" && settle > 0 {
		waitCtx, cancelWait := context.WithTimeout(tabCtx, settle)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(waitFor, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			if ctx.Err() != nil {
				page.Err = fmt.Errorf("scraper: %s: %w", target, ctx.Err())
				return page
			}
			page.Unsettled = true
			b.cfg.Logger.Debug("settle wait timed out", "store", b.cfg.Store, "url", target, "selector", waitFor)
		}
	}

	var html, location string
	readCtx, cancelRead := context.WithTimeout(tabCtx, 10*time.Second)
	err = chromedp.Run(readCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	cancelRead()
	if err != nil {
		page.Err = fmt.Errorf("%w: read dom: %v", model.ErrTransientFetch, err)
		return page
	}

	page.Body = []byte(html)
	page.FinalURL = location
	page.Header = http.Header{"Content-Type": {"text/html; charset=utf-8"}}
	if page.StatusCode >= http.StatusBadRequest {
		page.Err = fmt.Errorf("scraper: %s: status %d", target, page.StatusCode)
	}
	return page
}

// Close shuts the browser down. Later Opens start a new one.
func (b *BrowserSession) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return nil
	}
	var err error
	if cerr := chromedp.Cancel(b.browserCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
		err = fmt.Errorf("scraper: close browser for %s: %w", b.cfg.Store, cerr)
	}
	b.cancelBrowser()
	b.cancelAlloc()
	b.browserCtx, b.cancelBrowser, b.cancelAlloc = nil, nil, nil
	return err
}
