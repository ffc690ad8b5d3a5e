// Package scraper retrieves store pages over plain HTTP or through a
// headless browser and hands them to the store adapters as Pages.
package scraper

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Page is one retrieved document. A fetch never fails outright: problems are
// recorded in Err and whatever was read stays available.
type Page struct {
	ID  string
	URL string
	// FinalURL is the address after redirects, when known.
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
	FetchedAt  time.Time
	Duration   time.Duration
	// BlockedBy names the bot-protection vendor that challenged the request.
	BlockedBy string
	// Rendered is set for pages read out of a browser DOM.
	Rendered bool
	// Unsettled is set when the settle wait timed out before the page was read.
	Unsettled bool
	Err       error
}

// OK reports whether the page carries a usable document.
func (p *Page) OK() bool {
	return p != nil && p.Err == nil && len(p.Body) > 0 && (p.StatusCode == 0 || p.StatusCode < http.StatusBadRequest)
}

// Base returns the address relative links on the page resolve against.
func (p *Page) Base() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// Document parses the body, decoding it from the charset the server declared
// or the document sniffs as.
func (p *Page) Document() (*goquery.Document, error) {
	if p == nil || len(p.Body) == 0 {
		return nil, fmt.Errorf("scraper: empty page")
	}
	contentType := "text/html"
	if p.Header != nil && p.Header.Get("Content-Type") != "" {
		contentType = p.Header.Get("Content-Type")
	}
	r, err := charset.NewReader(bytes.NewReader(p.Body), contentType)
	if err != nil {
		return nil, fmt.Errorf("scraper: decode %s: %w", p.URL, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("scraper: parse %s: %w", p.URL, err)
	}
	return doc, nil
}
