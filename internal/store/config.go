// Package store implements the store adapter: one Site type driven by a
// per-store Config of URLs and CSS selectors.
package store

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/rigscout/internal/model"
)

// Render selects how a store's pages are retrieved.
type Render string

const (
	RenderHTTP    Render = "http"
	RenderBrowser Render = "browser"
)

const (
	DefaultSettleTimeout = 10 * time.Second
	DefaultMaxResults    = 10
	DefaultRetries       = 2
)

// ListingSelectors locate fields on a search results page. Name, Link, Price
// and Image are relative to Card; an empty Link uses the card's own href.
type ListingSelectors struct {
	Card    string `mapstructure:"card" json:"card"`
	Name    string `mapstructure:"name" json:"name"`
	Link    string `mapstructure:"link" json:"link,omitempty"`
	Price   string `mapstructure:"price" json:"price,omitempty"`
	Image   string `mapstructure:"image" json:"image,omitempty"`
	WaitFor string `mapstructure:"wait_for" json:"wait_for,omitempty"`
}

// DetailSelectors locate fields on a product page.
type DetailSelectors struct {
	Name        string `mapstructure:"name" json:"name"`
	Price       string `mapstructure:"price" json:"price,omitempty"`
	Image       string `mapstructure:"image" json:"image,omitempty"`
	Description string `mapstructure:"description" json:"description,omitempty"`
	SpecsTable  string `mapstructure:"specs_table" json:"specs_table,omitempty"`
	WaitFor     string `mapstructure:"wait_for" json:"wait_for,omitempty"`
}

// Config describes one store. SearchURL is a template: {query} is replaced
// with the query-escaped search text and {path} with the path-escaped text.
// A SearchURL without a scheme is resolved against BaseURL.
type Config struct {
	Name          string           `mapstructure:"name" json:"name"`
	BaseURL       string           `mapstructure:"base_url" json:"base_url"`
	SearchURL     string           `mapstructure:"search_url" json:"search_url"`
	Render        Render           `mapstructure:"render" json:"render"`
	SettleTimeout time.Duration    `mapstructure:"settle_timeout" json:"settle_timeout"`
	Listing       ListingSelectors `mapstructure:"listing" json:"listing"`
	Detail        DetailSelectors  `mapstructure:"detail" json:"detail"`
	Exclude       []string         `mapstructure:"exclude" json:"exclude,omitempty"`
	Keep          []string         `mapstructure:"keep" json:"keep,omitempty"`
	MaxResults    int              `mapstructure:"max_results" json:"max_results"`
	Retries       int              `mapstructure:"retries" json:"retries"`
	RespectRobots bool             `mapstructure:"respect_robots" json:"respect_robots"`
}

// WithDefaults fills zero values.
func (c Config) WithDefaults() Config {
	if c.Render == "" {
		c.Render = RenderHTTP
	}
	if c.SettleTimeout == 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	return c
}

// Validate reports the first problem that makes c unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: store name is required", model.ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: store %s: base_url %q is not an absolute http(s) url", model.ErrInvalidConfig, c.Name, c.BaseURL)
	}
	if !strings.Contains(c.SearchURL, "{query}") && !strings.Contains(c.SearchURL, "{path}") {
		return fmt.Errorf("%w: store %s: search_url needs a {query} or {path} placeholder", model.ErrInvalidConfig, c.Name)
	}
	switch c.Render {
	case "", RenderHTTP, RenderBrowser:
	default:
		return fmt.Errorf("%w: store %s: unknown render %q", model.ErrInvalidConfig, c.Name, c.Render)
	}
	if c.Listing.Card == "" {
		return fmt.Errorf("%w: store %s: listing.card selector is required", model.ErrInvalidConfig, c.Name)
	}
	if c.Detail.Name == "" {
		return fmt.Errorf("%w: store %s: detail.name selector is required", model.ErrInvalidConfig, c.Name)
	}
	if c.MaxResults < 0 || c.Retries < 0 || c.SettleTimeout < 0 {
		return fmt.Errorf("%w: store %s: max_results, retries and settle_timeout must not be negative", model.ErrInvalidConfig, c.Name)
	}
	return nil
}

// SearchURLFor expands the search template for query.
func (c Config) SearchURLFor(query string) string {
	query = strings.TrimSpace(query)
	out := strings.NewReplacer(
		"{query}", url.QueryEscape(query),
		"{path}", url.PathEscape(query),
	).Replace(c.SearchURL)

	ref, err := url.Parse(out)
	if err != nil || ref.IsAbs() {
		return out
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return out
	}
	return base.ResolveReference(ref).String()
}

// Excluded reports whether a listing name hits an exclude keyword without
// also naming a keep keyword.
func (c Config) Excluded(name string) bool {
	lower := strings.ToLower(name)
	hit := false
	for _, kw := range c.Exclude {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, kw := range c.Keep {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
