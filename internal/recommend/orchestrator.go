// Package recommend drives the store adapters for one request and turns the
// pooled products into a ranked list.
package recommend

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/rigscout/internal/extract"
	"github.com/FranksOps/rigscout/internal/metrics"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/scoring"
	"github.com/FranksOps/rigscout/internal/scraper"
	"github.com/FranksOps/rigscout/internal/store"
	"github.com/FranksOps/rigscout/pkg/ratelimit"
)

const (
	CategoryComputer = "Computadora"

	DefaultWorkers    = 2
	DefaultMinScore   = 0.5
	DefaultMaxResults = 5
	DefaultPaceMin    = 500 * time.Millisecond
	DefaultPaceMax    = 1500 * time.Millisecond

	NoMatchesMessage = "No se encontraron computadoras que cumplan con los criterios en las tiendas."
)

// Config tunes the fan-out and the final cut.
type Config struct {
	Workers    int           `mapstructure:"workers"`
	MinScore   float64       `mapstructure:"min_score"`
	MaxResults int           `mapstructure:"max_results"`
	PaceMin    time.Duration `mapstructure:"pace_min"`
	PaceMax    time.Duration `mapstructure:"pace_max"`
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Workers:    DefaultWorkers,
		MinScore:   DefaultMinScore,
		MaxResults: DefaultMaxResults,
		PaceMin:    DefaultPaceMin,
		PaceMax:    DefaultPaceMax,
	}
}

// Orchestrator queries every adapter and ranks what comes back. It holds no
// per-request state and may serve concurrent requests.
type Orchestrator struct {
	adapters  []store.Adapter
	cfg       Config
	logger    *slog.Logger
	extractor *extract.Extractor
}

// New returns an Orchestrator over adapters. A zero Workers or MaxResults
// selects the default.
func New(adapters []store.Adapter, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		adapters:  adapters,
		cfg:       cfg,
		logger:    logger,
		extractor: extract.New(),
	}
}

// Adapters returns the stores this orchestrator queries.
func (o *Orchestrator) Adapters() []store.Adapter { return o.adapters }

// Result is the outcome of one run.
type Result struct {
	Candidates   []model.ScoredCandidate
	Stores       int
	Listings     int
	Products     int
	Disqualified int
	Failed       []string
}

// Entries renders the result as response entries. An empty result yields a
// single informational entry.
func (r Result) Entries() []model.Entry {
	if len(r.Candidates) == 0 {
		return []model.Entry{model.InfoEntry(CategoryComputer, NoMatchesMessage)}
	}
	out := make([]model.Entry, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, c.Entry())
	}
	return out
}

type storeYield struct {
	listings int
	products []model.ProductDetail
}

// Recommend searches every store for query, scores the pooled products
// against req and returns the ranked cut. Cancellation of ctx stops further
// store work; whatever was gathered is still ranked.
func (o *Orchestrator) Recommend(ctx context.Context, query string, req model.RequirementProfile) Result {
	var (
		mu     sync.Mutex
		pool   []model.ProductDetail
		res    Result
		failed []string
	)
	res.Stores = len(o.adapters)

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Workers)
	for _, a := range o.adapters {
		g.Go(func() error {
			y, err := o.runStore(ctx, a, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, a.Name())
				return nil
			}
			res.Listings += y.listings
			pool = append(pool, y.products...)
			return nil
		})
	}
	// workers never return errors; a failed store only shows up in failed
	_ = g.Wait()

	slices.Sort(failed)
	res.Failed = failed
	res.Products = len(pool)
	res.Candidates, res.Disqualified = Rank(pool, req, o.cfg.MinScore, o.cfg.MaxResults)
	return res
}

// runStore performs search and detail fetches for one adapter. A panic in the
// adapter is recovered and reported as an error.
func (o *Orchestrator) runStore(ctx context.Context, a store.Adapter, query string) (y storeYield, err error) {
	logger := o.logger.With("store", a.Name())
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.AdapterFailures.WithLabelValues(a.Name(), "panic").Inc()
			logger.Error("adapter panicked", "panic", r, "stack", string(debug.Stack()))
			y, err = storeYield{}, fmt.Errorf("recommend: store %s panicked: %v", a.Name(), r)
		}
	}()

	if ctx.Err() != nil {
		return y, nil
	}
	listings := a.Search(ctx, query)
	y.listings = len(listings)

	pacer := ratelimit.NewPacer(o.cfg.PaceMin, o.cfg.PaceMax)
	for _, l := range listings {
		if _, ok := scraper.Resolve("", l.URL); !ok {
			logger.Warn("listing without a usable link skipped", "name", l.Name, "url", l.URL)
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			logger.Info("store run interrupted", "err", err, "products", len(y.products))
			break
		}
		detail := a.FetchDetail(ctx, l.URL)
		pacer.Done()
		if detail == nil {
			continue
		}
		p := model.Merge(l, detail)
		if p.Specifications == nil {
			spec := o.extractor.Extract(extract.Text(p.Name, p.Description))
			p.Specifications = &spec
		}
		y.products = append(y.products, p)
	}
	logger.Info("store finished", "listings", y.listings, "products", len(y.products), "duration", time.Since(start))
	return y, nil
}

// Rank scores products against req, drops disqualified ones and those below
// minScore, orders the rest and truncates to maxResults. The order is total:
// score descending, then known price ascending, then name and URL.
func Rank(products []model.ProductDetail, req model.RequirementProfile, minScore float64, maxResults int) ([]model.ScoredCandidate, int) {
	disqualified := 0
	var out []model.ScoredCandidate
	for _, p := range products {
		score := scoring.Score(p, req)
		metrics.RecordScore(score == model.Disqualified)
		if score == model.Disqualified {
			disqualified++
			continue
		}
		if score < minScore {
			continue
		}
		out = append(out, model.ScoredCandidate{
			Category:    CategoryComputer,
			Description: describe(p),
			Details:     p,
			Score:       score,
		})
	}

	slices.SortFunc(out, compareCandidates)
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, disqualified
}

func compareCandidates(a, b model.ScoredCandidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	pa, pb := a.Details.Price, b.Details.Price
	switch {
	case pa != nil && pb == nil:
		return -1
	case pa == nil && pb != nil:
		return 1
	case pa != nil && pb != nil:
		if c := cmp.Compare(*pa, *pb); c != 0 {
			return c
		}
	}
	if c := strings.Compare(a.Details.Name, b.Details.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Details.URL, b.Details.URL)
}

func describe(p model.ProductDetail) string {
	storeName := p.Store
	if storeName == "" {
		storeName = "N/A"
	}
	return fmt.Sprintf("Una excelente opción para tu necesidad: %s (%s)", p.Name, storeName)
}
