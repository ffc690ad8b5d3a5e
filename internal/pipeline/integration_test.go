//go:build integration

package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/rigscout/internal/fingerprint"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/pipeline"
	"github.com/FranksOps/rigscout/internal/recommend"
	"github.com/FranksOps/rigscout/internal/storage"
	"github.com/FranksOps/rigscout/internal/storage/sqlite"
	"github.com/FranksOps/rigscout/internal/store"
	"github.com/FranksOps/rigscout/pkg/proxy"
	"github.com/FranksOps/rigscout/pkg/useragent"
)

const searchPage = `<html><body><div class="results">
<div class="item"><a class="t" href="/p/legion">Lenovo Legion 5 Gaming</a><span class="p">$1.450,00</span></div>
<div class="item"><a class="t" href="/p/ideapad">Lenovo IdeaPad Slim 3</a><span class="p">$620,00</span></div>
<div class="item"><a class="t" href="/p/funda">Funda sleeve 15 pulgadas</a><span class="p">$20,00</span></div>
</div></body></html>`

var productPages = map[string]string{
	"/p/legion": `<html><body><h1>Lenovo Legion 5 Gaming</h1>
<div class="d">AMD Ryzen 7 7735HS, 16GB DDR5 RAM, 1TB SSD, NVIDIA GeForce RTX 4060 8GB</div></body></html>`,
	"/p/ideapad": `<html><body><h1>Lenovo IdeaPad Slim 3</h1>
<div class="d">Intel Core i5-1235U, 8GB RAM, 512GB SSD, Intel Iris Xe Graphics</div></body></html>`,
}

func storeConfig(name, base string) store.Config {
	return store.Config{
		Name:      name,
		BaseURL:   base,
		SearchURL: "/buscar?q={query}",
		Listing: store.ListingSelectors{
			Card:  "div.item",
			Name:  "a.t",
			Link:  "a.t",
			Price: "span.p",
		},
		Detail: store.DetailSelectors{
			Name:        "h1",
			Description: "div.d",
		},
		Exclude: store.AccessoryKeywords,
		Keep:    store.KeepKeywords,
		Retries: 1,
	}
}

func siteOptions() store.Options {
	return store.Options{
		Timeout:     5 * time.Second,
		Backoff:     time.Millisecond,
		Fingerprint: fingerprint.ProfileGo,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestIntegration_GamingRequestAcrossStores(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/buscar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, searchPage)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		page, ok := productPages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	good := httptest.NewServer(mux)
	defer good.Close()

	// Simulate a bot defense page from Cloudflare
	var blockedHits int32
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&blockedHits, 1)
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<html><body>cf-browser-verification</body></html>`)
	}))
	defer blocked.Close()

	adapters, err := store.NewAll([]store.Config{
		storeConfig("alpha", good.URL),
		storeConfig("walled", blocked.URL),
	}, siteOptions())
	if err != nil {
		t.Fatalf("failed to build adapters: %v", err)
	}
	defer func() {
		for _, a := range adapters {
			_ = a.Close()
		}
	}()

	runs, err := sqlite.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open run log: %v", err)
	}
	defer runs.Close()

	orch := recommend.New(adapters, recommend.Config{Workers: 2, MinScore: recommend.DefaultMinScore}, nil)
	svc := pipeline.New(orch, pipeline.Options{Runs: runs})

	text := "Necesito una laptop para juegos"
	entries := svc.GetRecommendations(context.Background(), text, model.Translation{Success: true, TranslatedText: text})

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(entries), entries)
	}
	top := entries[0]
	if top.Kind != model.EntryProduct || top.Details.Name != "Lenovo Legion 5 Gaming" {
		t.Fatalf("expected the Legion to win, got %+v", top)
	}
	if top.Details.Price == nil || *top.Details.Price != 1450 {
		t.Errorf("expected listing price 1450, got %v", top.Details.Price)
	}
	if top.Details.URL != good.URL+"/p/legion" {
		t.Errorf("expected absolute product URL, got %s", top.Details.URL)
	}
	if atomic.LoadInt32(&blockedHits) == 0 {
		t.Error("expected the blocked store to be queried")
	}

	saved, err := runs.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("failed to query runs: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 run, got %d", len(saved))
	}
	run := saved[0]
	if run.Outcome != storage.OutcomeOK || run.Stores != 2 || run.Listings != 2 || run.Disqualified != 1 {
		t.Errorf("unexpected run record %+v", run)
	}
}

func TestIntegration_ProxyRotation(t *testing.T) {
	var proxyHits int32
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyHits, 1)
		if got := r.Header.Get("User-Agent"); got != "IntegrationTest-UA" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, searchPage)
	}))
	defer proxySrv.Close()

	pool := proxy.NewPool(proxy.Config{})
	if err := pool.Add(proxySrv.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}

	opts := siteOptions()
	opts.ProxyPool = pool
	opts.UAPool = useragent.NewPool([]string{"IntegrationTest-UA"})

	// A remote base URL forces the transport through the proxy.
	site, err := store.New(storeConfig("remote", "http://example.com"), opts)
	if err != nil {
		t.Fatalf("failed to build site: %v", err)
	}
	defer site.Close()

	listings := site.Search(context.Background(), "laptop")
	if atomic.LoadInt32(&proxyHits) == 0 {
		t.Fatal("expected proxy server to be hit")
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings through the proxy, got %d", len(listings))
	}
	if listings[0].URL != "http://example.com/p/legion" {
		t.Errorf("expected links resolved against the store base, got %s", listings[0].URL)
	}
}
