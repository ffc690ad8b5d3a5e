package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/recommend"
	"github.com/FranksOps/rigscout/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rigscout.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads defaults when no file exists", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.HTTP.Addr != ":8080" {
			t.Errorf("HTTP.Addr = %s, want :8080", cfg.HTTP.Addr)
		}
		if cfg.HTTP.RequestTimeout != 2*time.Minute {
			t.Errorf("HTTP.RequestTimeout = %v, want 2m", cfg.HTTP.RequestTimeout)
		}
		if cfg.Recommend != recommend.DefaultConfig() {
			t.Errorf("Recommend = %+v, want %+v", cfg.Recommend, recommend.DefaultConfig())
		}
		if cfg.Storage.Backend != BackendNone {
			t.Errorf("Storage.Backend = %s, want none", cfg.Storage.Backend)
		}
		if cfg.GenAI.Enabled() {
			t.Error("GenAI should be disabled without an API key")
		}
		if !cfg.Browser.Headless {
			t.Error("Browser.Headless should default to true")
		}
		if len(cfg.Stores) != len(store.Defaults()) {
			t.Errorf("len(Stores) = %d, want the %d built-in stores", len(cfg.Stores), len(store.Defaults()))
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("RIGSCOUT_HTTP_ADDR", ":9090")
		t.Setenv("RIGSCOUT_RECOMMEND_WORKERS", "4")
		t.Setenv("RIGSCOUT_GENAI_API_KEY", "test-key")
		t.Setenv("RIGSCOUT_FETCH_USER_AGENTS", "UA-1,UA-2")
		t.Setenv("RIGSCOUT_LOG_FORMAT", "json")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.HTTP.Addr != ":9090" {
			t.Errorf("HTTP.Addr = %s, want :9090", cfg.HTTP.Addr)
		}
		if cfg.Recommend.Workers != 4 {
			t.Errorf("Recommend.Workers = %d, want 4", cfg.Recommend.Workers)
		}
		if !cfg.GenAI.Enabled() || cfg.GenAI.APIKey != "test-key" {
			t.Errorf("GenAI.APIKey = %q, want test-key", cfg.GenAI.APIKey)
		}
		if cfg.GenAI.Model != "gemini-2.0-flash-001" {
			t.Errorf("GenAI.Model = %s, want the default model", cfg.GenAI.Model)
		}
		if len(cfg.Fetch.UserAgents) != 2 || cfg.Fetch.UserAgents[1] != "UA-2" {
			t.Errorf("Fetch.UserAgents = %v, want [UA-1 UA-2]", cfg.Fetch.UserAgents)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("file replaces the store table", func(t *testing.T) {
		path := writeConfig(t, `
recommend:
  min_score: 0.6
  max_results: 3
storage:
  backend: sqlite
  dsn: runs.db
stores:
  - name: local
    base_url: http://localhost:8081
    search_url: /buscar?q={query}
    settle_timeout: 5s
    listing:
      card: div.item
      name: a.t
    detail:
      name: h1
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Recommend.MinScore != 0.6 || cfg.Recommend.MaxResults != 3 {
			t.Errorf("Recommend = %+v, want min_score 0.6 and max_results 3", cfg.Recommend)
		}
		if cfg.Recommend.Workers != recommend.DefaultWorkers {
			t.Errorf("Recommend.Workers = %d, want default %d", cfg.Recommend.Workers, recommend.DefaultWorkers)
		}
		if len(cfg.Stores) != 1 {
			t.Fatalf("len(Stores) = %d, want 1", len(cfg.Stores))
		}
		s := cfg.Stores[0]
		if s.Name != "local" || s.Listing.Card != "div.item" || s.SettleTimeout != 5*time.Second {
			t.Errorf("unexpected store %+v", s)
		}
		if cfg.Storage.Backend != BackendSQLite || cfg.Storage.DSN != "runs.db" {
			t.Errorf("Storage = %+v", cfg.Storage)
		}
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Load() error = nil, want error for missing file")
		}
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero workers", map[string]string{"RIGSCOUT_RECOMMEND_WORKERS": "0"}},
		{"min score above one", map[string]string{"RIGSCOUT_RECOMMEND_MIN_SCORE": "1.5"}},
		{"unknown backend", map[string]string{"RIGSCOUT_STORAGE_BACKEND": "redis"}},
		{"backend without dsn", map[string]string{"RIGSCOUT_STORAGE_BACKEND": "postgres"}},
		{"unknown fingerprint", map[string]string{"RIGSCOUT_FETCH_FINGERPRINT": "netscape"}},
		{"inverted pace", map[string]string{"RIGSCOUT_RECOMMEND_PACE_MIN": "2s", "RIGSCOUT_RECOMMEND_PACE_MAX": "1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if !errors.Is(err, model.ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_DuplicateStores(t *testing.T) {
	path := writeConfig(t, `
stores:
  - name: dup
    base_url: https://a.example
    search_url: /s?q={query}
    listing: {card: div}
    detail: {name: h1}
  - name: DUP
    base_url: https://b.example
    search_url: /s?q={query}
    listing: {card: div}
    detail: {name: h1}
`)
	if _, err := Load(path); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}
