package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/rigscout/internal/config"
	"github.com/FranksOps/rigscout/internal/storage"
	"github.com/FranksOps/rigscout/internal/store"
)

const testConfig = `
log:
  level: error
storage:
  backend: json
  dsn: %s
stores:
  - name: alpha
    base_url: https://alpha.example
    search_url: /buscar?q={query}
    listing: {card: div.item}
    detail: {name: h1}
  - name: beta
    base_url: https://beta.example
    search_url: /s/{path}
    render: browser
    listing: {card: li}
    detail: {name: h1}
`

func writeTestConfig(t *testing.T) (cfgPath, runsPath string) {
	t.Helper()
	dir := t.TempDir()
	runsPath = filepath.Join(dir, "runs.ndjson")
	cfgPath = filepath.Join(dir, "rigscout.yaml")
	body := strings.Replace(testConfig, "%s", runsPath, 1)
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return cfgPath, runsPath
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("rigscout %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestStoresCommand(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out := execute(t, "--config", cfgPath, "stores")

	if !strings.Contains(out, "alpha") || !strings.Contains(out, "https://beta.example") {
		t.Errorf("expected both stores listed, got:\n%s", out)
	}
	if !strings.Contains(out, "browser") || !strings.Contains(out, "http") {
		t.Errorf("expected render modes listed, got:\n%s", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	cfgPath, runsPath := writeTestConfig(t)

	runs, err := openBackend(context.Background(), config.StorageConfig{Backend: config.BackendJSON, DSN: runsPath})
	if err != nil {
		t.Fatalf("failed to open run log: %v", err)
	}
	for i, outcome := range []storage.Outcome{storage.OutcomeOK, storage.OutcomeNoMatches, storage.OutcomeOK} {
		err := runs.Save(context.Background(), &storage.Run{
			ID:        "run-" + string(rune('a'+i)),
			Query:     "laptop",
			Outcome:   outcome,
			Stores:    2,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}
	_ = runs.Close()

	out := execute(t, "--config", cfgPath, "history", "--format", "json", "--outcome", "ok")
	if !strings.Contains(out, `"TotalRuns": 2`) {
		t.Errorf("expected two ok runs summarized, got:\n%s", out)
	}
}

func TestSelectStores(t *testing.T) {
	all := []store.Config{{Name: "novicompu"}, {Name: "computron"}}

	got, err := selectStores(all, []string{"COMPUTRON"})
	if err != nil {
		t.Fatalf("selectStores() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "computron" {
		t.Errorf("selectStores() = %+v, want computron only", got)
	}

	if _, err := selectStores(all, []string{"nope"}); err == nil {
		t.Error("expected an error for an unknown store")
	}

	if got, _ := selectStores(all, nil); len(got) != 2 {
		t.Errorf("an empty selection should keep every store, got %d", len(got))
	}
}

func TestOpenBackend(t *testing.T) {
	b, err := openBackend(context.Background(), config.StorageConfig{Backend: config.BackendNone})
	if err != nil {
		t.Fatalf("openBackend(none) error = %v", err)
	}
	if _, ok := b.(storage.Discard); !ok {
		t.Errorf("openBackend(none) = %T, want storage.Discard", b)
	}

	b, err = openBackend(context.Background(), config.StorageConfig{
		Backend: config.BackendSQLite,
		DSN:     filepath.Join(t.TempDir(), "runs.db"),
	})
	if err != nil {
		t.Fatalf("openBackend(sqlite) error = %v", err)
	}
	_ = b.Close()

	if _, err := openBackend(context.Background(), config.StorageConfig{Backend: "redis"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}
