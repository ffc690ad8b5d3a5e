package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC() // SQLite stores UTC well
	maxPrice := 2500.0

	run := &storage.Run{
		ID:         "run-1",
		Query:      "laptop para juegos",
		Translated: "gaming laptop",
		Intent:     model.IntentComputer,
		SearchText: "laptop 16GB RAM 512GB SSD tarjeta grafica gamer",
		Profile: &model.RequirementProfile{
			MinRAMGB:          16,
			MinStorageGB:      512,
			GPURequired:       true,
			DesiredGPUKeyword: "RTX 3050",
			MaxPrice:          &maxPrice,
			Weights:           model.Weights{Price: .15, RAM: .15, CPU: .2, GPU: .4, Storage: .1},
		},
		Stores:       4,
		Failed:       []string{"la_ganga"},
		Listings:     22,
		Products:     18,
		Disqualified: 9,
		Results:      5,
		TopScore:     0.91,
		Outcome:      storage.OutcomeOK,
		Duration:     1500 * time.Millisecond,
		CreatedAt:    now,
	}
	older := &storage.Run{
		ID:        "run-0",
		Query:     "impresora",
		Intent:    model.IntentPrinter,
		Outcome:   storage.OutcomeUnsupported,
		CreatedAt: now.Add(-2 * time.Hour),
	}

	for _, r := range []*storage.Run{older, run} {
		if err := b.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save run %s: %v", r.ID, err)
		}
	}

	results, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query runs: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(results))
	}
	if results[0].ID != "run-1" || results[1].ID != "run-0" {
		t.Errorf("Expected newest first, got %s, %s", results[0].ID, results[1].ID)
	}

	got := results[0]
	if got.Query != run.Query || got.Translated != run.Translated || got.SearchText != run.SearchText {
		t.Errorf("Text fields mismatch: %+v", got)
	}
	if got.Intent != model.IntentComputer {
		t.Errorf("Expected intent %s, got %s", model.IntentComputer, got.Intent)
	}
	if got.Profile == nil || got.Profile.MinRAMGB != 16 || got.Profile.MaxPrice == nil || *got.Profile.MaxPrice != maxPrice {
		t.Errorf("Profile did not round trip: %+v", got.Profile)
	}
	if len(got.Failed) != 1 || got.Failed[0] != "la_ganga" {
		t.Errorf("Expected failed [la_ganga], got %v", got.Failed)
	}
	if got.Listings != 22 || got.Products != 18 || got.Disqualified != 9 || got.Results != 5 {
		t.Errorf("Counts mismatch: %+v", got)
	}
	if got.Duration.Milliseconds() != run.Duration.Milliseconds() {
		t.Errorf("Expected Duration %v, got %v", run.Duration, got.Duration)
	}
	if got.CreatedAt.Unix() != run.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", run.CreatedAt, got.CreatedAt)
	}
	if results[1].Profile != nil {
		t.Errorf("Expected nil profile for gated run, got %+v", results[1].Profile)
	}

	// Outcome filter
	unsupported, err := b.Query(ctx, storage.Filter{Outcome: storage.OutcomeUnsupported})
	if err != nil {
		t.Fatalf("Failed to query by outcome: %v", err)
	}
	if len(unsupported) != 1 || unsupported[0].ID != "run-0" {
		t.Fatalf("Expected only run-0, got %d runs", len(unsupported))
	}

	// Since filter
	past := now.Add(-1 * time.Hour)
	recent, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query with Since: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(recent))
	}

	// Offset without limit
	rest, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with Offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "run-0" {
		t.Fatalf("Expected run-0 after offset, got %d runs", len(rest))
	}
}
