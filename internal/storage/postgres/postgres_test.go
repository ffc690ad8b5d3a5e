package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if RIGSCOUT_TEST_PG_DSN is set
	dsn := os.Getenv("RIGSCOUT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: RIGSCOUT_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()
	run := &storage.Run{
		ID:         uuid.NewString(),
		Query:      "laptop para oficina",
		Intent:     model.IntentComputer,
		SearchText: "laptop",
		Profile: &model.RequirementProfile{
			MinRAMGB:     8,
			MinStorageGB: 256,
			Weights:      model.Weights{Price: .4, RAM: .2, CPU: .2, GPU: .05, Storage: .15},
		},
		Stores:    4,
		Failed:    []string{"novicompu"},
		Listings:  12,
		Products:  10,
		Results:   0,
		Outcome:   storage.OutcomeNoMatches,
		Duration:  50 * time.Millisecond,
		CreatedAt: now,
	}

	if err := b.Save(ctx, run); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	// Can be more than 1 if tests run repeatedly, so we just check the most recent
	past := now.Add(-1 * time.Minute)
	results, err := b.Query(ctx, storage.Filter{Outcome: storage.OutcomeNoMatches, Since: &past, Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query runs: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(results))
	}

	got := results[0]
	if got.ID != run.ID {
		t.Errorf("Expected ID %s, got %s", run.ID, got.ID)
	}
	if got.Profile == nil || got.Profile.MinStorageGB != 256 {
		t.Errorf("Profile did not round trip: %+v", got.Profile)
	}
	if len(got.Failed) != 1 || got.Failed[0] != "novicompu" {
		t.Errorf("Expected failed [novicompu], got %v", got.Failed)
	}
	if got.Duration.Milliseconds() != run.Duration.Milliseconds() {
		t.Errorf("Expected Duration %v, got %v", run.Duration, got.Duration)
	}
	// Postgres timestamps might differ slightly in sub-millisecond precision
	if got.CreatedAt.Unix() != run.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", run.CreatedAt, got.CreatedAt)
	}
}
