package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/rigscout/internal/storage"
)

func sampleRuns(now time.Time) []*storage.Run {
	return []*storage.Run{
		{
			Query:     "laptop para juegos",
			Outcome:   storage.OutcomeOK,
			Listings:  20,
			Products:  15,
			Results:   5,
			TopScore:  0.82,
			Failed:    []string{"la_ganga"},
			Duration:  4 * time.Second,
			CreatedAt: now.Add(2 * time.Minute),
		},
		{
			Query:        "laptop barata con 64GB",
			Outcome:      storage.OutcomeNoMatches,
			Listings:     10,
			Products:     9,
			Disqualified: 9,
			Failed:       []string{"la_ganga", "novicompu"},
			Duration:     2 * time.Second,
			CreatedAt:    now.Add(1 * time.Minute),
		},
		{
			Query:     "<b>impresora</b>",
			Outcome:   storage.OutcomeUnsupported,
			CreatedAt: now,
		},
	}
}

func TestGenerateSummary(t *testing.T) {
	now := time.Now()
	summary := GenerateSummary(sampleRuns(now))

	if summary.TotalRuns != 3 {
		t.Errorf("expected 3 runs, got %d", summary.TotalRuns)
	}
	if summary.Outcomes[storage.OutcomeOK] != 1 || summary.Outcomes[storage.OutcomeNoMatches] != 1 {
		t.Errorf("unexpected outcomes %v", summary.Outcomes)
	}
	if summary.StoreFailures["la_ganga"] != 2 || summary.StoreFailures["novicompu"] != 1 {
		t.Errorf("unexpected store failures %v", summary.StoreFailures)
	}
	if summary.TotalListings != 30 || summary.TotalProducts != 24 || summary.Disqualified != 9 {
		t.Errorf("unexpected totals %+v", summary)
	}
	if summary.BestScore != 0.82 {
		t.Errorf("expected best score 0.82, got %v", summary.BestScore)
	}
	if summary.AverageLatency != 2*time.Second {
		t.Errorf("expected average latency 2s, got %v", summary.AverageLatency)
	}
	if summary.Duration != 2*time.Minute {
		t.Errorf("expected duration 2m, got %v", summary.Duration)
	}
	if !summary.StartTime.Equal(now) {
		t.Errorf("expected start time %v, got %v", now, summary.StartTime)
	}
}

func TestGenerateSummary_Empty(t *testing.T) {
	summary := GenerateSummary(nil)
	if summary.TotalRuns != 0 || summary.AverageLatency != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summary); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "None") {
		t.Error("expected placeholders in an empty report")
	}
}

func TestGenerateSummary_CapsRecent(t *testing.T) {
	runs := make([]*storage.Run, RecentRuns+5)
	for i := range runs {
		runs[i] = &storage.Run{Outcome: storage.OutcomeOK}
	}
	if got := len(GenerateSummary(runs).Recent); got != RecentRuns {
		t.Errorf("expected %d recent runs, got %d", RecentRuns, got)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, GenerateSummary(sampleRuns(time.Now()))); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Runs:          3", "la_ganga: 2", "no_matches: 1", "laptop para juegos", "Best score:    0.820"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in text report:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, GenerateSummary(sampleRuns(time.Now()))); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["TotalRuns"].(float64) != 3 {
		t.Errorf("expected TotalRuns 3, got %v", decoded["TotalRuns"])
	}
}

func TestWriteHTML_EscapesQueries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, GenerateSummary(sampleRuns(time.Now()))); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>impresora</b>") {
		t.Error("expected query text to be escaped")
	}
	if !strings.Contains(out, "&lt;b&gt;impresora&lt;/b&gt;") {
		t.Error("expected escaped query in the recent runs table")
	}
}
