// Package storage keeps a log of recommendation runs: what was asked, the
// profile it produced and how the fan-out went. Listings and products are
// never stored.
package storage

import (
	"context"
	"time"

	"github.com/FranksOps/rigscout/internal/model"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeNoMatches         Outcome = "no_matches"
	OutcomeUnsupported       Outcome = "unsupported_intent"
	OutcomeTranslationFailed Outcome = "translation_failed"
	OutcomeCanceled          Outcome = "canceled"
	OutcomeFailed            Outcome = "failed"
)

// Run is the record of one GetRecommendations call.
type Run struct {
	ID           string                    `json:"id"`
	Query        string                    `json:"query"`
	Translated   string                    `json:"translated,omitempty"`
	Intent       model.Intent              `json:"intent,omitempty"`
	SearchText   string                    `json:"search_text,omitempty"`
	Profile      *model.RequirementProfile `json:"profile,omitempty"`
	Stores       int                       `json:"stores"`
	Failed       []string                  `json:"failed,omitempty"`
	Listings     int                       `json:"listings"`
	Products     int                       `json:"products"`
	Disqualified int                       `json:"disqualified"`
	Results      int                       `json:"results"`
	TopScore     float64                   `json:"top_score"`
	Outcome      Outcome                   `json:"outcome"`
	Duration     time.Duration             `json:"duration"`
	CreatedAt    time.Time                 `json:"created_at"`
	Error        string                    `json:"error,omitempty"`
}

// Filter allows querying for specific runs.
type Filter struct {
	Outcome Outcome
	Since   *time.Time
	Limit   int
	Offset  int
}

// Match reports whether r passes the filter's predicates. Limit and Offset
// are not considered.
func (f Filter) Match(r *Run) bool {
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Window applies Offset and Limit to runs already ordered newest first.
func (f Filter) Window(runs []*Run) []*Run {
	if f.Offset > 0 {
		if f.Offset >= len(runs) {
			return []*Run{}
		}
		runs = runs[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(runs) {
		runs = runs[:f.Limit]
	}
	return runs
}

// Backend defines the interface for storing and querying runs. Query returns
// the newest runs first.
type Backend interface {
	Save(ctx context.Context, run *Run) error
	Query(ctx context.Context, filter Filter) ([]*Run, error)
	Close() error
}

// Discard is a Backend that keeps nothing.
type Discard struct{}

func (Discard) Save(context.Context, *Run) error              { return nil }
func (Discard) Query(context.Context, Filter) ([]*Run, error) { return []*Run{}, nil }
func (Discard) Close() error                                  { return nil }
