// Package assist holds the text-understanding collaborators of a
// recommendation request: intent classification, entity extraction,
// translation and the expert advisory. Each has an offline implementation
// and a generative-model implementation (GenAI).
package assist

import (
	"context"

	"github.com/FranksOps/rigscout/internal/model"
)

// IntentClassifier decides which product category a request is about.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) model.Intent
}

// EntityExtractor reads structured entities out of a request. On error the
// caller substitutes model.EmptyEntities().
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (model.Entities, error)
}

// Translator normalizes a request into the language the other collaborators
// expect. A failure is reported in the Translation, not as an error.
type Translator interface {
	Translate(ctx context.Context, text string) model.Translation
}

// Advisor writes a free-text recommendation over the ranked candidates.
type Advisor interface {
	Advise(ctx context.Context, originalQuery string, candidates []model.ScoredCandidate) (string, error)
}

// Passthrough is the identity Translator.
type Passthrough struct{}

// Translate returns text unchanged.
func (Passthrough) Translate(_ context.Context, text string) model.Translation {
	return model.Translation{Success: true, TranslatedText: text}
}
