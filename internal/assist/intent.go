package assist

import (
	"context"

	"github.com/FranksOps/rigscout/internal/analyzer"
	"github.com/FranksOps/rigscout/internal/model"
)

// IntentRule maps a keyword set to an intent.
type IntentRule struct {
	Intent   model.Intent
	Keywords []string
}

// DefaultIntentRules are checked in order; the first rule with a keyword in
// the text wins. Computers come first so "laptop 16GB RAM" is a computer.
var DefaultIntentRules = []IntentRule{
	{model.IntentComputer, []string{"computadora", "computador", "laptop", "laptops", "portatil", "portatiles", "notebook", "pc", "ordenador", "computer", "desktop", "escritorio"}},
	{model.IntentMemory, []string{"ram", "memoria", "memory"}},
	{model.IntentStorage, []string{"disco", "almacenamiento", "ssd", "hdd", "nvme", "storage", "disk"}},
	{model.IntentPrinter, []string{"impresora", "printer"}},
}

// KeywordClassifier classifies by whole-word keyword matching.
type KeywordClassifier struct {
	Rules []IntentRule
}

// NewKeywordClassifier returns a classifier over DefaultIntentRules.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Rules: DefaultIntentRules}
}

// Classify returns the first matching intent, or model.IntentUnknown.
func (k *KeywordClassifier) Classify(_ context.Context, text string) model.Intent {
	intent, _ := k.Explain(text)
	return intent
}

// Explain classifies text and returns the keyword hits that decided it.
func (k *KeywordClassifier) Explain(text string) (model.Intent, []analyzer.TermMatch) {
	for _, rule := range k.Rules {
		if hits := analyzer.FindTermMatches(text, rule.Keywords); len(hits) > 0 {
			return rule.Intent, hits
		}
	}
	return model.IntentUnknown, nil
}
