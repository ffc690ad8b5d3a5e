package requirement

import "strings"

// Budget is a qualitative price band.
type Budget string

const (
	BudgetLow    Budget = "low"
	BudgetMedium Budget = "medium"
	BudgetHigh   Budget = "high"
)

var budgetCeilings = map[Budget]float64{
	BudgetLow:    600,
	BudgetMedium: 1200,
	BudgetHigh:   2500,
}

// ParseBudget accepts the English band names and their Spanish aliases.
func ParseBudget(raw string) (Budget, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "bajo", "barato", "economico", "económico":
		return BudgetLow, true
	case "medium", "medio", "moderado":
		return BudgetMedium, true
	case "high", "alto":
		return BudgetHigh, true
	}
	return "", false
}

// Ceiling returns the price ceiling of the band.
func (b Budget) Ceiling() (float64, bool) {
	v, ok := budgetCeilings[b]
	return v, ok
}
