// Package requirement derives a RequirementProfile from extracted entities.
package requirement

import (
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
)

// HighBudgetGamingGPU is the GPU keyword preferred for a high-budget gaming
// request that names no model.
const HighBudgetGamingGPU = "RTX 3050"

// Build maps entities onto a concrete profile. It is deterministic and never
// lowers a baseline minimum.
func Build(e model.Entities) model.RequirementProfile {
	var profile model.RequirementProfile
	purposes := map[Purpose]bool{}
	best, bestSet := defaultBaseline, false

	for _, raw := range e.Purpose {
		p, ok := ParsePurpose(raw)
		if !ok || purposes[p] {
			continue
		}
		purposes[p] = true
		b := BaselineFor(p)
		profile.MinRAMGB = max(profile.MinRAMGB, b.MinRAMGB)
		profile.MinStorageGB = max(profile.MinStorageGB, b.MinStorageGB)
		profile.GPURequired = profile.GPURequired || b.GPURequired
		if !bestSet || b.rank > best.rank {
			best, bestSet = b, true
		}
	}
	profile.Weights = best.Weights

	s := e.Specs
	if s.RAMGB != nil {
		profile.MinRAMGB = max(profile.MinRAMGB, *s.RAMGB)
	}
	if s.StorageGB != nil {
		profile.MinStorageGB = max(profile.MinStorageGB, *s.StorageGB)
	}
	if st, ok := model.ParseStorageType(s.StorageType); ok {
		profile.StorageType = &st
	}
	if b, ok := model.ParseCPUBrand(s.CPUBrand); ok {
		profile.CPUBrand = &b
	}
	if gpu := strings.TrimSpace(s.GPUModel); gpu != "" {
		profile.DesiredGPUKeyword = gpu
		profile.GPURequired = true
	}
	if s.GPURequired != nil && *s.GPURequired {
		profile.GPURequired = true
	}

	budget, hasBudget := ParseBudget(e.Budget)
	if purposes[PurposeGaming] && hasBudget && budget == BudgetHigh && profile.DesiredGPUKeyword == "" {
		profile.DesiredGPUKeyword = HighBudgetGamingGPU
	}

	if e.MinPrice != nil || e.MaxPrice != nil {
		profile.MinPrice = positive(e.MinPrice)
		profile.MaxPrice = positive(e.MaxPrice)
	} else if hasBudget {
		if ceiling, ok := budget.Ceiling(); ok {
			profile.MaxPrice = &ceiling
		}
	}
	return profile
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}
