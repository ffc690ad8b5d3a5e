// Package scoring rates a product against a requirement profile.
//
// Disqualifiers are evaluated first and short-circuit to model.Disqualified.
// A disqualified candidate is a hard filter: callers drop it rather than rank
// it last.
package scoring

import (
	"fmt"
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
)

const (
	// ReferencePrice is the ceiling the price partial decays against when the
	// profile has no MaxPrice.
	ReferencePrice = 2000.0

	// RAM and storage sizes that earn full credit when no minimum is set.
	ReferenceRAMGB     = 32
	ReferenceStorageGB = 1024

	// PreferStoreBonus is added flat when the product comes from the preferred store.
	PreferStoreBonus = 0.05

	cpuBrandMatch    = 1.0
	cpuUnconstrained = 0.5
	gpuPresent       = 1.0
	gpuDesired       = 2.0
)

// Breakdown explains a score.
type Breakdown struct {
	Score        float64 `json:"score"`
	Disqualified string  `json:"disqualified,omitempty"`
	Price        float64 `json:"price"`
	RAM          float64 `json:"ram"`
	CPU          float64 `json:"cpu"`
	GPU          float64 `json:"gpu"`
	Storage      float64 `json:"storage"`
	Bonus        float64 `json:"bonus"`
}

func (b Breakdown) String() string {
	if b.Disqualified != "" {
		return "disqualified: " + b.Disqualified
	}
	return fmt.Sprintf("score=%.3f price=%.2f ram=%.2f cpu=%.2f gpu=%.2f storage=%.2f bonus=%.2f",
		b.Score, b.Price, b.RAM, b.CPU, b.GPU, b.Storage, b.Bonus)
}

// Score returns the weighted score of p, or model.Disqualified.
func Score(p model.ProductDetail, req model.RequirementProfile) float64 {
	return Explain(p, req).Score
}

// Explain scores p and records every partial.
func Explain(p model.ProductDetail, req model.RequirementProfile) Breakdown {
	var spec model.Specification
	if p.Specifications != nil {
		spec = *p.Specifications
	}

	if reason := disqualify(p.Price, spec, req); reason != "" {
		return Breakdown{Score: model.Disqualified, Disqualified: reason}
	}

	b := Breakdown{
		Price:   pricePartial(p.Price, req.MaxPrice),
		RAM:     sizePartial(spec.RAMGB, req.MinRAMGB, ReferenceRAMGB),
		CPU:     cpuPartial(spec, req.CPUBrand),
		GPU:     gpuPartial(spec.GPUModel, req.DesiredGPUKeyword),
		Storage: sizePartial(spec.StorageGB, req.MinStorageGB, ReferenceStorageGB),
	}
	if req.PreferStore != "" && strings.EqualFold(req.PreferStore, p.Store) {
		b.Bonus = PreferStoreBonus
	}

	w := req.Weights
	b.Score = w.Price*b.Price + w.RAM*b.RAM + w.CPU*b.CPU + w.GPU*b.GPU + w.Storage*b.Storage + b.Bonus
	return b
}

func disqualify(price *float64, spec model.Specification, req model.RequirementProfile) string {
	if price != nil {
		if req.MaxPrice != nil && *price > *req.MaxPrice {
			return fmt.Sprintf("price %.2f above max %.2f", *price, *req.MaxPrice)
		}
		if req.MinPrice != nil && *price < *req.MinPrice {
			return fmt.Sprintf("price %.2f below min %.2f", *price, *req.MinPrice)
		}
	}
	if req.MinRAMGB > 0 && (spec.RAMGB == nil || *spec.RAMGB < req.MinRAMGB) {
		return fmt.Sprintf("ram below %dGB", req.MinRAMGB)
	}
	if req.CPUBrand != nil && !cpuMatches(spec, *req.CPUBrand) {
		return fmt.Sprintf("cpu is not %s", *req.CPUBrand)
	}
	if req.MinStorageGB > 0 && (spec.StorageGB == nil || *spec.StorageGB < req.MinStorageGB) {
		return fmt.Sprintf("storage below %dGB", req.MinStorageGB)
	}
	if req.GPURequired && spec.GPUModel == nil {
		return "no gpu"
	}
	return ""
}

func cpuMatches(spec model.Specification, brand model.CPUBrand) bool {
	want := strings.ToLower(string(brand))
	if spec.CPUModel != nil && strings.Contains(strings.ToLower(*spec.CPUModel), want) {
		return true
	}
	return spec.CPUBrand != nil && strings.Contains(strings.ToLower(string(*spec.CPUBrand)), want)
}

func pricePartial(price, maxPrice *float64) float64 {
	if price == nil {
		return 0
	}
	if maxPrice != nil && *maxPrice > 0 {
		ratio := *price / *maxPrice
		return max(0, 1-ratio)
	}
	return 1 - min(*price, ReferencePrice)/ReferencePrice
}

func sizePartial(v *int, minimum, reference int) float64 {
	if v == nil || *v <= 0 {
		return 0
	}
	if minimum <= 0 {
		minimum = reference
	}
	return min(float64(*v)/float64(minimum), 1)
}

func cpuPartial(spec model.Specification, brand *model.CPUBrand) float64 {
	switch {
	case brand != nil:
		// disqualify already guaranteed the match
		return cpuBrandMatch
	case spec.CPUModel != nil || spec.CPUBrand != nil:
		return cpuUnconstrained
	}
	return 0
}

func gpuPartial(gpuModel *string, desired string) float64 {
	if gpuModel == nil {
		return 0
	}
	if desired != "" && strings.Contains(strings.ToLower(*gpuModel), strings.ToLower(desired)) {
		return gpuDesired
	}
	return gpuPresent
}
