package extract

import (
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
)

// Extractor applies an ordered rule table to listing text.
type Extractor struct {
	rules []Rule
}

// New returns an Extractor over rules. With no rules it uses DefaultRules.
func New(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Extract reads a Specification out of text. Fields no rule matched stay nil.
func (e *Extractor) Extract(text string) model.Specification {
	var out model.Specification
	done := make(map[Field]bool, 4)
	for _, r := range e.rules {
		if done[r.Field] {
			continue
		}
		partial, ok := r.Match(text)
		if !ok {
			continue
		}
		apply(&out, partial, r.Field)
		done[r.Field] = true
	}
	return out
}

func apply(dst *model.Specification, src model.Specification, f Field) {
	switch f {
	case FieldRAM:
		dst.RAMGB = src.RAMGB
	case FieldStorage:
		dst.StorageGB = src.StorageGB
		dst.StorageType = src.StorageType
	case FieldCPU:
		dst.CPUBrand = src.CPUBrand
		dst.CPUModel = src.CPUModel
	case FieldGPU:
		dst.GPUModel = src.GPUModel
		dst.GPURequired = src.GPURequired
	}
}

var std = New()

// Extract runs the default rule table over text.
func Extract(text string) model.Specification {
	return std.Extract(text)
}

// Text joins the non-empty parts a listing exposes (name, description, spec
// table rows) into the single string the rules run over.
func Text(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
