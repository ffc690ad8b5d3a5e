package assist

import (
	"context"
	"regexp"
	"strings"

	"github.com/FranksOps/rigscout/internal/analyzer"
	"github.com/FranksOps/rigscout/internal/extract"
	"github.com/FranksOps/rigscout/internal/model"
)

var purposeKeywords = []struct {
	purpose  string
	keywords []string
}{
	{"gaming", []string{"gaming", "gamer", "juegos", "jugar", "videojuegos", "games"}},
	{"design", []string{"diseño grafico", "diseño", "graphic design", "design", "edicion de video", "video editing", "renderizado", "render", "workstation"}},
	{"office", []string{"oficina", "office", "trabajo de oficina"}},
	{"study", []string{"estudiar", "estudio", "estudios", "universidad", "clases", "colegio", "escuela", "study", "studying", "school", "university", "college"}},
}

var modalityKeywords = []struct {
	modality string
	keywords []string
}{
	{"laptop", []string{"laptop", "portatil", "notebook"}},
	{"desktop", []string{"escritorio", "desktop", "torre"}},
}

var budgetKeywords = []struct {
	budget   string
	keywords []string
}{
	{"low", []string{"barato", "barata", "economico", "economica", "bajo presupuesto", "cheap", "low budget"}},
	{"high", []string{"gama alta", "alto rendimiento", "alta gama", "potente", "high end", "high-end"}},
	{"medium", []string{"gama media", "precio medio", "mid range", "mid-range"}},
}

var (
	gpuWanted    = []string{"tarjeta grafica", "tarjeta de video", "grafica dedicada", "gpu", "graphics card", "dedicated graphics"}
	gpuNotNeeded = []string{"graficos integrados", "grafica integrada", "integrated graphics"}
	cpuBrands    = []struct {
		brand    model.CPUBrand
		keywords []string
	}{
		{model.CPUIntel, []string{"intel"}},
		{model.CPUAMD, []string{"amd", "ryzen"}},
		{model.CPUApple, []string{"apple", "macbook"}},
	}
)

const amount = `(?:us\s*)?\$?\s*(\d[\d.,]*)\s*(gb|tb)?`

var (
	priceBetween = regexp.MustCompile(`(?i)\bentre\s+` + amount + `\s+y\s+` + amount)
	priceMax     = regexp.MustCompile(`(?i)\b(?:menos\s+de|hasta|m[aá]ximo(?:\s+de)?|no\s+m[aá]s\s+de|under|below|less\s+than|up\s+to)\s*` + amount)
	priceMin     = regexp.MustCompile(`(?i)\b(?:m[aá]s\s+de|desde|m[ií]nimo(?:\s+de)?|over|above|more\s+than)\s*` + amount)
)

// RuleExtractor reads entities with keyword and pattern rules. It needs no
// network and never fails.
type RuleExtractor struct {
	specs *extract.Extractor
}

// NewRuleExtractor returns an extractor that reuses the listing rule table
// for hardware quantities.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{specs: extract.New()}
}

// Extract implements EntityExtractor.
func (r *RuleExtractor) Extract(_ context.Context, text string) (model.Entities, error) {
	e := model.EmptyEntities()
	if strings.TrimSpace(text) == "" {
		return e, nil
	}
	folded := analyzer.Fold(text)

	for _, p := range purposeKeywords {
		if analyzer.ContainsAny(folded, p.keywords...) {
			e.Purpose = append(e.Purpose, p.purpose)
		}
	}
	for _, m := range modalityKeywords {
		if analyzer.ContainsAny(folded, m.keywords...) {
			e.Modality = append(e.Modality, m.modality)
		}
	}
	for _, b := range budgetKeywords {
		if analyzer.ContainsAny(folded, b.keywords...) {
			e.Budget = b.budget
			break
		}
	}

	spec := r.specs.Extract(text)
	e.Specs.RAMGB = spec.RAMGB
	e.Specs.StorageGB = spec.StorageGB
	if spec.StorageType != nil {
		e.Specs.StorageType = string(*spec.StorageType)
	}
	if spec.CPUBrand != nil {
		e.Specs.CPUBrand = string(*spec.CPUBrand)
	} else {
		for _, c := range cpuBrands {
			if analyzer.ContainsAny(folded, c.keywords...) {
				e.Specs.CPUBrand = string(c.brand)
				break
			}
		}
	}
	if spec.GPUModel != nil && spec.GPURequired {
		e.Specs.GPUModel = *spec.GPUModel
	}
	switch {
	case analyzer.ContainsAny(folded, gpuNotNeeded...):
		no := false
		e.Specs.GPURequired = &no
	case e.Specs.GPUModel != "" || analyzer.ContainsAny(folded, gpuWanted...):
		yes := true
		e.Specs.GPURequired = &yes
	}

	e.MinPrice, e.MaxPrice = prices(text)
	return e, nil
}

// prices reads a price range. Quantities followed by GB or TB are sizes, not prices.
func prices(text string) (lo, hi *float64) {
	if m := priceBetween.FindStringSubmatch(text); m != nil && m[2] == "" && m[4] == "" {
		return extract.ParsePrice(m[1]), extract.ParsePrice(m[3])
	}
	for _, m := range priceMax.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			hi = extract.ParsePrice(m[1])
			break
		}
	}
	for _, m := range priceMin.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			lo = extract.ParsePrice(m[1])
			break
		}
	}
	return lo, hi
}
