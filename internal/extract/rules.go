// Package extract turns free listing text into a canonical Specification.
//
// Extraction is driven by an ordered rule table. Rules are evaluated top to
// bottom and the first accepted match for a field wins; later rules for that
// field are skipped. Each rule is a pure function of the text, so running the
// table twice over the same input yields the same record.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
)

// Field names the Specification field group a rule fills.
type Field string

const (
	FieldRAM     Field = "ram"
	FieldStorage Field = "storage"
	FieldCPU     Field = "cpu"
	FieldGPU     Field = "gpu"
)

// Rule is one row of the extraction table. Apply receives each submatch of
// Pattern in order and reports whether it accepted the match.
type Rule struct {
	Name    string
	Field   Field
	Pattern *regexp.Regexp
	Apply   func(m []string, spec *model.Specification) bool
}

// Match runs a single rule against text and returns the resulting partial record.
func (r Rule) Match(text string) (model.Specification, bool) {
	var spec model.Specification
	for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
		if r.Apply(m, &spec) {
			return spec, true
		}
	}
	return model.Specification{}, false
}

const sp = `[\s®™]*`

var defaultRules = []Rule{
	// RAM: explicit forms first so a storage size is never read as memory.
	{
		Name:    "ram-explicit",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,3})\s*GB\s*(?:de\s+)?(?:(?:LP)?DDR\d\w?\s*)?(?:de\s+)?(?:memoria\s+)?RAM\b`),
		Apply:   setRAM(1),
	},
	{
		Name:    "ram-labeled",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)\b(?:memoria\s+ram|memoria|ram)\s*[:\-]?\s*(?:de\s+)?(\d{1,3})\s*GB\b`),
		Apply:   setRAM(1),
	},
	{
		Name:    "ram-ddr",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,3})\s*GB\s*(?:LP)?DDR\d`),
		Apply:   setRAM(1),
	},
	{
		Name:    "ram-bare",
		Field:   FieldRAM,
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,3})\s*GB\b(\s*(?:SSD|HDD|NVMe|M\.2|eMMC|UFS|GDDR\d?|VRAM|de\s+(?:video|almacenamiento)|almacenamiento|storage|disco))?`),
		Apply: func(m []string, spec *model.Specification) bool {
			if m[2] != "" {
				return false
			}
			return setRAM(1)(m, spec)
		},
	},

	// Storage: typed quantities, then labeled or unambiguous untyped ones.
	{
		Name:    "storage-typed",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,4})\s*(GB|TB)\s*(?:de\s+)?(?:PCIe\s*(?:Gen\s*\d\s*)?)?(?:M\.2\s*)?(NVMe|SSD|HDD|M\.2)\b`),
		Apply:   setStorage(1, 2, 3),
	},
	{
		Name:    "storage-type-first",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(NVMe|SSD|HDD)\s*(?:M\.2\s*)?(?:de\s+)?(\d{1,4})\s*(GB|TB)\b`),
		Apply:   setStorage(2, 3, 1),
	},
	{
		Name:    "storage-labeled",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(?:almacenamiento|storage|disco(?:\s+duro)?|capacidad)\s*[:\-]?\s*(?:de\s+)?(\d{1,4})\s*(GB|TB)\b`),
		Apply:   setStorage(1, 2, 0),
	},
	{
		Name:    "storage-terabytes",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(TB)\b`),
		Apply:   setStorage(1, 2, 0),
	},
	{
		Name:    "storage-bare",
		Field:   FieldStorage,
		Pattern: regexp.MustCompile(`(?i)\b(\d{3,4})\s*GB\b(\s*(?:de\s+)?(?:memoria\s+)?(?:RAM|GDDR|VRAM))?`),
		Apply: func(m []string, spec *model.Specification) bool {
			if m[2] != "" {
				return false
			}
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 120 {
				return false
			}
			spec.StorageGB = &n
			return true
		},
	},

	// CPU: vendor-qualified names, then bare family names, then a labeled line.
	{
		Name:    "cpu-apple",
		Field:   FieldCPU,
		Pattern: regexp.MustCompile(`(?i)\bApple\s+(?:Silicon\s+)?M[1-5](?:\s+(?:Pro|Max|Ultra))?\b`),
		Apply: func(m []string, spec *model.Specification) bool {
			setCPU(spec, model.CPUApple, m[0])
			return true
		},
	},
	{
		Name:    "cpu-apple-chip",
		Field:   FieldCPU,
		Pattern: regexp.MustCompile(`(?i)\bchip\s+(M[1-5](?:\s+(?:Pro|Max|Ultra))?)\b`),
		Apply: func(m []string, spec *model.Specification) bool {
			setCPU(spec, model.CPUApple, "Apple "+m[1])
			return true
		},
	},
	{
		Name:  "cpu-vendor",
		Field: FieldCPU,
		Pattern: regexp.MustCompile(`(?i)\b(Intel|AMD)` + sp + `(?:Core|Ryzen|Celeron|Pentium|Athlon|Xeon|Atom)` +
			`(?:` + sp + `(?:Ultra|Threadripper|Silver|Gold))?` +
			`(?:[\s®™\-]+[iIrR]?\d{1,2}\b)?` +
			`(?:[\s®™\-]+[A-Za-z]?\d{3,5}[A-Za-z]{0,3}\b)?`),
		Apply: func(m []string, spec *model.Specification) bool {
			brand, _ := model.ParseCPUBrand(m[1])
			setCPU(spec, brand, m[0])
			return true
		},
	},
	{
		Name:  "cpu-family",
		Field: FieldCPU,
		Pattern: regexp.MustCompile(`(?i)\b(?:Core` + sp + `(?:Ultra\s+)?i?[3579](?:[\s\-]+[A-Za-z]?\d{3,5}[A-Za-z]{0,3})?` +
			`|Ryzen` + sp + `[3579](?:\s+\d{4}[A-Za-z]{0,3})?)\b`),
		Apply: func(m []string, spec *model.Specification) bool {
			setCPU(spec, "", m[0])
			return true
		},
	},
	{
		Name:    "cpu-labeled",
		Field:   FieldCPU,
		Pattern: regexp.MustCompile(`(?i)\b(?:procesador|processor|cpu)\s*[:\-]\s*([^\n\r,;|]{3,60})`),
		Apply: func(m []string, spec *model.Specification) bool {
			text := strings.TrimSpace(m[1])
			if text == "" {
				return false
			}
			brand, _ := model.ParseCPUBrand(text)
			setCPU(spec, brand, text)
			return true
		},
	},

	// GPU: dedicated families first; integrated graphics only when none matched.
	{
		Name:  "gpu-nvidia",
		Field: FieldGPU,
		Pattern: regexp.MustCompile(`(?i)\b(?:(?:NVIDIA` + sp + `)?(?:GeForce` + sp + `)?(?:RTX|GTX)` + sp + `A?\d{3,4}(?:` + sp + `(?:Ti|Super))?` +
			`|(?:NVIDIA` + sp + `)?GeForce` + sp + `MX` + sp + `\d{3}` +
			`|NVIDIA` + sp + `MX` + sp + `\d{3})\b`),
		Apply: setGPU(true),
	},
	{
		Name:    "gpu-radeon",
		Field:   FieldGPU,
		Pattern: regexp.MustCompile(`(?i)\b(?:AMD` + sp + `)?Radeon` + sp + `(?:RX|Pro)` + sp + `\d{3,4}[A-Za-z]{0,2}\b`),
		Apply:   setGPU(true),
	},
	{
		Name:    "gpu-arc",
		Field:   FieldGPU,
		Pattern: regexp.MustCompile(`(?i)\bIntel` + sp + `Arc` + sp + `A\d{3}M?\b`),
		Apply:   setGPU(true),
	},
	{
		Name:  "gpu-integrated",
		Field: FieldGPU,
		Pattern: regexp.MustCompile(`(?i)\b(?:(?:Intel` + sp + `)?(?:Iris` + sp + `Xe(?:` + sp + `Graphics)?|U?HD` + sp + `Graphics(?:` + sp + `\d{3,4})?|Arc` + sp + `Graphics)` +
			`|(?:AMD` + sp + `)?Radeon` + sp + `(?:\d{3}M` + sp + `|Vega` + sp + `\d{0,2}` + sp + `)?Graphics)\b`),
		Apply: setGPU(false),
	},
}

// DefaultRules returns a copy of the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// RuleByName looks up a built-in rule.
func RuleByName(name string) (Rule, bool) {
	for _, r := range defaultRules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func setRAM(group int) func([]string, *model.Specification) bool {
	return func(m []string, spec *model.Specification) bool {
		n, err := strconv.Atoi(m[group])
		if err != nil || n < 2 || n > 128 {
			return false
		}
		spec.RAMGB = &n
		return true
	}
}

// setStorage reads quantity, unit and (optionally) type from the given groups.
// A zero typeGroup leaves StorageType unset.
func setStorage(qtyGroup, unitGroup, typeGroup int) func([]string, *model.Specification) bool {
	return func(m []string, spec *model.Specification) bool {
		n, err := strconv.Atoi(m[qtyGroup])
		if err != nil || n <= 0 {
			return false
		}
		unit := "GB"
		if unitGroup > 0 {
			unit = strings.ToUpper(m[unitGroup])
		}
		if unit == "TB" {
			if n > 16 {
				return false
			}
			n *= 1024
		} else if n < 16 {
			return false
		}
		spec.StorageGB = &n
		if typeGroup > 0 {
			if st, ok := model.ParseStorageType(m[typeGroup]); ok {
				spec.StorageType = &st
			}
		}
		return true
	}
}

func setCPU(spec *model.Specification, brand model.CPUBrand, raw string) {
	name := collapse(raw)
	spec.CPUModel = &name
	if brand != "" {
		spec.CPUBrand = &brand
	}
}

func setGPU(dedicated bool) func([]string, *model.Specification) bool {
	return func(m []string, spec *model.Specification) bool {
		name := collapse(m[0])
		if name == "" {
			return false
		}
		spec.GPUModel = &name
		spec.GPURequired = dedicated
		return true
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
