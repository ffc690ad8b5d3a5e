package requirement

import (
	"fmt"
	"strings"

	"github.com/FranksOps/rigscout/internal/model"
)

// Purpose is a normalized usage key.
type Purpose string

const (
	PurposeGaming Purpose = "gaming"
	PurposeDesign Purpose = "design"
	PurposeOffice Purpose = "office"
	PurposeStudy  Purpose = "study"
)

// Baseline is the fixed threshold and weight record for one purpose.
type Baseline struct {
	MinRAMGB     int
	MinStorageGB int
	GPURequired  bool
	Weights      model.Weights
	// rank orders purposes when choosing whose weights win; higher wins.
	rank int
}

var defaultBaseline = Baseline{
	Weights: model.Weights{Price: .25, RAM: .20, CPU: .20, GPU: .20, Storage: .15},
}

var baselines = map[Purpose]Baseline{
	PurposeGaming: {
		MinRAMGB: 16, MinStorageGB: 512, GPURequired: true,
		Weights: model.Weights{Price: .15, RAM: .15, CPU: .20, GPU: .40, Storage: .10},
		rank:    4,
	},
	PurposeDesign: {
		MinRAMGB: 16, MinStorageGB: 512, GPURequired: true,
		Weights: model.Weights{Price: .20, RAM: .30, CPU: .25, GPU: .15, Storage: .10},
		rank:    3,
	},
	PurposeOffice: {
		MinRAMGB: 8, MinStorageGB: 256,
		Weights: model.Weights{Price: .40, RAM: .20, CPU: .20, GPU: .05, Storage: .15},
		rank:    2,
	},
	PurposeStudy: {
		MinRAMGB: 8, MinStorageGB: 256,
		Weights: model.Weights{Price: .40, RAM: .20, CPU: .20, GPU: .05, Storage: .15},
		rank:    1,
	},
}

var purposeAliases = map[string]Purpose{
	"gaming":         PurposeGaming,
	"gamer":          PurposeGaming,
	"juegos":         PurposeGaming,
	"design":         PurposeDesign,
	"graphic_design": PurposeDesign,
	"diseño grafico": PurposeDesign,
	"diseño gráfico": PurposeDesign,
	"diseño":         PurposeDesign,
	"workstation":    PurposeDesign,
	"office":         PurposeOffice,
	"oficina":        PurposeOffice,
	"study":          PurposeStudy,
	"studying":       PurposeStudy,
	"estudio":        PurposeStudy,
	"estudios":       PurposeStudy,
}

// ParsePurpose normalizes a raw purpose string.
func ParsePurpose(raw string) (Purpose, bool) {
	p, ok := purposeAliases[strings.ToLower(strings.TrimSpace(raw))]
	return p, ok
}

// BaselineFor returns the baseline of p, or the default baseline.
func BaselineFor(p Purpose) Baseline {
	if b, ok := baselines[p]; ok {
		return b
	}
	return defaultBaseline
}

// ValidateTable checks every baseline's weights.
func ValidateTable() error {
	if err := defaultBaseline.Weights.Validate(); err != nil {
		return fmt.Errorf("default baseline: %w", err)
	}
	for p, b := range baselines {
		if err := b.Weights.Validate(); err != nil {
			return fmt.Errorf("baseline %s: %w", p, err)
		}
	}
	return nil
}

func init() {
	if err := ValidateTable(); err != nil {
		panic(err)
	}
}
