package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranksOps/rigscout/internal/model"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func TestBuild_GamingHighBudget(t *testing.T) {
	p := Build(model.Entities{Purpose: []string{"gaming"}, Budget: "high"})

	assert.Equal(t, 16, p.MinRAMGB)
	assert.Equal(t, 512, p.MinStorageGB)
	assert.True(t, p.GPURequired)
	assert.Equal(t, HighBudgetGamingGPU, p.DesiredGPUKeyword)
	require.NotNil(t, p.MaxPrice)
	assert.Equal(t, 2500.0, *p.MaxPrice)
	assert.Nil(t, p.MinPrice)
	assert.Equal(t, BaselineFor(PurposeGaming).Weights, p.Weights)
}

func TestBuild_NoPurposeUsesDefault(t *testing.T) {
	p := Build(model.EmptyEntities())

	assert.Zero(t, p.MinRAMGB)
	assert.Zero(t, p.MinStorageGB)
	assert.False(t, p.GPURequired)
	assert.Nil(t, p.MaxPrice)
	assert.Equal(t, defaultBaseline.Weights, p.Weights)
}

func TestBuild_MergesPurposes(t *testing.T) {
	p := Build(model.Entities{Purpose: []string{"oficina", "diseño grafico"}})

	assert.Equal(t, 16, p.MinRAMGB)
	assert.Equal(t, 512, p.MinStorageGB)
	assert.True(t, p.GPURequired)
	// design outranks office for weights
	assert.Equal(t, BaselineFor(PurposeDesign).Weights, p.Weights)
}

func TestBuild_ExplicitSpecsOnlyRaise(t *testing.T) {
	p := Build(model.Entities{
		Purpose: []string{"gaming"},
		Specs:   model.RequestedSpecs{RAMGB: intp(8), StorageGB: intp(1024)},
	})
	assert.Equal(t, 16, p.MinRAMGB, "explicit RAM below baseline must not lower it")
	assert.Equal(t, 1024, p.MinStorageGB)

	p = Build(model.Entities{Specs: model.RequestedSpecs{RAMGB: intp(32)}})
	assert.Equal(t, 32, p.MinRAMGB)
}

func TestBuild_ExplicitGPUAndCPU(t *testing.T) {
	p := Build(model.Entities{
		Purpose: []string{"gaming"},
		Budget:  "alto",
		Specs: model.RequestedSpecs{
			GPUModel:    "RTX 4060",
			CPUBrand:    "amd",
			StorageType: "nvme",
		},
	})
	assert.Equal(t, "RTX 4060", p.DesiredGPUKeyword)
	require.NotNil(t, p.CPUBrand)
	assert.Equal(t, model.CPUAMD, *p.CPUBrand)
	require.NotNil(t, p.StorageType)
	assert.Equal(t, model.StorageNVMe, *p.StorageType)

	p = Build(model.Entities{Specs: model.RequestedSpecs{GPURequired: boolp(true)}})
	assert.True(t, p.GPURequired)
	assert.Empty(t, p.DesiredGPUKeyword)
}

func TestBuild_ExplicitPriceBeatsBudget(t *testing.T) {
	p := Build(model.Entities{Budget: "low", MaxPrice: floatp(900), MinPrice: floatp(300)})
	require.NotNil(t, p.MaxPrice)
	require.NotNil(t, p.MinPrice)
	assert.Equal(t, 900.0, *p.MaxPrice)
	assert.Equal(t, 300.0, *p.MinPrice)

	p = Build(model.Entities{Budget: "medio"})
	require.NotNil(t, p.MaxPrice)
	assert.Equal(t, 1200.0, *p.MaxPrice)
}

func TestBuild_Deterministic(t *testing.T) {
	e := model.Entities{Purpose: []string{"study", "gaming", "office"}, Budget: "high"}
	assert.Equal(t, Build(e), Build(e))
}

func TestParsePurpose(t *testing.T) {
	tests := map[string]Purpose{
		"Gaming":         PurposeGaming,
		"graphic_design": PurposeDesign,
		"workstation":    PurposeDesign,
		" estudio ":      PurposeStudy,
		"oficina":        PurposeOffice,
	}
	for in, want := range tests {
		got, ok := ParsePurpose(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParsePurpose("cooking")
	assert.False(t, ok)
}

func TestValidateTable(t *testing.T) {
	require.NoError(t, ValidateTable())
}
