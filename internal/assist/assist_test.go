package assist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranksOps/rigscout/internal/model"
)

func TestPassthrough(t *testing.T) {
	tr := Passthrough{}.Translate(context.Background(), "Necesito una laptop")
	assert.True(t, tr.Success)
	assert.Equal(t, "Necesito una laptop", tr.TranslatedText)
	assert.Empty(t, tr.ErrorMessage)
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	tests := []struct {
		text string
		want model.Intent
	}{
		{"Necesito una laptop para juegos", model.IntentComputer},
		{"Quiero un portátil con 16GB RAM", model.IntentComputer},
		{"PC de escritorio para diseño", model.IntentComputer},
		{"memoria RAM de 16GB", model.IntentMemory},
		{"un disco SSD de 1TB", model.IntentStorage},
		{"busco una impresora láser", model.IntentPrinter},
		{"quiero un televisor", model.IntentUnknown},
		{"", model.IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.text))
		})
	}
}

func TestKeywordClassifier_ExplainReturnsHits(t *testing.T) {
	intent, hits := NewKeywordClassifier().Explain("Laptop gamer. Una laptop potente")
	assert.Equal(t, model.IntentComputer, intent)
	require.Len(t, hits, 1)
	assert.Equal(t, "laptop", hits[0].Term)
	assert.Equal(t, 2, hits[0].Count)
}

func TestRuleExtractor_GamingLaptop(t *testing.T) {
	e, err := NewRuleExtractor().Extract(context.Background(),
		"Quiero una laptop gamer con 16GB RAM y 512GB SSD, menos de 1500 dólares")
	require.NoError(t, err)

	assert.Equal(t, []string{"gaming"}, e.Purpose)
	assert.Equal(t, []string{"laptop"}, e.Modality)
	require.NotNil(t, e.Specs.RAMGB)
	assert.Equal(t, 16, *e.Specs.RAMGB)
	require.NotNil(t, e.Specs.StorageGB)
	assert.Equal(t, 512, *e.Specs.StorageGB)
	assert.Equal(t, string(model.StorageSSD), e.Specs.StorageType)
	require.NotNil(t, e.MaxPrice)
	assert.Equal(t, 1500.0, *e.MaxPrice)
	assert.Nil(t, e.MinPrice)
}

func TestRuleExtractor_BudgetBrandAndGPU(t *testing.T) {
	e, err := NewRuleExtractor().Extract(context.Background(),
		"PC de escritorio barata con Ryzen y tarjeta gráfica para diseño gráfico")
	require.NoError(t, err)

	assert.Equal(t, "low", e.Budget)
	assert.Equal(t, []string{"desktop"}, e.Modality)
	assert.Equal(t, []string{"design"}, e.Purpose)
	assert.Equal(t, string(model.CPUAMD), e.Specs.CPUBrand)
	require.NotNil(t, e.Specs.GPURequired)
	assert.True(t, *e.Specs.GPURequired)
}

func TestRuleExtractor_IntegratedGraphicsIsNotRequired(t *testing.T) {
	e, err := NewRuleExtractor().Extract(context.Background(), "laptop para oficina con gráficos integrados")
	require.NoError(t, err)
	require.NotNil(t, e.Specs.GPURequired)
	assert.False(t, *e.Specs.GPURequired)
	assert.Equal(t, []string{"office"}, e.Purpose)
}

func TestRuleExtractor_Empty(t *testing.T) {
	e, err := NewRuleExtractor().Extract(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, model.EmptyEntities(), e)
}

func TestPrices(t *testing.T) {
	tests := []struct {
		text   string
		lo, hi *float64
	}{
		{"entre 800 y 1200", floatp(800), floatp(1200)},
		{"hasta $1.299", nil, floatp(1299)},
		{"más de 700 dólares", floatp(700), nil},
		{"hasta 16GB de RAM", nil, nil},
		{"menos de 1TB", nil, nil},
		{"laptop sin precio", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			lo, hi := prices(tt.text)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func floatp(v float64) *float64 { return &v }
