package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/pkg/httpclient"
)

const (
	DefaultGenAIBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGenAIModel   = "gemini-2.0-flash-001"

	AdvisoryCategory = "Recomendación del experto"
)

// GenAIConfig configures the generative-model client.
type GenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RatePerSecond and Burst bound outgoing requests.
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Retries       int           `mapstructure:"retries"`
	Backoff       time.Duration `mapstructure:"backoff"`
}

// GenAI talks to a generateContent endpoint. It implements Translator,
// EntityExtractor, IntentClassifier and Advisor.
type GenAI struct {
	cfg     GenAIConfig
	client  *genai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var (
	_ Translator       = (*GenAI)(nil)
	_ EntityExtractor  = (*GenAI)(nil)
	_ IntentClassifier = (*GenAI)(nil)
	_ Advisor          = (*GenAI)(nil)
)

// NewGenAI validates cfg and builds a client.
func NewGenAI(cfg GenAIConfig, logger *slog.Logger) (*GenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: genai api key is required", model.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Retries == 0 {
		cfg.Retries = 2
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	// The key travels in the x-goog-api-key header, never in the URL.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc.Client,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: genai client: %v", model.ErrInvalidConfig, err)
	}
	return &GenAI{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  logger.With("component", "genai", "model", cfg.Model),
	}, nil
}

// Generate sends prompt and returns the first candidate's text. 429 and 5xx
// answers and transport errors are retried with linear backoff.
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("genai: rate limiter: %w", err)
	}

	start := time.Now()
	var (
		resp    *genai.GenerateContentResponse
		lastErr error
	)
	for attempt := 0; attempt <= g.cfg.Retries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, time.Duration(attempt)*g.cfg.Backoff); err != nil {
				return "", fmt.Errorf("%w: genai: %v", model.ErrExternalService, err)
			}
		}
		var err error
		resp, err = g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), nil)
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		g.logger.Debug("retrying", "attempt", attempt+1, "err", g.redact(err.Error()))
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: genai: %s", model.ErrExternalService, g.redact(lastErr.Error()))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: genai: no candidates", model.ErrMalformedResponse)
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	g.logger.Debug("generated", "duration", time.Since(start), "chars", sb.Len())
	return strings.TrimSpace(sb.String()), nil
}

// retryable reports whether err is a rate limit, a server error or a
// failure below the API layer.
func retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return httpclient.Retryable(apiErr.Code)
	}
	return true
}

// redact keeps the API key out of error text.
func (g *GenAI) redact(s string) string {
	return strings.ReplaceAll(s, g.cfg.APIKey, "[redacted]")
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Translate asks for an English rendering of a Spanish request. On failure
// the original text is kept and Success is false.
func (g *GenAI) Translate(ctx context.Context, text string) model.Translation {
	prompt := "Translate the following text from Spanish to English. Provide only the translated text, without any additional comments or formatting:\n\n'" + text + "'"
	out, err := g.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("translation failed", "err", err)
		return model.Translation{Success: false, TranslatedText: text, ErrorMessage: g.redact(err.Error())}
	}
	return model.Translation{Success: true, TranslatedText: strings.Trim(out, "'\"")}
}

// Classify asks the model for one of the known intents. Anything else,
// including a failed call, is model.IntentUnknown.
func (g *GenAI) Classify(ctx context.Context, text string) model.Intent {
	prompt := "You are an intent classifier. Based on the following user request, classify the intent as one of:\n" +
		"- 'computadora' (if asking about laptops or desktop computers)\n" +
		"- 'memoria_ram'\n- 'almacenamiento'\n- 'impresora'\n- 'desconocido'\n" +
		"Answer with the label only.\nUser request: " + text
	out, err := g.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("intent classification failed", "err", err)
		return model.IntentUnknown
	}
	switch intent := model.Intent(strings.Trim(strings.ToLower(out), "'\". \n")); intent {
	case model.IntentComputer, model.IntentMemory, model.IntentStorage, model.IntentPrinter:
		return intent
	}
	return model.IntentUnknown
}

const entityPrompt = `You extract hardware entities from a computer purchase request.
Answer with a single JSON object and nothing else:
{"purpose": one or more of "gaming", "graphic_design", "programming", "office", "studying", "general_use", "workstation" or null,
 "specs": {"ram_gb": integer or null, "storage_gb": integer or null, "storage_type": "SSD"|"HDD"|"NVMe" or null,
           "cpu_brand": "Intel"|"AMD"|"Apple" or null, "gpu_required": boolean or null, "gpu_model": string or null},
 "budget": "low"|"medium"|"high" or null,
 "modality": list such as ["laptop"] or ["desktop"], or null,
 "min_price": number or null, "max_price": number or null}
Use null for anything that is not stated or cannot be inferred.
Request: `

// Extract asks the model for the entity JSON.
func (g *GenAI) Extract(ctx context.Context, text string) (model.Entities, error) {
	out, err := g.Generate(ctx, entityPrompt+quoteJSON(text))
	if err != nil {
		return model.EmptyEntities(), err
	}
	e, err := DecodeEntities(out)
	if err != nil {
		g.logger.Warn("entity response unreadable", "err", err, "response", truncate(out, 200))
		return model.EmptyEntities(), err
	}
	return e, nil
}

// stringList decodes either a JSON string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*s = []string{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("want string or list of strings: %w", err)
	}
	*s = many
	return nil
}

type entitiesWire struct {
	Purpose stringList `json:"purpose"`
	Specs   struct {
		RAMGB       *float64 `json:"ram_gb"`
		StorageGB   *float64 `json:"storage_gb"`
		StorageType *string  `json:"storage_type"`
		CPUBrand    *string  `json:"cpu_brand"`
		GPURequired *bool    `json:"gpu_required"`
		GPUModel    *string  `json:"gpu_model"`
	} `json:"specs"`
	Budget   *string    `json:"budget"`
	Modality stringList `json:"modality"`
	MinPrice *float64   `json:"min_price"`
	MaxPrice *float64   `json:"max_price"`
}

// DecodeEntities parses an entity JSON answer, tolerating a Markdown code
// fence around it. Missing fields stay null.
func DecodeEntities(raw string) (model.Entities, error) {
	var w entitiesWire
	if err := json.Unmarshal([]byte(StripFence(raw)), &w); err != nil {
		return model.EmptyEntities(), fmt.Errorf("%w: entities: %v", model.ErrMalformedResponse, err)
	}

	e := model.EmptyEntities()
	if len(w.Purpose) > 0 {
		e.Purpose = []string(w.Purpose)
	}
	if len(w.Modality) > 0 {
		e.Modality = []string(w.Modality)
	}
	e.Specs.RAMGB = wholeGB(w.Specs.RAMGB)
	e.Specs.StorageGB = wholeGB(w.Specs.StorageGB)
	e.Specs.StorageType = deref(w.Specs.StorageType)
	e.Specs.CPUBrand = deref(w.Specs.CPUBrand)
	e.Specs.GPUModel = deref(w.Specs.GPUModel)
	e.Specs.GPURequired = w.Specs.GPURequired
	e.Budget = deref(w.Budget)
	e.MinPrice = w.MinPrice
	e.MaxPrice = w.MaxPrice
	return e, nil
}

// StripFence removes a surrounding ```json ... ``` (or bare ```) fence.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type advisoryItem struct {
	Name        string            `json:"nombre"`
	Price       *float64          `json:"precio"`
	Store       string            `json:"tienda"`
	URL         string            `json:"url"`
	Specs       map[string]string `json:"especificaciones"`
	Description string            `json:"descripcion_corta,omitempty"`
}

// Advise writes a Spanish expert note over the ranked candidates.
func (g *GenAI) Advise(ctx context.Context, originalQuery string, candidates []model.ScoredCandidate) (string, error) {
	if len(candidates) == 0 {
		return "", errors.New("genai: no candidates to advise on")
	}
	items := make([]advisoryItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, advisoryItem{
			Name:        c.Details.Name,
			Price:       c.Details.Price,
			Store:       c.Details.Store,
			URL:         c.Details.URL,
			Specs:       specSummary(c.Details.Specifications),
			Description: truncate(c.Details.Description, 150),
		})
	}
	listing, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("genai: encode candidates: %w", err)
	}

	prompt := "Eres un experto en tecnología. Responde SIEMPRE en español.\n" +
		"1. Evalúa si las computadoras encontradas se ajustan a la solicitud del usuario.\n" +
		"2. Destaca la mejor opción y explica por qué.\n" +
		"3. Señala inconsistencias o datos faltantes en las especificaciones.\n" +
		"4. No inventes especificaciones; si un dato es N/A, indícalo.\n" +
		"5. Termina con un consejo breve.\n\n" +
		"Solicitud original del usuario: \"" + originalQuery + "\"\n\n" +
		"Computadoras encontradas:\n" + string(listing)

	return g.Generate(ctx, prompt)
}

func specSummary(s *model.Specification) map[string]string {
	out := map[string]string{"RAM": "N/A", "Almacenamiento": "N/A", "CPU": "N/A", "GPU": "N/A"}
	if s == nil {
		return out
	}
	if s.RAMGB != nil {
		out["RAM"] = fmt.Sprintf("%dGB", *s.RAMGB)
	}
	if s.StorageGB != nil {
		out["Almacenamiento"] = fmt.Sprintf("%dGB", *s.StorageGB)
		if s.StorageType != nil {
			out["Almacenamiento"] += " " + string(*s.StorageType)
		}
	}
	switch {
	case s.CPUModel != nil:
		out["CPU"] = *s.CPUModel
	case s.CPUBrand != nil:
		out["CPU"] = string(*s.CPUBrand)
	}
	if s.GPUModel != nil {
		out["GPU"] = *s.GPUModel
	}
	return out
}

func wholeGB(v *float64) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := int(*v)
	return &n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func quoteJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
