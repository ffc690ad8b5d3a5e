// Package pipeline runs one recommendation request end to end: intent gate,
// entity extraction, requirement and query building, the store fan-out and
// the optional expert advisory.
package pipeline

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/rigscout/internal/assist"
	"github.com/FranksOps/rigscout/internal/metrics"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/query"
	"github.com/FranksOps/rigscout/internal/recommend"
	"github.com/FranksOps/rigscout/internal/requirement"
	"github.com/FranksOps/rigscout/internal/storage"
)

const (
	CategoryInfo = "Información"

	UnsupportedMessage  = "Actualmente, solo puedo recomendar computadoras. ¿Hay algo más en lo que pueda ayudarte con laptops o PCs de escritorio?"
	TranslationMessage  = "No se pudo procesar tu solicitud debido a un problema de traducción."
	UnexpectedMessage   = "Hubo un problema al procesar tu solicitud. Intenta de nuevo más tarde."
	DefaultSaveTimeout  = 5 * time.Second
	DefaultRequestLimit = 2 * time.Minute
)

// Recommender ranks store products for a search text and profile.
type Recommender interface {
	Recommend(ctx context.Context, query string, req model.RequirementProfile) recommend.Result
}

// Options wires the collaborators of a Service. Nil fields get the offline
// defaults; a nil Advisor disables the advisory.
type Options struct {
	Classifier assist.IntentClassifier
	Extractor  assist.EntityExtractor
	Advisor    assist.Advisor
	Runs       storage.Backend
	Logger     *slog.Logger
	// Timeout bounds a whole request. Zero selects DefaultRequestLimit.
	Timeout time.Duration
}

// Service is the top-level recommendation operation.
type Service struct {
	recommender Recommender
	classifier  assist.IntentClassifier
	extractor   assist.EntityExtractor
	advisor     assist.Advisor
	runs        storage.Backend
	logger      *slog.Logger
	timeout     time.Duration
}

// New returns a Service over rec.
func New(rec Recommender, opts Options) *Service {
	s := &Service{
		recommender: rec,
		classifier:  opts.Classifier,
		extractor:   opts.Extractor,
		advisor:     opts.Advisor,
		runs:        opts.Runs,
		logger:      opts.Logger,
		timeout:     opts.Timeout,
	}
	if s.classifier == nil {
		s.classifier = assist.NewKeywordClassifier()
	}
	if s.extractor == nil {
		s.extractor = assist.NewRuleExtractor()
	}
	if s.runs == nil {
		s.runs = storage.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestLimit
	}
	return s
}

// GetRecommendations answers one request. It never fails: every problem is
// reported as an info or error entry, and the returned list is never empty.
func (s *Service) GetRecommendations(ctx context.Context, originalQuery string, tr model.Translation) (entries []model.Entry) {
	run := &storage.Run{
		ID:         requestID(ctx),
		Query:      originalQuery,
		Translated: tr.TranslatedText,
		CreatedAt:  time.Now().UTC(),
	}
	logger := s.logger.With("request_id", run.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("recommendation panicked", "panic", r, "stack", string(debug.Stack()))
			entries = []model.Entry{model.ErrorEntry(UnexpectedMessage)}
			run.Outcome = storage.OutcomeFailed
			run.Error = "panic"
		}
		run.Duration = time.Since(run.CreatedAt)
		metrics.RecommendationsTotal.WithLabelValues(string(run.Outcome)).Inc()
		s.save(ctx, logger, run)
		logger.Info("recommendation finished",
			"outcome", run.Outcome, "results", run.Results, "duration", run.Duration)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !tr.Success {
		logger.Error("translation failed", "err", tr.ErrorMessage)
		run.Outcome = storage.OutcomeTranslationFailed
		run.Error = tr.ErrorMessage
		return []model.Entry{model.ErrorEntry(TranslationMessage)}
	}

	text := tr.TranslatedText
	run.Intent = s.classifier.Classify(ctx, text)
	if run.Intent != model.IntentComputer {
		logger.Info("unsupported intent", "intent", run.Intent)
		run.Outcome = storage.OutcomeUnsupported
		return []model.Entry{model.InfoEntry(CategoryInfo, UnsupportedMessage)}
	}

	entities, err := s.extractor.Extract(ctx, text)
	if err != nil {
		logger.Warn("entity extraction failed, continuing without entities", "err", err)
		entities = model.EmptyEntities()
	}

	profile := requirement.Build(entities)
	run.Profile = &profile
	run.SearchText = query.Build(run.Intent, entities)
	logger.Info("searching stores", "search", run.SearchText,
		"min_ram_gb", profile.MinRAMGB, "min_storage_gb", profile.MinStorageGB, "gpu_required", profile.GPURequired)

	res := s.recommender.Recommend(ctx, run.SearchText, profile)
	run.Stores = res.Stores
	run.Failed = res.Failed
	run.Listings = res.Listings
	run.Products = res.Products
	run.Disqualified = res.Disqualified
	run.Results = len(res.Candidates)
	if len(res.Candidates) > 0 {
		run.TopScore = res.Candidates[0].Score
	}

	switch {
	case len(res.Candidates) > 0:
		run.Outcome = storage.OutcomeOK
	case ctx.Err() != nil:
		run.Outcome = storage.OutcomeCanceled
		run.Error = ctx.Err().Error()
	default:
		run.Outcome = storage.OutcomeNoMatches
	}

	entries = res.Entries()
	if advisory, ok := s.advise(ctx, logger, originalQuery, res.Candidates); ok {
		entries = append([]model.Entry{advisory}, entries...)
	}
	return entries
}

// advise asks the advisor for a note over the candidates. Any failure drops
// the advisory.
func (s *Service) advise(ctx context.Context, logger *slog.Logger, originalQuery string, candidates []model.ScoredCandidate) (model.Entry, bool) {
	if s.advisor == nil || len(candidates) == 0 {
		return model.Entry{}, false
	}
	text, err := s.advisor.Advise(ctx, originalQuery, candidates)
	if err != nil || text == "" {
		logger.Warn("advisory omitted", "err", err)
		return model.Entry{}, false
	}
	return model.Entry{Kind: model.EntryAdvisory, Category: assist.AdvisoryCategory, Description: text}, true
}

// save records run without letting a canceled request or a slow backend
// affect the response.
func (s *Service) save(ctx context.Context, logger *slog.Logger, run *storage.Run) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultSaveTimeout)
	defer cancel()
	if err := s.runs.Save(ctx, run); err != nil {
		logger.Warn("run not recorded", "err", err)
	}
}

type requestIDKey struct{}

// WithRequestID attaches id to ctx so the run record and logs share it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func requestID(ctx context.Context) string {
	if id, ok := RequestID(ctx); ok {
		return id
	}
	return uuid.NewString()
}
