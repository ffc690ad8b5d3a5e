// Package server exposes recommendations over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FranksOps/rigscout/internal/assist"
	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/pipeline"
)

// MaxQueryLength bounds the request text accepted by the API.
const MaxQueryLength = 2000

// Recommender is the operation the handler serves.
type Recommender interface {
	GetRecommendations(ctx context.Context, originalQuery string, tr model.Translation) []model.Entry
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recommender Recommender
	translator  assist.Translator
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler. A nil translator passes the query
// through unchanged.
func NewHandler(rec Recommender, tr assist.Translator, logger *slog.Logger) *Handler {
	if tr == nil {
		tr = assist.Passthrough{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{recommender: rec, translator: tr, logger: logger}
}

// RecommendationRequest is the body of POST /api/v1/recommendations.
type RecommendationRequest struct {
	Query string `json:"query" binding:"required"`
}

// RecommendationResponse wraps the entries returned for one request.
type RecommendationResponse struct {
	RequestID string        `json:"request_id"`
	Query     string        `json:"query"`
	Results   []model.Entry `json:"results"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "rigscout",
	})
}

// Recommend translates the query and runs the recommendation pipeline.
func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object with a non-empty query"})
		return
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be blank"})
		return
	}
	if len(q) > MaxQueryLength {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "query is too long"})
		return
	}

	ctx := c.Request.Context()
	tr := h.translator.Translate(ctx, q)
	entries := h.recommender.GetRecommendations(ctx, q, tr)

	id, _ := pipeline.RequestID(ctx)
	c.JSON(http.StatusOK, RecommendationResponse{
		RequestID: id,
		Query:     q,
		Results:   entries,
	})
}
