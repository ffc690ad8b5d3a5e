// Package metrics exposes Prometheus instrumentation for store fetches,
// adapters and recommendation runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rigscout_fetch_requests_total",
			Help: "Store page fetches by outcome",
		},
		[]string{"store", "status", "blocked"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rigscout_fetch_duration_seconds",
			Help:    "Duration of store page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"store"},
	)

	ListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rigscout_listings_total",
			Help: "Listings returned by store searches after filtering",
		},
		[]string{"store"},
	)

	AdapterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rigscout_adapter_failures_total",
			Help: "Adapter operations that degraded to an empty or partial result",
		},
		[]string{"store", "op"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rigscout_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rigscout_candidates_scored_total",
			Help: "Scored candidates by result",
		},
		[]string{"result"},
	)
)

// Fetch is the outcome of one page fetch as seen by the metrics layer.
type Fetch struct {
	Store     string
	Status    int
	Failed    bool
	BlockedBy string
	Duration  time.Duration
}

// RecordFetch updates the fetch counters and histogram.
func RecordFetch(f Fetch) {
	status := strconv.Itoa(f.Status)
	if f.Failed && f.Status == 0 {
		status = "error"
	}
	blocked := "false"
	if f.BlockedBy != "" {
		blocked = "true"
	}
	FetchRequestsTotal.WithLabelValues(f.Store, status, blocked).Inc()
	FetchDuration.WithLabelValues(f.Store).Observe(f.Duration.Seconds())
}

// RecordScore counts one scored candidate as kept or disqualified.
func RecordScore(disqualified bool) {
	if disqualified {
		CandidatesScored.WithLabelValues("disqualified").Inc()
		return
	}
	CandidatesScored.WithLabelValues("kept").Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
