package observability

import (
	"context"

	"github.com/aretw0/becas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Turns         *prometheus.CounterVec
	TurnDuration  prometheus.Histogram
	Extractions   *prometheus.CounterVec
	Searches      *prometheus.CounterVec
	SearchResults prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "becas_turns_total",
				Help: "Total number of processed turns",
			},
			[]string{"from", "to", "outcome"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "becas_turn_duration_seconds",
				Help:    "Duration of turns, extractor calls included",
				Buckets: prometheus.DefBuckets,
			},
		),
		Extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "becas_extractions_total",
				Help: "Total number of extractor calls",
			},
			[]string{"mode", "outcome"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "becas_searches_total",
				Help: "Total number of confirmed searches",
			},
			[]string{"outcome"},
		),
		SearchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "becas_search_results",
				Help:    "Number of scholarships returned per search",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
	}
	for _, c := range []prometheus.Collector{m.Turns, m.TurnDuration, m.Extractions, m.Searches, m.SearchResults} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Turns.WithLabelValues(string(e.From), string(e.To), outcome).Inc()
			m.TurnDuration.Observe(e.Duration.Seconds())
		},
		OnExtraction: func(_ context.Context, e *domain.ExtractionEvent) {
			outcome := "ok"
			if e.Failed {
				outcome = "failed"
			}
			m.Extractions.WithLabelValues(e.Mode, outcome).Inc()
		},
		OnSearch: func(_ context.Context, e *domain.SearchEvent) {
			outcome := "results"
			if e.Results == 0 {
				outcome = "empty"
			}
			m.Searches.WithLabelValues(outcome).Inc()
			m.SearchResults.Observe(float64(e.Results))
		},
	}
}
