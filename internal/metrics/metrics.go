// Package metrics defines the Prometheus collectors for the ingestion
// pipeline and query path, and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	ChunksIndexed      prometheus.Counter
	IndexFailures      prometheus.Counter
	QueriesTotal       *prometheus.CounterVec
	DegradedAnswers    prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		DocumentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_processed_total",
				Help: "Documents that reached a terminal status, by status.",
			},
			[]string{"status"},
		),
		ChunksIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chunks_indexed_total",
				Help: "Chunk entries written to the index.",
			},
		),
		IndexFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_failures_total",
				Help: "Best-effort index writes that failed.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_total",
				Help: "Answered queries by context source (chunks, raw, none).",
			},
			[]string{"context_source"},
		),
		DegradedAnswers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "degraded_answers_total",
				Help: "Queries answered with the degraded fixed message.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocumentsProcessed,
		m.ChunksIndexed,
		m.IndexFailures,
		m.QueriesTotal,
		m.DegradedAnswers,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
