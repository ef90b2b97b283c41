// Package metrics exposes the optional debug listener (spec.md §4.9),
// enabled by the metrics-addr config key (there is no command-line flag
// for it): pipeline, oracle and archival counters/histograms mounted
// with chi the way the rest of this module's pack mounts its own
// metrics route. Off by default — a human-paced local tool has no
// standing consumer, but the counters help when debugging archival
// storms.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EpisodesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlm_episodes_written_total",
			Help: "Episodes written by the ingestion pipeline, by source.",
		},
		[]string{"source"},
	)

	FactsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rlm_facts_stored_total",
			Help: "Facts persisted by the fact processor.",
		},
	)

	OracleCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rlm_oracle_call_duration_seconds",
			Help:    "Duration of oracle calls by kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	OracleCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlm_oracle_call_errors_total",
			Help: "Oracle call failures by kind, before fallback.",
		},
		[]string{"kind"},
	)

	ArchivalRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlm_archival_runs_total",
			Help: "Archival coordinator runs by outcome (archived, skipped).",
		},
		[]string{"outcome"},
	)
)

// Handler returns the chi router mounted at the debug listen address.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}
