package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SurveyQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_queries_total",
			Help: "Total number of survey queries by type and outcome",
		},
		[]string{"query_type", "outcome"},
	)

	RelayCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_completions_total",
			Help: "Total number of completion calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	RelayCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)

	RelayToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_tool_calls_total",
			Help: "Total number of tool calls executed by the relay",
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
