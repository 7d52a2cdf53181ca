// Package metrics declares the Prometheus collectors for the reply pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amitbot_pipelines_total",
			Help: "Pipelines finished, by input modality and terminal state",
		},
		[]string{"modality", "state"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amitbot_pipeline_failures_total",
			Help: "Failed pipelines by error kind",
		},
		[]string{"kind"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amitbot_pipeline_duration_seconds",
			Help:    "Time from receipt to reply",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"modality"},
	)

	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amitbot_intents_total",
			Help: "Resolved intents",
		},
		[]string{"intent"},
	)

	TranscriptionPolls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amitbot_transcription_polls",
			Help:    "Status polls per transcription job",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amitbot_provider_calls_total",
			Help: "Domain provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amitbot_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	DegradedReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amitbot_degraded_replies_total",
			Help: "Voice replies delivered as text only",
		},
	)

	DuplicateUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amitbot_duplicate_updates_total",
			Help: "Telegram updates dropped as redeliveries",
		},
	)
)
