package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics for the ingestion and retrieval paths.
var (
	FeedbackIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedloop",
			Name:      "feedback_ingested_total",
			Help:      "Total feedback submissions processed",
		},
		[]string{"sentiment", "status"},
	)

	IngestIndexingFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feedloop",
			Name:      "ingest_indexing_failures_total",
			Help:      "Feedback collected but not indexed (retrieval grounding degraded)",
		},
	)

	HybridSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedloop",
			Name:      "hybrid_searches_total",
			Help:      "Total hybrid search executions",
		},
		[]string{"status"},
	)

	ChatStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedloop",
			Name:      "chat_streams_total",
			Help:      "Total retrieval-augmented chat streams",
		},
		[]string{"status"}, // ok, error
	)
)

var pipelineRegistered = false

// RegisterPipelineMetrics registers pipeline collectors (explicit, no init()).
func RegisterPipelineMetrics() {
	if pipelineRegistered {
		return
	}
	pipelineRegistered = true
	prometheus.MustRegister(
		FeedbackIngestedTotal,
		IngestIndexingFailuresTotal,
		HybridSearchesTotal,
		ChatStreamsTotal,
	)
}
