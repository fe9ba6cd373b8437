package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationOutcomes counts engine mutations by operation and outcome code
	// ("ok" for success).
	MutationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_mutation_outcomes_total",
		Help: "Total number of mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// ObjectStoreOperations counts object-store calls by operation and result.
	ObjectStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_object_store_operations_total",
		Help: "Total number of object store operations",
	}, []string{"operation", "result"})

	// EventPublishFailures counts domain events that could not be published.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_event_publish_failures_total",
		Help: "Total number of domain events that failed to publish",
	}, []string{"backend", "event_type"})
)

// RecordOutcome increments the mutation outcome counter.
func RecordOutcome(operation, outcome string) {
	MutationOutcomes.WithLabelValues(operation, outcome).Inc()
}
