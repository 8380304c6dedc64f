// Package metrics holds the pipeline counters exported to Prometheus.
package metrics

import (
	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline counters: ingestion outcomes on one side,
// batch processing outcomes on the other.
type Metrics struct {
	RequestsAccepted    kitmetrics.Counter
	RequestsRejected    kitmetrics.Counter
	EnqueueFailures     kitmetrics.Counter
	EntriesSucceeded    kitmetrics.Counter
	EntriesFailed       kitmetrics.Counter
	EntriesDeadLettered kitmetrics.Counter
}

// New creates and registers the pipeline counters on the default Prometheus
// registerer. Call once per process.
func New(namespace, subsystem string) *Metrics {
	counter := func(name, help string) kitmetrics.Counter {
		return kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, nil)
	}

	return &Metrics{
		RequestsAccepted:    counter("requests_accepted_total", "Submissions validated and durably enqueued."),
		RequestsRejected:    counter("requests_rejected_total", "Submissions rejected by validation."),
		EnqueueFailures:     counter("enqueue_failures_total", "Enqueue calls that failed at the transport."),
		EntriesSucceeded:    counter("entries_succeeded_total", "Batch entries acknowledged as succeeded."),
		EntriesFailed:       counter("entries_failed_total", "Batch entries reported as failed."),
		EntriesDeadLettered: counter("entries_dead_lettered_total", "Entries moved to the dead-letter sink."),
	}
}

// NewNop returns metrics that discard every observation. For tests and
// embedded use.
func NewNop() *Metrics {
	return &Metrics{
		RequestsAccepted:    discard.NewCounter(),
		RequestsRejected:    discard.NewCounter(),
		EnqueueFailures:     discard.NewCounter(),
		EntriesSucceeded:    discard.NewCounter(),
		EntriesFailed:       discard.NewCounter(),
		EntriesDeadLettered: discard.NewCounter(),
	}
}
