// Package metrics exposes the application counters on the Prometheus
// registry served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	PostingResultPosted    = "posted"
	PostingResultDuplicate = "duplicate"
	PostingResultFailed    = "failed"
)

// Metrics holds the instruments for the ledger core. A nil *Metrics is
// valid and records nothing, so wiring stays optional in tests.
type Metrics struct {
	eventsAppended  *prometheus.CounterVec
	appendConflicts *prometheus.CounterVec
	postings        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmsaathi_ledger_events_appended_total",
			Help: "Ledger events appended to entity logs.",
		}, []string{"kind", "event_type"}),
		appendConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmsaathi_ledger_append_conflicts_total",
			Help: "Optimistic-concurrency conflicts observed during appends, including retried ones.",
		}, []string{"kind"}),
		postings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "farmsaathi_financial_postings_total",
			Help: "Financial postings derived from qualifying ledger events, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordAppend(kind, eventType string) {
	if m == nil {
		return
	}
	m.eventsAppended.WithLabelValues(kind, eventType).Inc()
}

func (m *Metrics) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.appendConflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPosting(result string) {
	if m == nil {
		return
	}
	m.postings.WithLabelValues(result).Inc()
}
