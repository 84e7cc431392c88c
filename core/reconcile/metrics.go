package reconcile

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors updated by the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	records        *prometheus.CounterVec
	passes         *prometheus.CounterVec
	commitFailures prometheus.Counter
	passDuration   prometheus.Histogram
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecomm_sync",
			Name:      "records_total",
			Help:      "Records reconciled, by adapter and terminal status.",
		}, []string{"adapter", "status"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecomm_sync",
			Name:      "passes_total",
			Help:      "Completed reconciliation passes.",
		}, []string{"adapter"}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecomm_sync",
			Name:      "commit_failures_total",
			Help:      "Outcomes that could not be written back to the staging store.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ecomm_sync",
			Name:      "pass_duration_seconds",
			Help:      "Duration of reconciliation passes.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.passes, m.commitFailures, m.passDuration)
	}
	return m
}

func (m *Metrics) observeRecord(adapter string, status Status) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(adapter, status.String()).Inc()
}

func (m *Metrics) observeCommitFailure() {
	if m == nil {
		return
	}
	m.commitFailures.Inc()
}

func (m *Metrics) observePass(s *PassSummary) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(s.Adapter).Inc()
	m.passDuration.Observe(s.Duration.Seconds())
}
