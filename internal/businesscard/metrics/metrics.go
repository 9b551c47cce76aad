package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Operation names used as the counter label.
const (
	OpGetBusinessCard    = "getBusinessCard"
	OpCreateBusinessCard = "createBusinessCard"
	OpDeleteBusinessCard = "deleteBusinessCard"
)

// Operations lists every labelled operation in a stable order.
var Operations = []string{OpGetBusinessCard, OpCreateBusinessCard, OpDeleteBusinessCard}

// Metrics holds the invocation counters of the business card API. Counters only
// ever increase for the lifetime of the process.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Successes   *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

// New registers the counters on reg. Every operation label is pre-initialised so
// scrapes report zero instead of omitting the series.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_businesscard_invocations_total",
			Help: "Business card API invocations by operation",
		}, []string{"operation"}),
		Successes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_businesscard_successes_total",
			Help: "Successful business card API calls by operation",
		}, []string{"operation"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_businesscard_errors_total",
			Help: "Business card API calls that ended in a store failure, by operation",
		}, []string{"operation"}),
	}
	for _, op := range Operations {
		m.Invocations.WithLabelValues(op)
		m.Successes.WithLabelValues(op)
		m.Errors.WithLabelValues(op)
	}
	return m
}

func (m *Metrics) IncrementInvocation(op string) {
	if m != nil {
		m.Invocations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncrementSuccess(op string) {
	if m != nil {
		m.Successes.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncrementError(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}

// Snapshot is a read-only view of the counters keyed by operation.
type Snapshot struct {
	Invocations map[string]uint64 `json:"invocations"`
	Successes   map[string]uint64 `json:"successes"`
	Errors      map[string]uint64 `json:"errors"`
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Invocations: make(map[string]uint64, len(Operations)),
		Successes:   make(map[string]uint64, len(Operations)),
		Errors:      make(map[string]uint64, len(Operations)),
	}
	if m == nil {
		return s
	}
	for _, op := range Operations {
		s.Invocations[op] = counterValue(m.Invocations, op)
		s.Successes[op] = counterValue(m.Successes, op)
		s.Errors[op] = counterValue(m.Errors, op)
	}
	return s
}

func counterValue(vec *prometheus.CounterVec, op string) uint64 {
	var metric dto.Metric
	if err := vec.WithLabelValues(op).Write(&metric); err != nil {
		return 0
	}
	return uint64(metric.GetCounter().GetValue())
}
