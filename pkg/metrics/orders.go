package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// OrderMetrics records order lifecycle transitions.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	casRetries  prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order and payment status transition attempts by outcome.",
	}, []string{"domain", "from", "to", "result"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_status_cas_retries_total",
		Help: "Conditional order updates that lost a race and were retried.",
	})
	reg.MustRegister(transitions, retries)
	return &OrderMetrics{transitions: transitions, casRetries: retries}
}

// ObserveTransition counts one transition attempt.
func (m *OrderMetrics) ObserveTransition(domain, from, to, result string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(domain), normalizeLabel(from), normalizeLabel(to), normalizeLabel(result)).Inc()
}

// IncRetry counts a lost compare-and-swap.
func (m *OrderMetrics) IncRetry() {
	if m == nil || m.casRetries == nil {
		return
	}
	m.casRetries.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
