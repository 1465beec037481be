package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PayoutMetrics records payout admission decisions.
type PayoutMetrics struct {
	admissions *prometheus.CounterVec
	lockWait   prometheus.Histogram
	transition *prometheus.CounterVec
}

// NewPayoutMetrics registers the payout metrics on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_admissions_total",
		Help: "Payout requests by admission outcome.",
	}, []string{"result"})
	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payout_lock_wait_seconds",
		Help:    "Time spent waiting for the per-seller payout lock.",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5},
	})
	transition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_status_transitions_total",
		Help: "Payout status changes by target status.",
	}, []string{"to"})
	reg.MustRegister(admissions, lockWait, transition)
	return &PayoutMetrics{admissions: admissions, lockWait: lockWait, transition: transition}
}

// ObserveAdmission counts one RequestPayout outcome such as admitted or insufficient_balance.
func (m *PayoutMetrics) ObserveAdmission(result string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveLockWait records how long admission waited for the seller lock.
func (m *PayoutMetrics) ObserveLockWait(d time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// ObserveTransition counts a payout moving into status.
func (m *PayoutMetrics) ObserveTransition(status string) {
	if m == nil || m.transition == nil {
		return
	}
	m.transition.WithLabelValues(normalizeLabel(status)).Inc()
}
