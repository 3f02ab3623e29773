package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	UnitsRegistered   prometheus.Counter
	RequestsCreated   prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	RejectedOps       *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UnitsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeledger_units_registered_total",
			Help: "Total number of blood units registered into inventory",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeledger_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeledger_status_transitions_total",
			Help: "Successful status transitions by entity kind and edge",
		}, []string{"entity", "from", "to"}),
		RejectedOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeledger_rejected_operations_total",
			Help: "Operations rejected by the validation or transition engine, by error code",
		}, []string{"code"}),
	}
}

// IncUnitRegistered counts one accepted unit registration.
func (m *Metrics) IncUnitRegistered() {
	if m == nil {
		return
	}
	m.UnitsRegistered.Inc()
}

// IncRequestCreated counts one accepted blood request.
func (m *Metrics) IncRequestCreated() {
	if m == nil {
		return
	}
	m.RequestsCreated.Inc()
}

// ObserveTransition records one successful status transition.
func (m *Metrics) ObserveTransition(entity, from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(entity, from, to).Inc()
}

// ObserveRejection records one rejected operation by taxonomy code.
func (m *Metrics) ObserveRejection(code string) {
	if m == nil {
		return
	}
	m.RejectedOps.WithLabelValues(code).Inc()
}
