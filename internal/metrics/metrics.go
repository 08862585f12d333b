// Package metrics holds the Prometheus collectors of the order service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "concert_orders"

// Metrics groups the service's collectors.  Build one per registry with New.
type Metrics struct {
	OrdersCreated   prometheus.Counter
	OrdersConfirmed prometheus.Counter
	// Failures counts rejected or failed operations by operation and error kind.
	Failures *prometheus.CounterVec
	// SideEffects counts post-commit gate calls by queue, step and result.
	SideEffects *prometheus.CounterVec
	// CodeCollisions counts ticket codes regenerated after a unique clash.
	CodeCollisions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OrdersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Orders created from a held reservation.",
		}),
		OrdersConfirmed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmed_total",
			Help:      "Orders paid and ticketed.",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed order operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		SideEffects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_side_effects_total",
			Help:      "Post-commit claim gate calls by queue, step and result.",
		}, []string{"queue", "step", "result"}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_code_collisions_total",
			Help:      "Ticket codes regenerated after colliding with an existing code.",
		}),
	}
}
