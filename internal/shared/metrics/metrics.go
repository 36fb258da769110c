package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

const namespace = "ticketworker"

// Metrics holds the worker's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so tests and the reprint mode can skip it.
type Metrics struct {
	registry *prometheus.Registry

	outcomes     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	brokerState  *prometheus.GaugeVec
	reconnects   prometheus.Counter
	redeliveries prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Processed order messages by outcome and deciding stage.",
		}, []string{"outcome", "stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_duration_seconds",
			Help:      "Wall time from delivery to outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		brokerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_state",
			Help:      "1 for the current broker connection state, 0 otherwise.",
		}, []string{"state"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_reconnects_total",
			Help:      "Broker reconnection attempts after a lost connection.",
		}),
		redeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redelivered_messages_total",
			Help:      "Deliveries flagged as redelivered by the broker.",
		}),
	}

	reg.MustRegister(
		m.outcomes,
		m.duration,
		m.brokerState,
		m.reconnects,
		m.redeliveries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveOutcome(outcome orders.Outcome, stage orders.Stage, took time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(outcome), string(stage)).Inc()
	m.duration.WithLabelValues(string(outcome)).Observe(took.Seconds())
}

// SetBrokerState marks state as the only active broker state.
func (m *Metrics) SetBrokerState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.brokerState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) IncRedelivered() {
	if m == nil {
		return
	}
	m.redeliveries.Inc()
}
