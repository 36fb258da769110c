package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

func TestObserveOutcome(t *testing.T) {
	m := New()

	m.ObserveOutcome(orders.OutcomePrinted, orders.StagePrint, time.Second)
	m.ObserveOutcome(orders.OutcomePrinted, orders.StagePrint, time.Second)
	m.ObserveOutcome(orders.OutcomeFailed, orders.StageRetrieve, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("printed", "print")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("failed", "retrieve")))
}

func TestSetBrokerState(t *testing.T) {
	m := New()
	all := []string{"disconnected", "connecting", "consuming"}

	m.SetBrokerState("connecting", all)
	m.SetBrokerState("consuming", all)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.brokerState.WithLabelValues("connecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.brokerState.WithLabelValues("consuming")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome(orders.OutcomePrinted, orders.StagePrint, time.Second)
		m.SetBrokerState("consuming", []string{"consuming"})
		m.IncReconnect()
		m.IncRedelivered()
	})
	assert.Nil(t, m.Registry())
}
