package ticketworker

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/ticketworker/internal/app/fulfillment"
	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/metrics"
)

type ackCall struct {
	kind    string
	requeue bool
}

type fakeAcknowledger struct {
	calls []ackCall
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.calls = append(f.calls, ackCall{kind: "ack"})
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.calls = append(f.calls, ackCall{kind: "nack", requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.calls = append(f.calls, ackCall{kind: "reject", requeue: requeue})
	return nil
}

type stubProcessor struct {
	result    fulfillment.Result
	panicWith any
	bodies    []string
	requestID string
}

func (s *stubProcessor) ProcessPayload(ctx context.Context, body []byte) fulfillment.Result {
	s.bodies = append(s.bodies, string(body))
	s.requestID = logger.RequestIDFrom(ctx)
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.result
}

func delivery(ack amqp.Acknowledger, body string, redelivered bool) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(body), Redelivered: redelivered}
}

func TestHandleDeliveryAcksEveryOutcome(t *testing.T) {
	outcomes := []fulfillment.Result{
		{OrderID: "1001", Outcome: orders.OutcomePrinted},
		{OrderID: "1002", Outcome: orders.OutcomeSkippedDeclinedOrUnknownPayment},
		{OrderID: "1004", Outcome: orders.OutcomeFailed, Stage: orders.StageRetrieve, Err: fulfillment.AtStage(orders.StageRetrieve, assert.AnError)},
	}
	for _, res := range outcomes {
		t.Run(string(res.Outcome), func(t *testing.T) {
			ack := &fakeAcknowledger{}
			proc := &stubProcessor{result: res}

			handleDelivery(context.Background(), logger.NewNop(), proc, metrics.New(), delivery(ack, res.OrderID, false))

			assert.Equal(t, []ackCall{{kind: "ack"}}, ack.calls)
			assert.Equal(t, []string{res.OrderID}, proc.bodies)
			assert.NotEmpty(t, proc.requestID, "each delivery gets a request id")
		})
	}
}

func TestHandleDeliveryPanicRequeuesOnce(t *testing.T) {
	ack := &fakeAcknowledger{}
	proc := &stubProcessor{panicWith: "nil map write"}

	require.NotPanics(t, func() {
		handleDelivery(context.Background(), logger.NewNop(), proc, nil, delivery(ack, "1001", false))
	})
	assert.Equal(t, []ackCall{{kind: "nack", requeue: true}}, ack.calls)
}

func TestHandleDeliveryPanicOnRedeliveryDeadLetters(t *testing.T) {
	ack := &fakeAcknowledger{}
	proc := &stubProcessor{panicWith: "nil map write"}

	handleDelivery(context.Background(), logger.NewNop(), proc, nil, delivery(ack, "1001", true))
	assert.Equal(t, []ackCall{{kind: "nack", requeue: false}}, ack.calls)
}

func TestHandleDeliveryRequestIDsDiffer(t *testing.T) {
	proc := &stubProcessor{result: fulfillment.Result{Outcome: orders.OutcomePrinted}}

	handleDelivery(context.Background(), logger.NewNop(), proc, nil, delivery(&fakeAcknowledger{}, "1", false))
	first := proc.requestID
	handleDelivery(context.Background(), logger.NewNop(), proc, nil, delivery(&fakeAcknowledger{}, "2", false))

	assert.NotEqual(t, first, proc.requestID)
}
