package ticketworker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/retailops/ticketworker/internal/app/fulfillment"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/metrics"
)

type payloadProcessor interface {
	ProcessPayload(ctx context.Context, body []byte) fulfillment.Result
}

func newRequestID() string {
	return uuid.NewString()
}

// handleDelivery processes a single message and acks it. Every handled outcome,
// failures included, is acked: redelivery cannot fix a missing order or a
// broken template. A panic is nacked instead, requeued once and dead-lettered
// on the second attempt.
func handleDelivery(
	ctx context.Context,
	logger *logger.Logger,
	processor payloadProcessor,
	m *metrics.Metrics,
	d amqp.Delivery,
) {
	ctx = logger.WithRequestID(ctx, newRequestID())

	if d.Redelivered {
		m.IncRedelivered()
	}
	logger.Debug(ctx, "message_received", "Delivery received", map[string]any{
		"delivery_tag": d.DeliveryTag,
		"redelivered":  d.Redelivered,
		"body_bytes":   len(d.Body),
	})

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		requeue := !d.Redelivered
		logger.Error(ctx, "processing_panicked",
			fmt.Sprintf("Processor panicked; nack requeue=%t", requeue),
			fmt.Errorf("panic: %v", r))
		if err := d.Nack(false, requeue); err != nil {
			logger.Error(ctx, "nack_failed", "Failed to nack delivery", err)
		}
	}()

	res := processor.ProcessPayload(ctx, d.Body)

	if err := d.Ack(false); err != nil {
		logger.Error(ctx, "ack_failed", "Failed to ack delivery for order "+res.OrderID, err)
	}
}
