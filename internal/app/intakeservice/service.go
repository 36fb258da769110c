package intakeservice

import (
	"context"
	"fmt"

	"github.com/retailops/ticketworker/internal/ports"
	"github.com/retailops/ticketworker/internal/shared/contracts"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

// Service implements ports.IntakeService.
type Service struct {
	pub    ports.OrderPublisher
	queue  string
	format contracts.PayloadFormat
	logger *logger.Logger
}

// Ensure Service implements the interface at compile time.
var _ ports.IntakeService = (*Service)(nil)

// New creates an intake service publishing to queue in the worker's payload format.
func New(pub ports.OrderPublisher, queue string, format contracts.PayloadFormat, logger *logger.Logger) *Service {
	return &Service{pub: pub, queue: queue, format: format, logger: logger}
}

// Enqueue publishes orderID so the ticket worker picks it up.
func (service *Service) Enqueue(ctx context.Context, orderID string) error {
	body, contentType, err := contracts.EncodeOrderID(service.format, orderID)
	if err != nil {
		return err
	}

	if err := service.pub.Publish(ctx, service.queue, body, contentType); err != nil {
		return fmt.Errorf("publish order %s: %w", orderID, err)
	}

	service.logger.Info(ctx, "order_enqueued", "Order queued for ticket printing", map[string]any{
		"order_id": orderID,
		"queue":    service.queue,
	})
	return nil
}
