package ports

import (
	"context"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/shared/ticket"
)

// OrderNormalizer builds the ticket view of an order: gateway data, catalog names, local time.
type OrderNormalizer interface {
	Normalize(ctx context.Context, orderID string) (orders.Order, error)
}

// ArtifactGenerator renders the barcode and ticket document for an order.
type ArtifactGenerator interface {
	Generate(ctx context.Context, order orders.Order) (*ticket.Artifact, error)
}

// PrintDispatcher sends an artifact to the printer and releases it.
type PrintDispatcher interface {
	Dispatch(ctx context.Context, art *ticket.Artifact) error
}

// Printer submits one document to the print system.
type Printer interface {
	Submit(ctx context.Context, path string) error
}

// OutcomeSink persists the outcome of every processed message.
type OutcomeSink interface {
	Record(ctx context.Context, rec orders.Record) error
}

// OrderPublisher puts a message on a broker queue.
type OrderPublisher interface {
	Publish(ctx context.Context, queue string, body []byte, contentType string) error
}

// IntakeService enqueues an order id for ticket printing.
type IntakeService interface {
	Enqueue(ctx context.Context, orderID string) error
}
