package printer

import (
	"context"
	"errors"
	"fmt"

	"github.com/retailops/ticketworker/internal/ports"
	"github.com/retailops/ticketworker/internal/shared/logger"
	"github.com/retailops/ticketworker/internal/shared/ticket"
)

// ErrNoDocument is returned when an artifact carries no rendered document.
var ErrNoDocument = errors.New("printer: artifact has no document")

// Dispatcher prints an artifact and releases its files whatever the print result.
type Dispatcher struct {
	printer     ports.Printer
	keepTickets bool
	logger      *logger.Logger
}

// NewDispatcher creates a dispatcher. With keepTickets the PDF stays on disk after printing.
func NewDispatcher(p ports.Printer, keepTickets bool, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{printer: p, keepTickets: keepTickets, logger: logger}
}

// Dispatch submits the artifact document. Barcode files are always removed;
// cleanup problems are logged and never turn a successful print into a failure.
func (d *Dispatcher) Dispatch(ctx context.Context, art *ticket.Artifact) error {
	defer d.release(ctx, art)

	if art == nil || art.DocumentPath == "" {
		return ErrNoDocument
	}
	if err := d.printer.Submit(ctx, art.DocumentPath); err != nil {
		return fmt.Errorf("print order %s: %w", art.OrderID, err)
	}

	d.logger.Debug(ctx, "ticket_printed", "ticket submitted to printer", map[string]any{
		"order_id": art.OrderID,
		"document": art.DocumentPath,
	})
	return nil
}

func (d *Dispatcher) release(ctx context.Context, art *ticket.Artifact) {
	err := art.ReleaseTransient()
	if !d.keepTickets {
		err = errors.Join(err, art.ReleaseDocument())
	}
	if err != nil {
		d.logger.Error(ctx, "artifact_cleanup_failed", "failed to remove ticket files", err)
	}
}
