package ports

import (
	"context"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/domain/storefront"
)

// CommerceGateway reads orders from the storefront. Implementations return
// storefront.ErrOrderNotFound for unknown ids.
type CommerceGateway interface {
	FetchOrder(ctx context.Context, orderID string) (storefront.OrderDetail, error)
}

// ProductCatalog maps a storefront SKU to the in-store item number and description.
// Unknown SKUs yield orders.ErrProductNotFound.
type ProductCatalog interface {
	LookupProduct(ctx context.Context, sku string) (orders.CatalogEntry, error)
}

// PrintedMarker remembers which orders already produced a ticket.
type PrintedMarker interface {
	WasPrinted(ctx context.Context, orderID string) (bool, error)
	MarkPrinted(ctx context.Context, orderID string) error
}
