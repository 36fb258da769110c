package orders

import "errors"

// ErrProductNotFound is returned when no catalog row matches the SKU.
var ErrProductNotFound = errors.New("catalog: product not found")

// CatalogEntry is the display data the ticket prints for a SKU.
type CatalogEntry struct {
	ItemNumber  string
	DisplayName string
}
