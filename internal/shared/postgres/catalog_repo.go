package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

// rowQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CatalogRepo resolves SKUs against the point-of-sale item catalog.
type CatalogRepo struct {
	db rowQuerier
}

// NewCatalogRepo constructs a CatalogRepo on top of a pool or connection.
func NewCatalogRepo(db rowQuerier) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// LookupProduct returns the item number and description for sku.
func (r *CatalogRepo) LookupProduct(ctx context.Context, sku string) (orders.CatalogEntry, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return orders.CatalogEntry{}, orders.ErrProductNotFound
	}

	var p orders.CatalogEntry
	err := r.db.QueryRow(ctx, `
		SELECT item_no, descr
		FROM catalog_items
		WHERE sku = $1
		LIMIT 1
	`, sku).Scan(&p.ItemNumber, &p.DisplayName)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return orders.CatalogEntry{}, orders.ErrProductNotFound
	case err != nil:
		return orders.CatalogEntry{}, fmt.Errorf("catalog lookup %q: %w", sku, err)
	}

	p.ItemNumber = strings.TrimSpace(p.ItemNumber)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	return p, nil
}
