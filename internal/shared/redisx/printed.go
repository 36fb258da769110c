package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrinted marks an order whose ticket already reached the printer: ticket:printed:{order_id}.
const KeyPrinted = "ticket:printed:%s"

// DefaultPrintedTTL bounds how long a redelivered order is recognised as a duplicate.
const DefaultPrintedTTL = 72 * time.Hour

// PrintedMarker remembers printed orders so a redelivered message does not print twice.
type PrintedMarker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPrintedMarker wraps rdb. A non-positive ttl falls back to DefaultPrintedTTL.
func NewPrintedMarker(rdb *redis.Client, ttl time.Duration) *PrintedMarker {
	if ttl <= 0 {
		ttl = DefaultPrintedTTL
	}
	return &PrintedMarker{rdb: rdb, ttl: ttl}
}

// WasPrinted reports whether orderID carries a printed marker.
func (m *PrintedMarker) WasPrinted(ctx context.Context, orderID string) (bool, error) {
	n, err := m.rdb.Exists(ctx, fmt.Sprintf(KeyPrinted, orderID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkPrinted records orderID as printed. Marking twice is a no-op.
func (m *PrintedMarker) MarkPrinted(ctx context.Context, orderID string) error {
	at := time.Now().UTC().Format(time.RFC3339)
	if err := m.rdb.SetNX(ctx, fmt.Sprintf(KeyPrinted, orderID), at, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
