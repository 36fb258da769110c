package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/domain/storefront"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

func newYorkNormalizer(t *testing.T, gw *fakeGateway, catalog fakeCatalog) *Normalizer {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return NewNormalizer(gw, catalog, loc, logger.NewNop())
}

func TestNormalize(t *testing.T) {
	detail := orderDetail("",
		product("TREE-01", "physical", "2", "19.9950", "39.9900"),
		product("GC-25", "giftcertificate", "1", "25.0000", "25.0000"),
	)
	detail.Order.CouponDiscount = "5.0000"
	detail.Coupons = []storefront.Coupon{{Code: "SPRING5", Discount: "5"}, {Code: "IGNORED"}}

	gw := &fakeGateway{orders: map[string]storefront.OrderDetail{"1001": detail}}
	catalog := fakeCatalog{"TREE-01": {ItemNumber: "10023", DisplayName: "Japanese Maple 3gal"}}

	order, err := newYorkNormalizer(t, gw, catalog).Normalize(context.Background(), "1001")
	require.NoError(t, err)

	assert.Equal(t, "1001", order.ID)
	assert.Equal(t, time.Date(2024, 4, 24, 18, 34, 24, 0, time.UTC), order.CreatedAt)
	assert.Equal(t, "04/24/2024", order.Date)
	assert.Equal(t, "02:34:24 PM", order.Time)
	assert.Equal(t, 2, order.ItemCount)
	assert.Equal(t, "Please call on arrival", order.CustomerMessage)

	require.Len(t, order.LineItems, 2)
	tree := order.LineItems[0]
	assert.Equal(t, "10023", tree.ItemNumber)
	assert.Equal(t, "Japanese Maple 3gal", tree.DisplayName)
	assert.Equal(t, orders.ProductPhysical, tree.ProductType)
	assert.Equal(t, 2, tree.Quantity)
	assert.True(t, decimal.RequireFromString("19.995").Equal(tree.UnitPrice))

	gift := order.LineItems[1]
	assert.Equal(t, orders.ProductGiftCard, gift.ProductType)
	assert.Equal(t, "GC-25", gift.ItemNumber, "catalog miss falls back to the storefront sku")
	assert.Equal(t, "Storefront GC-25", gift.DisplayName)

	assert.Equal(t, "SPRING5", order.Totals.CouponCode)
	assert.Equal(t, "5.00", orders.FormatMoney(order.Totals.CouponDiscount))
	assert.Equal(t, "44.99", orders.FormatMoney(order.Totals.GrandTotal))

	assert.Equal(t, "Ann Lee", order.Billing.FullName())
	assert.Equal(t, "12 Oak Rd Apt 3", order.Billing.Street)
	assert.Equal(t, "Flat Rate", order.Shipping.Method)
}

func TestNormalizeFailsAtomically(t *testing.T) {
	tests := map[string]func(d *storefront.OrderDetail){
		"bad amount":   func(d *storefront.OrderDetail) { d.Order.TotalIncTax = "12,50" },
		"bad date":     func(d *storefront.OrderDetail) { d.Order.DateCreated = "yesterday" },
		"bad quantity": func(d *storefront.OrderDetail) { d.Products[0].Quantity = "two" },
		"bad price":    func(d *storefront.OrderDetail) { d.Products[0].BasePrice = "N/A" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			detail := orderDetail("", product("TREE-01", "physical", "1", "10", "10"))
			mutate(&detail)
			gw := &fakeGateway{orders: map[string]storefront.OrderDetail{"1": detail}}

			order, err := newYorkNormalizer(t, gw, fakeCatalog{}).Normalize(context.Background(), "1")
			assert.ErrorIs(t, err, ErrMalformedOrder)
			assert.Equal(t, orders.Order{}, order)
		})
	}
}

type brokenCatalog struct{}

func (brokenCatalog) LookupProduct(context.Context, string) (orders.CatalogEntry, error) {
	return orders.CatalogEntry{}, errors.New("connection refused")
}

func TestNormalizeCatalogOutage(t *testing.T) {
	detail := orderDetail("", product("TREE-01", "physical", "1", "10", "10"))
	gw := &fakeGateway{orders: map[string]storefront.OrderDetail{"1": detail}}

	n := NewNormalizer(gw, brokenCatalog{}, time.UTC, logger.NewNop())
	_, err := n.Normalize(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNormalizeGatewayErrorPassesThrough(t *testing.T) {
	gw := &fakeGateway{}
	_, err := newYorkNormalizer(t, gw, fakeCatalog{}).Normalize(context.Background(), "404")
	assert.ErrorIs(t, err, storefront.ErrOrderNotFound)
}

func TestNormalizeWithoutShippingAddress(t *testing.T) {
	detail := orderDetail("", product("GC-25", "giftcertificate", "1", "25", "25"))
	detail.ShippingAddresses = nil
	detail.Order.ItemsTotal = ""
	gw := &fakeGateway{orders: map[string]storefront.OrderDetail{"7": detail}}

	order, err := newYorkNormalizer(t, gw, fakeCatalog{}).Normalize(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, orders.Shipping{}, order.Shipping)
	assert.Equal(t, 1, order.ItemCount, "item count falls back to summed quantities")
}
