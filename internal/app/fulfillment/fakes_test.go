package fulfillment

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/domain/storefront"
)

type fakeGateway struct {
	orders map[string]storefront.OrderDetail
	errs   map[string]error
	calls  []string
}

func (f *fakeGateway) FetchOrder(_ context.Context, id string) (storefront.OrderDetail, error) {
	f.calls = append(f.calls, id)
	if err, ok := f.errs[id]; ok {
		return storefront.OrderDetail{}, err
	}
	d, ok := f.orders[id]
	if !ok {
		return storefront.OrderDetail{}, storefront.ErrOrderNotFound
	}
	return d, nil
}

type fakeCatalog map[string]orders.CatalogEntry

func (f fakeCatalog) LookupProduct(_ context.Context, sku string) (orders.CatalogEntry, error) {
	p, ok := f[sku]
	if !ok {
		return orders.CatalogEntry{}, orders.ErrProductNotFound
	}
	return p, nil
}

type memorySink struct {
	mu      sync.Mutex
	records []orders.Record
}

func (s *memorySink) Record(_ context.Context, rec orders.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

type memoryMarker struct {
	printed map[string]bool
	err     error
}

func (m *memoryMarker) WasPrinted(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.printed[id], nil
}

func (m *memoryMarker) MarkPrinted(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.printed[id] = true
	return nil
}

// snapshotPrinter lists the output dir at submit time.
type snapshotPrinter struct {
	dir       string
	err       error
	submitted []string
	seen      []string
}

func (p *snapshotPrinter) Submit(_ context.Context, path string) error {
	p.submitted = append(p.submitted, path)
	entries, _ := os.ReadDir(p.dir)
	p.seen = p.seen[:0]
	for _, e := range entries {
		p.seen = append(p.seen, e.Name())
	}
	return p.err
}

func product(sku, typ, qty, price, total string) storefront.Product {
	return storefront.Product{
		SKU:       sku,
		Name:      "Storefront " + sku,
		Type:      typ,
		Quantity:  storefront.Flex(qty),
		BasePrice: storefront.Flex(price),
		BaseTotal: storefront.Flex(total),
	}
}

func orderDetail(paymentStatus string, products ...storefront.Product) storefront.OrderDetail {
	return storefront.OrderDetail{
		Order: storefront.Order{
			DateCreated:           "Wed, 24 Apr 2024 18:34:24 +0000",
			PaymentStatus:         paymentStatus,
			SubtotalIncTax:        "39.9900",
			ShippingCostIncTax:    "5.0000",
			TotalIncTax:           "44.9900",
			ItemsTotal:            "2",
			CouponDiscount:        "0.0000",
			StoreCreditAmount:     "0.0000",
			GiftCertificateAmount: "0.0000",
			CustomerMessage:       " Please call on arrival ",
			BillingAddress: storefront.Address{
				FirstName: "Ann", LastName: "Lee", Street1: "12 Oak Rd", Street2: "Apt 3",
				City: "Asheville", State: "North Carolina", Zip: "28801", Phone: "555-0101", Email: "ann@example.com",
			},
		},
		Products: products,
		ShippingAddresses: []storefront.Address{{
			FirstName: "Ann", LastName: "Lee", Street1: "12 Oak Rd",
			City: "Asheville", State: "North Carolina", Zip: "28801", ShippingMethod: "Flat Rate",
		}},
	}
}

const ticketTemplate = "title: ORDER TICKET\nfooter: Pick and pack\n"

func writeTicketTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ticketTemplate), 0o644))
	return path
}
