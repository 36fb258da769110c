package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/retailops/ticketworker/internal/domain/storefront"
	"github.com/retailops/ticketworker/internal/ports"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

const (
	dateLayout = "01/02/2006"
	timeLayout = "03:04:05 PM"
)

// Normalizer assembles an orders.Order from the commerce gateway and the product catalog.
type Normalizer struct {
	gateway ports.CommerceGateway
	catalog ports.ProductCatalog
	loc     *time.Location
	logger  *logger.Logger
}

// NewNormalizer creates a normalizer rendering dates in loc (UTC when nil).
func NewNormalizer(gateway ports.CommerceGateway, catalog ports.ProductCatalog, loc *time.Location, logger *logger.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{gateway: gateway, catalog: catalog, loc: loc, logger: logger}
}

// Normalize fetches orderID and returns the complete order, or an error and no order at all.
func (n *Normalizer) Normalize(ctx context.Context, orderID string) (orders.Order, error) {
	detail, err := n.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	src := detail.Order

	created, err := mail.ParseDate(strings.TrimSpace(src.DateCreated))
	if err != nil {
		return orders.Order{}, fmt.Errorf("%w: date_created %q: %v", ErrMalformedOrder, src.DateCreated, err)
	}
	local := created.In(n.loc)

	totals, err := buildTotals(src, detail.Coupons)
	if err != nil {
		return orders.Order{}, err
	}

	items, err := n.buildItems(ctx, orderID, detail.Products)
	if err != nil {
		return orders.Order{}, err
	}

	itemCount, err := itemCount(src.ItemsTotal, items)
	if err != nil {
		return orders.Order{}, err
	}

	order := orders.Order{
		ID:              orderID,
		PaymentStatus:   strings.TrimSpace(src.PaymentStatus),
		CreatedAt:       created.UTC(),
		Date:            local.Format(dateLayout),
		Time:            local.Format(timeLayout),
		LineItems:       items,
		Billing:         contact(src.BillingAddress),
		Totals:          totals,
		CustomerMessage: strings.TrimSpace(src.CustomerMessage),
		ItemCount:       itemCount,
	}
	// Orders with no physical goods have no shipping address.
	if len(detail.ShippingAddresses) > 0 {
		sa := detail.ShippingAddresses[0]
		order.Shipping = orders.Shipping{Contact: contact(sa), Method: strings.TrimSpace(sa.ShippingMethod)}
	}

	return order, nil
}

func (n *Normalizer) buildItems(ctx context.Context, orderID string, products []storefront.Product) ([]orders.LineItem, error) {
	items := make([]orders.LineItem, 0, len(products))
	for _, p := range products {
		qty, err := strconv.Atoi(strings.TrimSpace(p.Quantity.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: quantity %q for sku %q", ErrMalformedOrder, p.Quantity, p.SKU)
		}
		price, err := orders.ParseMoney(p.BasePrice.String())
		if err != nil {
			return nil, fmt.Errorf("%w: base_price for sku %q: %v", ErrMalformedOrder, p.SKU, err)
		}
		total, err := orders.ParseMoney(p.BaseTotal.String())
		if err != nil {
			return nil, fmt.Errorf("%w: base_total for sku %q: %v", ErrMalformedOrder, p.SKU, err)
		}

		item := orders.LineItem{
			SKU:         p.SKU,
			ItemNumber:  p.SKU,
			DisplayName: p.Name,
			ProductType: productType(p.Type),
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   total,
		}

		if p.SKU != "" {
			prod, err := n.catalog.LookupProduct(ctx, p.SKU)
			switch {
			case err == nil:
				item.ItemNumber = prod.ItemNumber
				item.DisplayName = prod.DisplayName
			case errors.Is(err, orders.ErrProductNotFound):
				n.logger.Warn(ctx, "catalog_miss", "sku not in catalog, using storefront name", map[string]any{
					"order_id": orderID,
					"sku":      p.SKU,
				})
			default:
				return nil, fmt.Errorf("catalog lookup %q: %w", p.SKU, err)
			}
		}

		items = append(items, item)
	}
	return items, nil
}

func buildTotals(src storefront.Order, coupons []storefront.Coupon) (orders.Totals, error) {
	var t orders.Totals
	fields := []struct {
		name string
		raw  storefront.Flex
		dst  *decimal.Decimal
	}{
		{"subtotal_inc_tax", src.SubtotalIncTax, &t.Subtotal},
		{"shipping_cost_inc_tax", src.ShippingCostIncTax, &t.ShippingCost},
		{"total_inc_tax", src.TotalIncTax, &t.GrandTotal},
		{"coupon_discount", src.CouponDiscount, &t.CouponDiscount},
		{"store_credit_amount", src.StoreCreditAmount, &t.StoreCredit},
		{"gift_certificate_amount", src.GiftCertificateAmount, &t.GiftCertificateAmount},
	}
	for _, f := range fields {
		v, err := orders.ParseMoney(f.raw.String())
		if err != nil {
			return orders.Totals{}, fmt.Errorf("%w: %s: %v", ErrMalformedOrder, f.name, err)
		}
		*f.dst = v
	}

	if len(coupons) > 0 {
		t.CouponCode = strings.TrimSpace(coupons[0].Code)
	}
	return t, nil
}

// itemCount prefers the gateway's items_total and falls back to summing quantities.
func itemCount(raw storefront.Flex, items []orders.LineItem) (int, error) {
	if s := strings.TrimSpace(raw.String()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: items_total %q", ErrMalformedOrder, s)
		}
		return n, nil
	}

	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func productType(t string) orders.ProductType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "physical":
		return orders.ProductPhysical
	case "digital":
		return orders.ProductDigital
	case "giftcertificate", "giftcard", "gift_certificate":
		return orders.ProductGiftCard
	default:
		return orders.ProductType(strings.ToLower(strings.TrimSpace(t)))
	}
}

func contact(a storefront.Address) orders.Contact {
	street := strings.TrimSpace(a.Street1)
	if s2 := strings.TrimSpace(a.Street2); s2 != "" {
		street = strings.TrimSpace(street + " " + s2)
	}
	return orders.Contact{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Phone:     strings.TrimSpace(a.Phone),
		Email:     strings.TrimSpace(a.Email),
		Street:    street,
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		Zip:       strings.TrimSpace(a.Zip),
	}
}
