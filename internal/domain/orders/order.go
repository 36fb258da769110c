package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType classifies a line item for fulfillment purposes.
type ProductType string

const (
	ProductPhysical ProductType = "physical"
	ProductDigital  ProductType = "digital"
	ProductGiftCard ProductType = "giftcard"

	PaymentDeclined = "declined"
)

// LineItem is one product row of an order, already resolved against the catalog.
type LineItem struct {
	SKU         string
	ItemNumber  string
	DisplayName string
	ProductType ProductType
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Contact is a billing or shipping contact block.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Street    string
	City      string
	State     string
	Zip       string
}

// FullName joins first and last name, skipping empty parts.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Shipping is the shipping contact plus the selected shipping method label.
type Shipping struct {
	Contact
	Method string
}

// Totals holds every currency figure printed on a ticket.
type Totals struct {
	Subtotal              decimal.Decimal
	ShippingCost          decimal.Decimal
	GrandTotal            decimal.Decimal
	CouponCode            string
	CouponDiscount        decimal.Decimal
	StoreCredit           decimal.Decimal
	GiftCertificateAmount decimal.Decimal
}

// Order is the normalized view of a commerce order. It is built in one step
// by the normalizer and never mutated afterwards.
type Order struct {
	ID              string
	PaymentStatus   string
	CreatedAt       time.Time // UTC
	Date            string    // local, 01/02/2006
	Time            string    // local, 03:04:05 PM
	LineItems       []LineItem
	Billing         Contact
	Shipping        Shipping
	Totals          Totals
	CustomerMessage string
	ItemCount       int
}

// IsPaymentDeclined reports whether the gateway marked the payment as declined.
// An empty status is not a decline.
func (order Order) IsPaymentDeclined() bool {
	return strings.EqualFold(strings.TrimSpace(order.PaymentStatus), PaymentDeclined)
}

// HasPhysicalItem reports whether at least one line item has to be picked and shipped.
func (order Order) HasPhysicalItem() bool {
	for _, it := range order.LineItems {
		if it.ProductType == ProductPhysical {
			return true
		}
	}
	return false
}
