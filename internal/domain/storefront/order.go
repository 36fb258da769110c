// Package storefront holds the order shape read from the online store, before
// it is normalized into a ticket order.
package storefront

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when the store has no order (or sub-resource) with that id.
var ErrOrderNotFound = errors.New("storefront: order not found")

// Flex decodes a JSON value that the API sends either as a string or as a number.
// Amounts stay in their textual form so no float rounding happens on the way in.
type Flex string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("storefront: expected string or number, got %s", string(b))
		}
		*f = Flex(n.String())
		return nil
	}
}

func (f Flex) String() string { return string(f) }

// Order is the subset of the order resource the ticket needs.
type Order struct {
	ID                    Flex    `json:"id"`
	DateCreated           string  `json:"date_created"`
	Status                string  `json:"status"`
	PaymentStatus         string  `json:"payment_status"`
	SubtotalIncTax        Flex    `json:"subtotal_inc_tax"`
	ShippingCostIncTax    Flex    `json:"shipping_cost_inc_tax"`
	TotalIncTax           Flex    `json:"total_inc_tax"`
	ItemsTotal            Flex    `json:"items_total"`
	CustomerMessage       string  `json:"customer_message"`
	CouponDiscount        Flex    `json:"coupon_discount"`
	StoreCreditAmount     Flex    `json:"store_credit_amount"`
	GiftCertificateAmount Flex    `json:"gift_certificate_amount"`
	BillingAddress        Address `json:"billing_address"`
}

// Address is used for both the billing address and shipping address entries.
type Address struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Street1        string `json:"street_1"`
	Street2        string `json:"street_2"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	Country        string `json:"country"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	ShippingMethod string `json:"shipping_method,omitempty"`
}

// Product is one ordered product line.
type Product struct {
	ID        Flex   `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Type      string `json:"type"` // physical | digital | giftcertificate
	Quantity  Flex   `json:"quantity"`
	BasePrice Flex   `json:"base_price"`
	BaseTotal Flex   `json:"base_total"`
}

// Coupon is one coupon applied to the order.
type Coupon struct {
	Code     string `json:"code"`
	Amount   Flex   `json:"amount"`
	Discount Flex   `json:"discount"`
}

// OrderDetail bundles every resource fetched for one order.
type OrderDetail struct {
	Order             Order
	Products          []Product
	ShippingAddresses []Address
	Coupons           []Coupon
}
