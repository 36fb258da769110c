package ticket

import (
	"strconv"
	"strings"

	"github.com/retailops/ticketworker/internal/domain/orders"
	"github.com/shopspring/decimal"
)

// Company is the business identity printed in the ticket header.
type Company struct {
	Name    string
	Address string
	Phone   string
}

type amountLine struct {
	Label  string
	Amount string
}

type itemRow struct {
	SKU   string
	Name  string
	Qty   string
	Price string
	Total string
}

// view is the ticket content with every value already formatted for print.
type view struct {
	Title   string
	Logo    string
	Company Company

	Order string
	Date  string
	Time  string
	Items string

	BillToLabel string
	BillTo      []string
	ShipToLabel string
	ShipTo      []string

	Header itemRow
	Rows   []itemRow
	Totals []amountLine

	NotesLabel string
	Notes      string
	Footer     string
}

func buildView(t *Template, company Company, order orders.Order) view {
	v := view{
		Title:       t.Title,
		Logo:        t.Logo,
		Company:     company,
		Order:       t.Labels.Order + ": " + order.ID,
		Date:        t.Labels.Date + ": " + order.Date,
		Time:        t.Labels.Time + ": " + order.Time,
		Items:       t.Labels.Items + ": " + strconv.Itoa(order.ItemCount),
		BillToLabel: t.Labels.BillTo,
		BillTo:      contactLines(order.Billing),
		ShipToLabel: t.Labels.ShipTo,
		ShipTo:      contactLines(order.Shipping.Contact),
		Header: itemRow{
			SKU:   t.Columns.SKU,
			Name:  t.Columns.Name,
			Qty:   t.Columns.Qty,
			Price: t.Columns.Price,
			Total: t.Columns.Total,
		},
		NotesLabel: t.Labels.Notes,
		Notes:      strings.TrimSpace(order.CustomerMessage),
		Footer:     t.Footer,
	}
	if order.Shipping.Method != "" {
		v.ShipTo = append(v.ShipTo, t.Labels.ShippingMethod+": "+order.Shipping.Method)
	}

	for _, it := range order.LineItems {
		v.Rows = append(v.Rows, itemRow{
			SKU:   it.ItemNumber,
			Name:  it.DisplayName,
			Qty:   strconv.Itoa(it.Quantity),
			Price: orders.FormatMoney(it.UnitPrice),
			Total: orders.FormatMoney(it.LineTotal),
		})
	}

	tot := order.Totals
	v.Totals = append(v.Totals,
		amountLine{t.Labels.Subtotal, orders.FormatMoney(tot.Subtotal)},
		amountLine{t.Labels.Shipping, orders.FormatMoney(tot.ShippingCost)},
	)
	if tot.CouponCode != "" || !tot.CouponDiscount.IsZero() {
		label := t.Labels.Coupon
		if tot.CouponCode != "" {
			label += " (" + tot.CouponCode + ")"
		}
		v.Totals = append(v.Totals, amountLine{label, negative(tot.CouponDiscount)})
	}
	if !tot.StoreCredit.IsZero() {
		v.Totals = append(v.Totals, amountLine{t.Labels.Loyalty, negative(tot.StoreCredit)})
	}
	if !tot.GiftCertificateAmount.IsZero() {
		v.Totals = append(v.Totals, amountLine{t.Labels.GiftCertificate, negative(tot.GiftCertificateAmount)})
	}
	v.Totals = append(v.Totals, amountLine{t.Labels.Total, orders.FormatMoney(tot.GrandTotal)})

	return v
}

// negative prints a deduction with a leading minus sign.
func negative(d decimal.Decimal) string {
	return orders.FormatMoney(d.Abs().Neg())
}

func contactLines(c orders.Contact) []string {
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	add(c.FullName())
	add(c.Street)

	cityState := strings.TrimSpace(c.City)
	if c.State != "" {
		if cityState != "" {
			cityState += ", "
		}
		cityState += c.State
	}
	add(strings.TrimSpace(cityState + " " + c.Zip))
	add(c.Phone)
	add(c.Email)
	return lines
}
