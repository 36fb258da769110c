package ticket

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate is returned for a missing, unreadable or incomplete ticket template.
var ErrInvalidTemplate = errors.New("ticket: invalid template")

// Template is the printed ticket layout, loaded from YAML.
type Template struct {
	Title  string `yaml:"title"`
	Logo   string `yaml:"logo"`
	Labels struct {
		Order           string `yaml:"order"`
		Date            string `yaml:"date"`
		Time            string `yaml:"time"`
		BillTo          string `yaml:"bill_to"`
		ShipTo          string `yaml:"ship_to"`
		ShippingMethod  string `yaml:"shipping_method"`
		Items           string `yaml:"items"`
		Notes           string `yaml:"notes"`
		Subtotal        string `yaml:"subtotal"`
		Shipping        string `yaml:"shipping"`
		Coupon          string `yaml:"coupon"`
		Loyalty         string `yaml:"loyalty"`
		GiftCertificate string `yaml:"gift_certificate"`
		Total           string `yaml:"total"`
	} `yaml:"labels"`
	Columns struct {
		SKU   string `yaml:"sku"`
		Name  string `yaml:"name"`
		Qty   string `yaml:"qty"`
		Price string `yaml:"price"`
		Total string `yaml:"total"`
	} `yaml:"columns"`
	Footer string `yaml:"footer"`
}

// LoadTemplate reads and validates the template at path. Unknown keys are rejected.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	var t Template
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, path, err)
	}

	if strings.TrimSpace(t.Title) == "" {
		return nil, fmt.Errorf("%w: %s: title is required", ErrInvalidTemplate, path)
	}
	if t.Logo != "" {
		if _, err := os.Stat(t.Logo); err != nil {
			return nil, fmt.Errorf("%w: logo: %v", ErrInvalidTemplate, err)
		}
	}

	t.applyDefaults()
	return &t, nil
}

func (t *Template) applyDefaults() {
	def := func(field *string, value string) {
		if strings.TrimSpace(*field) == "" {
			*field = value
		}
	}

	def(&t.Labels.Order, "Order")
	def(&t.Labels.Date, "Date")
	def(&t.Labels.Time, "Time")
	def(&t.Labels.BillTo, "Bill To")
	def(&t.Labels.ShipTo, "Ship To")
	def(&t.Labels.ShippingMethod, "Shipping Method")
	def(&t.Labels.Items, "Items")
	def(&t.Labels.Notes, "Notes")
	def(&t.Labels.Subtotal, "Subtotal")
	def(&t.Labels.Shipping, "Shipping")
	def(&t.Labels.Coupon, "Coupon")
	def(&t.Labels.Loyalty, "Loyalty")
	def(&t.Labels.GiftCertificate, "Gift Certificate")
	def(&t.Labels.Total, "Total")

	def(&t.Columns.SKU, "Item #")
	def(&t.Columns.Name, "Description")
	def(&t.Columns.Qty, "Qty")
	def(&t.Columns.Price, "Price")
	def(&t.Columns.Total, "Total")
}
