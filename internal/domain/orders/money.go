package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney parses a gateway currency string ("19.9950", "0", "") into a decimal.
// An empty value is treated as zero.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FormatMoney renders an amount with exactly two decimals, rounding half away from zero.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
