// Package decimal provides a thin money wrapper over shopspring/decimal
// for formatting dollar amounts in reports.
package decimal

import (
	"github.com/shopspring/decimal"
)

// Money represents a dollar amount.
type Money struct {
	value decimal.Decimal
}

// NewMoneyFromDecimal creates a Money from a decimal value.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// NewMoneyFromFloat creates a Money from a float64 value.
func NewMoneyFromFloat(f float64) Money {
	return Money{value: decimal.NewFromFloat(f)}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// Round rounds to the given number of decimal places.
func (m Money) Round(places int32) Money {
	return Money{value: m.value.Round(places)}
}

// String returns the amount with two decimal places.
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// Format returns the amount with a leading dollar sign and thousands
// separators, suitable for report output.
func (m Money) Format() string {
	s := m.value.Round(2).StringFixed(2)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart = s[:i]
			fracPart = s[i:]
			break
		}
	}

	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	result := "$" + string(out) + fracPart
	if neg {
		result = "-" + result
	}
	return result
}
