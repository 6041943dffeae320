package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarks = []string{"AED", "aed", "Dhs", "dhs", "DHS"}

// ParseAmount converts user input into a decimal.
// Accepts formatted strings like "20,000", "AED 1,250.50", "AED -20,000".
// Blank or unparsable input yields zero and an error; callers that coerce
// ignore the error.
func ParseAmount(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return parseAmountString(v)
	default:
		return decimal.Zero, fmt.Errorf("invalid amount type %T", i)
	}
}

// CoerceAmount is ParseAmount with errors mapped to zero.
func CoerceAmount(i interface{}) decimal.Decimal {
	d, err := ParseAmount(i)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseAmountString(v string) (decimal.Decimal, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	// keep digits and '.'
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", v)
	}
	if neg {
		clean = "-" + clean
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", v, err)
	}
	return d, nil
}

// Amount is a decimal that also accepts formatted strings in JSON input.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	d, err := ParseAmount(v)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}
