package models

import (
	"math"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "PEN"

var currencySymbols = map[string]string{
	"PEN": "S/",
	"USD": "$",
}

// FormatMoney renders an amount in minor units, e.g. 18000 PEN -> "S/ 180.00".
func FormatMoney(cents int64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	amount := decimal.New(cents, -2).StringFixed(2)
	if sym, ok := currencySymbols[currency]; ok {
		return sym + " " + amount
	}
	return amount + " " + currency
}

// MaxUnitCents caps a client-supplied unit price (S/ 1,000,000.00).
const MaxUnitCents int64 = 100_000_000

// MulCents returns unit*qty, or false when the product does not fit in int64.
func MulCents(unit int64, qty int) (int64, bool) {
	if unit < 0 || qty < 0 {
		return 0, false
	}
	if qty != 0 && unit > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return unit * int64(qty), true
}

// AddCents returns a+b for non-negative amounts, or false on overflow.
func AddCents(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
