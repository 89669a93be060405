package view

import (
	"math"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NotAvailable stands in for any NaN or infinite figure.
const NotAvailable = "n/a"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Money formats v as US dollars, e.g. "$1,033,330.00" or "-$12.50".
func Money(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	cents := decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// SignedMoney is Money with a leading "+" on gains.
func SignedMoney(v float64) string {
	s := Money(v)
	if finite(v) && v > 0 {
		return "+" + s
	}
	return s
}

// Percent formats v with two decimals, e.g. "10.00%".
func Percent(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Shares formats a share count.
func Shares(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Number returns a pointer to v, or nil when v is not finite, so the JSON
// encoder can emit null.
func Number(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}
