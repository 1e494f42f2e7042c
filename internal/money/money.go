// Package money converts invoice amounts to and from display strings and does
// currency-safe arithmetic on top of decimal values.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO code accepted on invoices.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

// DefaultCurrency is used when a record carries no currency.
const DefaultCurrency = CurrencyINR

var (
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidRate         = errors.New("invalid_exchange_rate")
)

// ParseCurrency accepts any casing and surrounding whitespace.
func ParseCurrency(raw string) (Currency, bool) {
	switch Currency(strings.ToUpper(strings.TrimSpace(raw))) {
	case CurrencyINR:
		return CurrencyINR, true
	case CurrencyUSD:
		return CurrencyUSD, true
	default:
		return "", false
	}
}

func (c Currency) Valid() bool {
	_, ok := ParseCurrency(string(c))
	return ok
}

// Symbol returns the display symbol, falling back to the code itself.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyINR:
		return "₹"
	case CurrencyUSD:
		return "$"
	default:
		return string(c)
	}
}

// Decimal converts a float to a decimal. NaN and infinities become zero.
func Decimal(value float64) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

// Round rounds half away from zero to the given number of places.
func Round(value float64, places int32) float64 {
	return Decimal(value).Round(places).InexactFloat64()
}

// RoundMinor rounds to two decimal places.
func RoundMinor(value float64) float64 {
	return Round(value, 2)
}

// Sum adds the values without accumulating binary float error.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(Decimal(value))
	}
	return total.InexactFloat64()
}

// Multiply returns a*b rounded to two decimal places.
func Multiply(a, b float64) float64 {
	return Decimal(a).Mul(Decimal(b)).Round(2).InexactFloat64()
}

// Divide returns a/b rounded to the given places. b must be positive.
func Divide(a, b float64, places int32) (float64, error) {
	divisor := Decimal(b)
	if !divisor.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return Decimal(a).DivRound(divisor, places).InexactFloat64(), nil
}

// Convert moves an amount between INR and USD using the USD->INR rate.
func Convert(amount float64, from, to Currency, usdToINR float64) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, ErrUnsupportedCurrency
	}
	if from == to {
		return RoundMinor(amount), nil
	}
	if !Decimal(usdToINR).IsPositive() {
		return 0, ErrInvalidRate
	}
	if from == CurrencyUSD {
		return Multiply(amount, usdToINR), nil
	}
	return Divide(amount, usdToINR, 2)
}
