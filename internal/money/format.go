package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount with the currency symbol and grouping, e.g.
// "₹1,23,456.50" for INR and "$123,456.50" for USD.
func Format(amount float64, currency Currency) string {
	if !currency.Valid() {
		currency = DefaultCurrency
	}
	number := FormatNumber(amount, currency)
	if strings.HasPrefix(number, "-") {
		return "-" + currency.Symbol() + number[1:]
	}
	return currency.Symbol() + number
}

// FormatNumber renders an amount with two decimals and the digit grouping of
// the currency's locale, without a symbol.
func FormatNumber(amount float64, currency Currency) string {
	fixed := Decimal(amount).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	integer, fraction, _ := strings.Cut(fixed, ".")
	var grouped string
	if currency == CurrencyINR {
		grouped = groupIndian(integer)
	} else {
		grouped = groupThousands(integer)
	}

	out := grouped + "." + fraction
	if negative && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out
}

// Parse reads a display string back into an amount. Symbols, currency codes,
// grouping separators and whitespace are ignored.
func Parse(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	for _, token := range []string{"₹", "$", "INR", "USD", "Rs.", ",", " "} {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return value.InexactFloat64(), nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// groupIndian groups the last three digits, then pairs (lakh/crore).
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
