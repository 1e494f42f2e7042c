package domain

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// Totals is a subtotal/tax/total triple.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// TotalsCheck compares the totals stored on an invoice with those derived
// from its line items.
type TotalsCheck struct {
	Stored     Totals `json:"stored"`
	Recomputed Totals `json:"recomputed"`
	Consistent bool   `json:"consistent"`
}

var totalsTolerance = decimal.New(1, -2)

// RecomputeTotals derives totals from the collection that is authoritative
// for the engagement type. Line items contribute quantity × rate; milestones
// contribute their amount. Tax is subtotal × taxPercentage / 100.
func RecomputeTotals(details InvoiceDetails) Totals {
	subtotal := decimal.Zero
	if details.EngagementType == EngagementMilestone {
		for _, m := range details.Milestones {
			subtotal = subtotal.Add(money.Decimal(m.Amount))
		}
	} else {
		for _, item := range details.Items {
			subtotal = subtotal.Add(money.Decimal(item.Quantity).Mul(money.Decimal(item.Rate)))
		}
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(money.Decimal(details.TaxPercentage)).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(tax)

	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// CheckTotals never modifies details.
func CheckTotals(details InvoiceDetails) TotalsCheck {
	stored := Totals{Subtotal: details.Subtotal, Tax: details.Tax, Total: details.Total}
	recomputed := RecomputeTotals(details)
	return TotalsCheck{
		Stored:     stored,
		Recomputed: recomputed,
		Consistent: within(stored.Subtotal, recomputed.Subtotal) &&
			within(stored.Tax, recomputed.Tax) &&
			within(stored.Total, recomputed.Total),
	}
}

func within(a, b float64) bool {
	return money.Decimal(a).Sub(money.Decimal(b)).Abs().LessThanOrEqual(totalsTolerance)
}
