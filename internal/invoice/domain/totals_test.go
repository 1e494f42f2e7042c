package domain

import "testing"

func TestRecomputeTotalsFromItems(t *testing.T) {
	details := InvoiceDetails{
		EngagementType: EngagementService,
		TaxPercentage:  18,
		Items: []LineItem{
			{Description: "Design", Quantity: 3, Rate: 0.1, Amount: 999},
			{Description: "Build", Quantity: 2, Rate: 1000},
		},
		Milestones: []Milestone{{Name: "ignored", Amount: 5000}},
	}

	got := RecomputeTotals(details)
	if got.Subtotal != 2000.3 {
		t.Fatalf("expected subtotal 2000.3, got %v", got.Subtotal)
	}
	if got.Tax != 360.05 {
		t.Fatalf("expected tax 360.05, got %v", got.Tax)
	}
	if got.Total != 2360.35 {
		t.Fatalf("expected total 2360.35, got %v", got.Total)
	}
}

func TestRecomputeTotalsFromMilestones(t *testing.T) {
	details := InvoiceDetails{
		EngagementType: EngagementMilestone,
		Items:          []LineItem{{Quantity: 10, Rate: 10}},
		Milestones:     []Milestone{{Name: "A", Amount: 100}, {Name: "B", Amount: 200}},
	}

	got := RecomputeTotals(details)
	if got.Subtotal != 300 || got.Tax != 0 || got.Total != 300 {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestCheckTotals(t *testing.T) {
	details := InvoiceDetails{
		EngagementType: EngagementService,
		Subtotal:       1000,
		Tax:            180,
		Total:          1180,
		TaxPercentage:  18,
		Items:          []LineItem{{Quantity: 1, Rate: 1000, Amount: 1000}},
	}
	if check := CheckTotals(details); !check.Consistent {
		t.Fatalf("expected consistent totals, got %+v", check)
	}

	details.Total = 1200
	check := CheckTotals(details)
	if check.Consistent {
		t.Fatalf("expected inconsistency to be reported")
	}
	if details.Total != 1200 || check.Stored.Total != 1200 {
		t.Fatalf("stored totals must not be rewritten")
	}
}

func TestBalanceDue(t *testing.T) {
	partial := 300.0
	cases := []struct {
		name    string
		details InvoiceDetails
		want    float64
	}{
		{name: "unpaid", details: InvoiceDetails{Total: 1000, Status: StatusSent}, want: 1000},
		{name: "paid", details: InvoiceDetails{Total: 1000, Status: StatusPaid}, want: 0},
		{name: "partial", details: InvoiceDetails{Total: 1000, Status: StatusPartiallyPaid, IsPartiallyPaid: true, PartiallyPaidAmount: &partial}, want: 700},
		{name: "overdue partial", details: InvoiceDetails{Total: 1000, Status: StatusOverdue, IsPartiallyPaid: true, PartiallyPaidAmount: &partial}, want: 700},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.details.BalanceDue(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
