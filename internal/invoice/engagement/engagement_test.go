package engagement

import (
	"reflect"
	"testing"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/normalize"
)

func preview(in domain.InvoiceInput) domain.InvoicePreviewData {
	return normalize.Normalize(domain.PreviewInput{Invoice: in})
}

func TestEveryEngagementTypeHasHandler(t *testing.T) {
	for _, et := range domain.EngagementTypes {
		if _, ok := handlers[et]; !ok {
			t.Fatalf("engagement type %q has no handler", et)
		}
	}
	if len(handlers) != len(domain.EngagementTypes) {
		t.Fatalf("handler table has %d entries, want %d", len(handlers), len(domain.EngagementTypes))
	}
}

func TestRetainershipWithoutItems(t *testing.T) {
	got := Transform(preview(domain.InvoiceInput{EngagementType: "retainership", Subtotal: 500}))

	want := []domain.LineItem{{Description: "Monthly Retainer Fee", Quantity: 1, Rate: 500, Amount: 500}}
	if !reflect.DeepEqual(got.Invoice.Items, want) {
		t.Fatalf("expected %+v, got %+v", want, got.Invoice.Items)
	}
}

func TestSingleChargeKeepsFirstItem(t *testing.T) {
	cases := []struct {
		name       string
		engagement string
		items      []domain.LineItemInput
		want       domain.LineItem
	}{
		{
			name:       "retainership fills missing rate and amount",
			engagement: "retainership",
			items: []domain.LineItemInput{
				{Description: "March retainer", Quantity: 3},
				{Description: "stray", Quantity: 1, Rate: 10, Amount: 10},
			},
			want: domain.LineItem{Description: "March retainer", Quantity: 1, Rate: 800, Amount: 800},
		},
		{
			name:       "project keeps given rate",
			engagement: "project",
			items:      []domain.LineItemInput{{Description: "Website", Quantity: 2, Rate: 400, Amount: "800"}},
			want:       domain.LineItem{Description: "Website", Quantity: 1, Rate: 400, Amount: 800},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Transform(preview(domain.InvoiceInput{EngagementType: tc.engagement, Subtotal: 800, Items: tc.items}))
			if len(got.Invoice.Items) != 1 || got.Invoice.Items[0] != tc.want {
				t.Fatalf("expected [%+v], got %+v", tc.want, got.Invoice.Items)
			}
		})
	}
}

func TestProjectWithoutItems(t *testing.T) {
	got := Transform(preview(domain.InvoiceInput{EngagementType: "project", Subtotal: 1200}))
	if len(got.Invoice.Items) != 1 || got.Invoice.Items[0].Description != "Project Fee" || got.Invoice.Items[0].Amount != 1200 {
		t.Fatalf("unexpected items %+v", got.Invoice.Items)
	}
}

func TestMilestonesCoercedAndOrdered(t *testing.T) {
	got := Transform(preview(domain.InvoiceInput{
		EngagementType: "milestone",
		Milestones: []domain.MilestoneInput{
			{Name: "A", Amount: "100"},
			{Name: "B", Amount: 200},
		},
	}))

	want := []domain.Milestone{{Name: "A", Amount: 100}, {Name: "B", Amount: 200}}
	if !reflect.DeepEqual(got.Invoice.Milestones, want) {
		t.Fatalf("expected %+v, got %+v", want, got.Invoice.Milestones)
	}
}

func TestMilestoneDefaults(t *testing.T) {
	empty := Transform(preview(domain.InvoiceInput{EngagementType: "milestone", Subtotal: 750}))
	want := []domain.Milestone{{Name: "Project Milestone", Amount: 750}}
	if !reflect.DeepEqual(empty.Invoice.Milestones, want) {
		t.Fatalf("expected %+v, got %+v", want, empty.Invoice.Milestones)
	}

	unnamed := Transform(preview(domain.InvoiceInput{
		EngagementType: "milestone",
		Milestones:     []domain.MilestoneInput{{Amount: 10}},
	}))
	if unnamed.Invoice.Milestones[0].Name != "Milestone" {
		t.Fatalf("expected default milestone name, got %q", unnamed.Invoice.Milestones[0].Name)
	}
}

func TestServicePassesItemsThrough(t *testing.T) {
	got := Transform(preview(domain.InvoiceInput{
		Items: []domain.LineItemInput{
			{Description: "a", Quantity: "2", Rate: "x", Amount: 5},
			{Description: "b", Quantity: 1, Rate: 3, Amount: 3},
		},
		Milestones: []domain.MilestoneInput{{Name: "kept", Amount: 1}},
	}))
	if len(got.Invoice.Items) != 2 || got.Invoice.Items[0].Rate != 0 || got.Invoice.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", got.Invoice.Items)
	}
	if len(got.Invoice.Milestones) != 1 || got.Invoice.Milestones[0].Name != "kept" {
		t.Fatalf("milestones should be untouched, got %+v", got.Invoice.Milestones)
	}
}

func TestTransformIsIdempotent(t *testing.T) {
	for _, et := range domain.EngagementTypes {
		t.Run(string(et), func(t *testing.T) {
			data := preview(domain.InvoiceInput{
				EngagementType: string(et),
				Subtotal:       900,
				Items:          []domain.LineItemInput{{Description: "x", Quantity: 4}, {Description: "y"}},
				Milestones:     []domain.MilestoneInput{{Amount: "300"}},
			})
			once := Transform(data)
			twice := Transform(once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("transform is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
			}
		})
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	data := preview(domain.InvoiceInput{
		EngagementType: "retainership",
		Subtotal:       100,
		Items:          []domain.LineItemInput{{Description: "x", Quantity: 5}, {Description: "y"}},
	})
	Transform(data)
	if len(data.Invoice.Items) != 2 || data.Invoice.Items[0].Quantity != 5 {
		t.Fatalf("input was mutated: %+v", data.Invoice.Items)
	}
}
