// Package engagement reshapes normalized invoices into the line-item layout
// each engagement type prints with.
package engagement

import (
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
)

const (
	RetainerDescription = "Monthly Retainer Fee"
	ProjectDescription  = "Project Fee"
	MilestoneName       = "Project Milestone"
	UnnamedMilestone    = "Milestone"
)

// Handler reshapes the collections of one engagement type. Handlers receive
// a copy and may modify it freely.
type Handler func(domain.InvoiceDetails) domain.InvoiceDetails

var handlers = map[domain.EngagementType]Handler{
	domain.EngagementService:      itemized,
	domain.EngagementRetainership: singleCharge(RetainerDescription),
	domain.EngagementProject:      singleCharge(ProjectDescription),
	domain.EngagementMilestone:    milestones,
}

// HandlerFor returns the handler for t. Unknown types are treated as service.
func HandlerFor(t domain.EngagementType) Handler {
	if h, ok := handlers[t]; ok {
		return h
	}
	return itemized
}

// Transform expects normalized input and never fails. Applying it twice
// yields the same result as applying it once.
func Transform(data domain.InvoicePreviewData) domain.InvoicePreviewData {
	out := data
	out.Invoice = HandlerFor(data.Invoice.EngagementType)(cloneCollections(data.Invoice))
	return out
}

func cloneCollections(d domain.InvoiceDetails) domain.InvoiceDetails {
	items := make([]domain.LineItem, len(d.Items))
	copy(items, d.Items)
	ms := make([]domain.Milestone, len(d.Milestones))
	copy(ms, d.Milestones)
	d.Items = items
	d.Milestones = ms
	return d
}

func itemized(d domain.InvoiceDetails) domain.InvoiceDetails {
	return d
}

func singleCharge(description string) Handler {
	return func(d domain.InvoiceDetails) domain.InvoiceDetails {
		if len(d.Items) == 0 {
			d.Items = []domain.LineItem{{
				Description: description,
				Quantity:    1,
				Rate:        d.Subtotal,
				Amount:      d.Subtotal,
			}}
			return d
		}

		item := d.Items[0]
		item.Quantity = 1
		if item.Rate == 0 {
			item.Rate = d.Subtotal
		}
		if item.Amount == 0 {
			item.Amount = d.Subtotal
		}
		d.Items = []domain.LineItem{item}
		return d
	}
}

func milestones(d domain.InvoiceDetails) domain.InvoiceDetails {
	if len(d.Milestones) == 0 {
		d.Milestones = []domain.Milestone{{Name: MilestoneName, Amount: d.Subtotal}}
		return d
	}
	for i := range d.Milestones {
		if d.Milestones[i].Name == "" {
			d.Milestones[i].Name = UnnamedMilestone
		}
	}
	return d
}
