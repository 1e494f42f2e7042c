package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PreviewInput is a possibly incomplete preview record as produced by loaders
// or decoded from JSON. Numeric fields accept numbers or numeric strings.
type PreviewInput struct {
	Issuer  Issuer       `json:"issuer"`
	Client  Client       `json:"client"`
	Banking *Banking     `json:"banking,omitempty"`
	Invoice InvoiceInput `json:"invoice"`
}

type InvoiceInput struct {
	InvoiceNumber       string           `json:"invoice_number"`
	IssueDate           string           `json:"issue_date"`
	DueDate             string           `json:"due_date"`
	Subtotal            any              `json:"subtotal"`
	Tax                 any              `json:"tax"`
	Total               any              `json:"total"`
	Notes               string           `json:"notes"`
	Currency            string           `json:"currency"`
	TaxPercentage       any              `json:"tax_percentage"`
	EngagementType      string           `json:"engagement_type"`
	Items               []LineItemInput  `json:"items"`
	Milestones          []MilestoneInput `json:"milestones"`
	Status              string           `json:"status"`
	PaymentDate         string           `json:"payment_date"`
	PaymentMethod       string           `json:"payment_method"`
	PaymentReference    string           `json:"payment_reference"`
	IsPartiallyPaid     bool             `json:"is_partially_paid"`
	PartiallyPaidAmount any              `json:"partially_paid_amount"`
}

type LineItemInput struct {
	Description string `json:"description"`
	Quantity    any    `json:"quantity"`
	Rate        any    `json:"rate"`
	Amount      any    `json:"amount"`
}

type MilestoneInput struct {
	Name   string `json:"name"`
	Amount any    `json:"amount"`
}

// Input turns a preview back into loader input, so it can be normalized again.
func (d InvoicePreviewData) Input() PreviewInput {
	inv := d.Invoice
	in := PreviewInput{
		Issuer: d.Issuer,
		Client: d.Client,
		Invoice: InvoiceInput{
			InvoiceNumber:    inv.InvoiceNumber,
			IssueDate:        inv.IssueDate,
			DueDate:          inv.DueDate,
			Subtotal:         inv.Subtotal,
			Tax:              inv.Tax,
			Total:            inv.Total,
			Notes:            inv.Notes,
			Currency:         string(inv.Currency),
			TaxPercentage:    inv.TaxPercentage,
			EngagementType:   string(inv.EngagementType),
			Status:           string(inv.Status),
			PaymentDate:      inv.PaymentDate,
			PaymentMethod:    inv.PaymentMethod,
			PaymentReference: inv.PaymentReference,
			IsPartiallyPaid:  inv.IsPartiallyPaid,
		},
	}
	if d.Banking != nil {
		banking := *d.Banking
		in.Banking = &banking
	}
	if inv.PartiallyPaidAmount != nil {
		in.Invoice.PartiallyPaidAmount = *inv.PartiallyPaidAmount
	}
	in.Invoice.Items = make([]LineItemInput, 0, len(inv.Items))
	for _, item := range inv.Items {
		in.Invoice.Items = append(in.Invoice.Items, LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}
	in.Invoice.Milestones = make([]MilestoneInput, 0, len(inv.Milestones))
	for _, m := range inv.Milestones {
		in.Invoice.Milestones = append(in.Invoice.Milestones, MilestoneInput{Name: m.Name, Amount: m.Amount})
	}
	return in
}

// ToNumber casts a loosely typed value to a float. Anything that is not a
// finite number becomes 0.
func ToNumber(value any) float64 {
	n, ok := numberOf(value)
	if !ok {
		return 0
	}
	return n
}

// ToOptionalNumber is ToNumber that keeps absence (nil or unparsable) as nil.
func ToOptionalNumber(value any) *float64 {
	n, ok := numberOf(value)
	if !ok {
		return nil
	}
	return &n
}

func numberOf(value any) (float64, bool) {
	var n float64
	switch typed := value.(type) {
	case nil:
		return 0, false
	case float64:
		n = typed
	case float32:
		n = float64(typed)
	case int:
		n = float64(typed)
	case int32:
		n = float64(typed)
	case int64:
		n = float64(typed)
	case *float64:
		if typed == nil {
			return 0, false
		}
		n = *typed
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case decimal.Decimal:
		n = typed.InexactFloat64()
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
