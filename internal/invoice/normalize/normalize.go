// Package normalize turns possibly incomplete preview records into fully
// defaulted ones that renderers can consume without nil checks.
package normalize

import (
	"strings"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// Normalize never fails. Normalizing its own output (via Input) yields the
// same record.
func Normalize(in domain.PreviewInput) domain.InvoicePreviewData {
	return domain.InvoicePreviewData{
		Issuer:  issuer(in.Issuer),
		Client:  in.Client,
		Banking: banking(in.Banking),
		Invoice: details(in.Invoice),
	}
}

func issuer(in domain.Issuer) domain.Issuer {
	out := in
	out.BusinessName = orDefault(in.BusinessName, domain.DefaultBusinessName)
	out.PrimaryColor = orDefault(in.PrimaryColor, domain.DefaultPrimaryColor)
	out.SecondaryColor = orDefault(in.SecondaryColor, domain.DefaultSecondaryColor)
	out.FooterText = orDefault(in.FooterText, domain.DefaultFooterText)
	return out
}

func banking(in *domain.Banking) *domain.Banking {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func details(in domain.InvoiceInput) domain.InvoiceDetails {
	out := domain.InvoiceDetails{
		InvoiceNumber:    in.InvoiceNumber,
		IssueDate:        in.IssueDate,
		DueDate:          in.DueDate,
		Subtotal:         domain.ToNumber(in.Subtotal),
		Tax:              domain.ToNumber(in.Tax),
		Total:            domain.ToNumber(in.Total),
		Notes:            in.Notes,
		Currency:         money.DefaultCurrency,
		TaxPercentage:    domain.ToNumber(in.TaxPercentage),
		EngagementType:   domain.EngagementService,
		Status:           domain.StatusDraft,
		PaymentDate:      in.PaymentDate,
		PaymentMethod:    in.PaymentMethod,
		PaymentReference: in.PaymentReference,
		IsPartiallyPaid:  in.IsPartiallyPaid,
		Items:            make([]domain.LineItem, 0, len(in.Items)),
		Milestones:       make([]domain.Milestone, 0, len(in.Milestones)),
	}
	if currency, ok := money.ParseCurrency(in.Currency); ok {
		out.Currency = currency
	}
	if engagement, ok := domain.ParseEngagementType(strings.TrimSpace(in.EngagementType)); ok {
		out.EngagementType = engagement
	}
	if status, ok := domain.ParseStatus(strings.TrimSpace(in.Status)); ok {
		out.Status = status
	}
	if amount := domain.ToOptionalNumber(in.PartiallyPaidAmount); amount != nil {
		out.PartiallyPaidAmount = amount
	}

	for _, item := range in.Items {
		out.Items = append(out.Items, domain.LineItem{
			Description: item.Description,
			Quantity:    domain.ToNumber(item.Quantity),
			Rate:        domain.ToNumber(item.Rate),
			Amount:      domain.ToNumber(item.Amount),
		})
	}
	for _, m := range in.Milestones {
		out.Milestones = append(out.Milestones, domain.Milestone{
			Name:   m.Name,
			Amount: domain.ToNumber(m.Amount),
		})
	}
	return out
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
