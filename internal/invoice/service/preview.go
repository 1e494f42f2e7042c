package service

import (
	"context"
	"errors"

	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/engagement"
	"github.com/smallbiznis/invoicegen/internal/invoice/lifecycle"
	"github.com/smallbiznis/invoicegen/internal/invoice/normalize"
	"github.com/smallbiznis/invoicegen/internal/invoice/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Preview loads the invoice with its client, business profile and bank
// account, then normalizes and transforms it for rendering. The status is
// the derived one, so a sent invoice past its due date previews as overdue.
func (s *Service) Preview(ctx context.Context, id string) (domain.InvoicePreviewData, error) {
	userID, invoiceID, err := s.scope(ctx, id)
	if err != nil {
		return domain.InvoicePreviewData{}, err
	}
	inv, err := s.store.FetchInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.InvoicePreviewData{}, err
	}
	detail, err := s.detail(ctx, *inv)
	if err != nil {
		return domain.InvoicePreviewData{}, err
	}

	in := previewInput(detail, lifecycle.DeriveStatus(inv.Status, inv.DueDate, s.clock.Now()))

	profile, err := s.settingsSvc.Business(ctx)
	if err != nil {
		return domain.InvoicePreviewData{}, err
	}
	in.Issuer = profile.Issuer()

	account, err := s.settingsSvc.BankAccount(ctx)
	if err != nil {
		return domain.InvoicePreviewData{}, err
	}
	if account != nil {
		in.Banking = account.Banking()
	}

	if inv.ClientID != nil {
		c, err := s.clientSvc.GetByID(ctx, inv.ClientID.String())
		switch {
		case err == nil:
			in.Client = c.Preview()
		case errors.Is(err, clientdomain.ErrNotFound):
		default:
			return domain.InvoicePreviewData{}, err
		}
	}

	return engagement.Transform(normalize.Normalize(in)), nil
}

func (s *Service) Render(ctx context.Context, id string, format string) (domain.Document, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.render")
	defer span.End()

	f, err := render.ParseFormat(format)
	if err != nil {
		return domain.Document{}, err
	}
	span.SetAttributes(attribute.String("format", string(f)))

	data, err := s.Preview(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := render.Document(s.renderer, data, f)
	if err != nil {
		span.SetStatus(codes.Error, "render failed")
		return domain.Document{}, err
	}
	return doc, nil
}

// Totals compares stored totals against the line items the invoice prints.
func (s *Service) Totals(ctx context.Context, id string) (domain.TotalsCheck, error) {
	data, err := s.Preview(ctx, id)
	if err != nil {
		return domain.TotalsCheck{}, err
	}
	return domain.CheckTotals(data.Invoice), nil
}

func previewInput(detail domain.InvoiceDetail, status domain.Status) domain.PreviewInput {
	inv := detail.Invoice
	in := domain.InvoiceInput{
		InvoiceNumber:   inv.InvoiceNumber,
		IssueDate:       formatDate(inv.IssueDate),
		DueDate:         formatDate(inv.DueDate),
		Subtotal:        inv.Subtotal,
		Tax:             inv.Tax,
		Total:           inv.Total,
		Notes:           inv.Notes,
		Currency:        string(inv.Currency),
		TaxPercentage:   inv.TaxPercentage,
		EngagementType:  string(inv.EngagementType),
		Status:          string(status),
		IsPartiallyPaid: inv.IsPartiallyPaid,
	}
	if inv.PaymentDate != nil {
		in.PaymentDate = formatDate(*inv.PaymentDate)
	}
	if inv.PaymentMethod != nil {
		in.PaymentMethod = *inv.PaymentMethod
	}
	if inv.PaymentReference != nil {
		in.PaymentReference = *inv.PaymentReference
	}
	if inv.PartiallyPaidAmount != nil {
		in.PartiallyPaidAmount = *inv.PartiallyPaidAmount
	}
	for _, item := range detail.Items {
		in.Items = append(in.Items, domain.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}
	for _, m := range detail.Milestones {
		in.Milestones = append(in.Milestones, domain.MilestoneInput{Name: m.Name, Amount: m.Amount})
	}
	return domain.PreviewInput{Invoice: in}
}

// recordDetails is the normalized view of unsaved rows, used to derive
// totals on create.
func recordDetails(inv domain.Invoice, items []domain.InvoiceItem, milestones []domain.InvoiceMilestone) domain.InvoiceDetails {
	in := previewInput(domain.InvoiceDetail{Invoice: inv, Items: items, Milestones: milestones}, inv.Status)
	return normalize.Normalize(in).Invoice
}
