package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// Format selects the document encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat defaults to PDF when raw is blank.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", domain.ErrUnsupportedFormat
	}
}

// Renderer consumes a normalized, transformed preview. It never mutates it.
type Renderer interface {
	RenderHTML(data domain.InvoicePreviewData) (string, error)
	RenderPDF(data domain.InvoicePreviewData) ([]byte, error)
}

// Document renders data in the requested format.
func Document(r Renderer, data domain.InvoicePreviewData, format Format) (domain.Document, error) {
	name := Filename(data.Invoice.InvoiceNumber)
	switch format {
	case FormatHTML:
		body, err := r.RenderHTML(data)
		if err != nil {
			return domain.Document{}, err
		}
		return domain.Document{
			Filename:    name + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        []byte(body),
		}, nil
	case FormatPDF:
		body, err := r.RenderPDF(data)
		if err != nil {
			return domain.Document{}, err
		}
		return domain.Document{
			Filename:    name + ".pdf",
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		return domain.Document{}, domain.ErrUnsupportedFormat
	}
}

var filenameFilter = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename turns an invoice number into a safe base file name.
func Filename(invoiceNumber string) string {
	cleaned := strings.Trim(filenameFilter.ReplaceAllString(strings.TrimSpace(invoiceNumber), "-"), "-.")
	if cleaned == "" {
		return "invoice"
	}
	return "invoice-" + cleaned
}

type rowView struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

type documentView struct {
	Issuer       domain.Issuer
	Client       domain.Client
	Banking      *domain.Banking
	Number       string
	Status       string
	IssueDate    string
	DueDate      string
	Notes        string
	Engagement   string
	Milestones   bool
	Rows         []rowView
	Subtotal     string
	TaxLabel     string
	Tax          string
	Total        string
	PaidLabel    string
	Paid         string
	BalanceDue   string
	PaymentLines []string
}

type moneyFormatter func(amount float64, currency money.Currency) string

// buildView flattens a preview into display strings. Milestone engagements
// list milestones; every other engagement lists items.
func buildView(data domain.InvoicePreviewData, format moneyFormatter) documentView {
	inv := data.Invoice
	currency := inv.Currency
	v := documentView{
		Issuer:     data.Issuer,
		Client:     data.Client,
		Banking:    data.Banking,
		Number:     inv.InvoiceNumber,
		Status:     statusLabel(inv.Status),
		IssueDate:  formatDate(inv.IssueDate),
		DueDate:    formatDate(inv.DueDate),
		Notes:      inv.Notes,
		Engagement: titleCase(string(inv.EngagementType)),
		Milestones: inv.EngagementType == domain.EngagementMilestone,
		Subtotal:   format(inv.Subtotal, currency),
		TaxLabel:   fmt.Sprintf("Tax (%s%%)", formatQuantity(inv.TaxPercentage)),
		Tax:        format(inv.Tax, currency),
		Total:      format(inv.Total, currency),
		BalanceDue: format(inv.BalanceDue(), currency),
	}
	v.Issuer.PrimaryColor = sanitizeColor(v.Issuer.PrimaryColor, domain.DefaultPrimaryColor)
	v.Issuer.SecondaryColor = sanitizeColor(v.Issuer.SecondaryColor, domain.DefaultSecondaryColor)

	if v.Milestones {
		for _, m := range inv.Milestones {
			v.Rows = append(v.Rows, rowView{Description: m.Name, Amount: format(m.Amount, currency)})
		}
	} else {
		for _, item := range inv.Items {
			v.Rows = append(v.Rows, rowView{
				Description: item.Description,
				Quantity:    formatQuantity(item.Quantity),
				Rate:        format(item.Rate, currency),
				Amount:      format(item.Amount, currency),
			})
		}
	}

	switch {
	case inv.Status == domain.StatusPaid:
		v.PaidLabel = "Amount Paid"
		v.Paid = format(inv.Total, currency)
	case inv.IsPartiallyPaid && inv.PartiallyPaidAmount != nil:
		v.PaidLabel = "Partially Paid"
		v.Paid = format(*inv.PartiallyPaidAmount, currency)
	}
	if inv.PaymentDate != "" {
		v.PaymentLines = append(v.PaymentLines, "Paid on "+formatDate(inv.PaymentDate))
	}
	if inv.PaymentMethod != "" {
		v.PaymentLines = append(v.PaymentLines, "Method: "+titleCase(inv.PaymentMethod))
	}
	if inv.PaymentReference != "" {
		v.PaymentLines = append(v.PaymentLines, "Reference: "+inv.PaymentReference)
	}
	return v
}

func formatDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "-"
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("02 Jan 2006")
		}
	}
	return trimmed
}

func formatQuantity(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func statusLabel(status domain.Status) string {
	return titleCase(strings.ReplaceAll(string(status), "_", " "))
}

func titleCase(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func sanitizeColor(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return fallback
}
