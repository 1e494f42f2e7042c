package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

func sampleData() domain.InvoicePreviewData {
	partial := 50000.0
	return domain.InvoicePreviewData{
		Issuer: domain.Issuer{
			BusinessName:   "Acme Studio",
			Address:        "Mumbai",
			PrimaryColor:   "#0f766e",
			SecondaryColor: "not-a-color",
			FooterText:     domain.DefaultFooterText,
		},
		Client: domain.Client{Name: "Globex", GSTNumber: "27ABCDE1234F1Z5"},
		Banking: &domain.Banking{
			AccountHolder: "Acme Studio",
			AccountNumber: "123456789012",
			IFSCCode:      "HDFC0001234",
			BankName:      "HDFC Bank",
		},
		Invoice: domain.InvoiceDetails{
			InvoiceNumber:  "INV/2024 001",
			IssueDate:      "2024-04-01",
			DueDate:        "2024-04-15",
			Subtotal:       100000,
			Tax:            18000,
			Total:          118000,
			Currency:       money.CurrencyINR,
			TaxPercentage:  18,
			EngagementType: domain.EngagementService,
			Items: []domain.LineItem{
				{Description: "Design <sprint>", Quantity: 2, Rate: 50000, Amount: 100000},
			},
			Milestones:          []domain.Milestone{},
			Status:              domain.StatusPartiallyPaid,
			IsPartiallyPaid:     true,
			PartiallyPaidAmount: &partial,
			PaymentMethod:       "upi",
			PaymentDate:         "2024-04-10",
		},
	}
}

func TestRenderHTML(t *testing.T) {
	out, err := NewRenderer().RenderHTML(sampleData())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"Acme Studio",
		"INV/2024 001",
		"₹1,18,000.00",
		"₹68,000.00",
		"Partially Paid",
		"Tax (18%)",
		"01 Apr 2024",
		"Method: Upi",
		"IFSC: HDFC0001234",
		"Design &lt;sprint&gt;",
		"#0f766e",
		domain.DefaultSecondaryColor,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "not-a-color") {
		t.Fatalf("expected invalid color to be replaced")
	}
}

func TestRenderHTMLMilestones(t *testing.T) {
	data := sampleData()
	data.Invoice.EngagementType = domain.EngagementMilestone
	data.Invoice.Items = []domain.LineItem{{Description: "stray item", Quantity: 1, Rate: 1, Amount: 1}}
	data.Invoice.Milestones = []domain.Milestone{{Name: "Discovery", Amount: 40000}, {Name: "Delivery", Amount: 60000}}

	out, err := NewRenderer().RenderHTML(data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Discovery") || !strings.Contains(out, "₹60,000.00") {
		t.Fatalf("expected milestones to be listed")
	}
	if strings.Contains(out, "stray item") {
		t.Fatalf("milestone invoices must not list items")
	}
}

func TestRenderPDF(t *testing.T) {
	body, err := NewPDFRenderer().RenderPDF(sampleData())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Fatalf("expected a PDF document")
	}
}

func TestDocument(t *testing.T) {
	r := NewRenderer()
	doc, err := Document(r, sampleData(), FormatHTML)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Filename != "invoice-INV-2024-001.html" || !strings.HasPrefix(doc.ContentType, "text/html") {
		t.Fatalf("unexpected document %s %s", doc.Filename, doc.ContentType)
	}

	doc, err = Document(r, sampleData(), FormatPDF)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.ContentType != "application/pdf" || len(doc.Body) == 0 {
		t.Fatalf("unexpected pdf document %s", doc.ContentType)
	}

	if _, err := Document(r, sampleData(), Format("docx")); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPDF, "PDF": FormatPDF, " html ": FormatHTML}
	for raw, want := range cases {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("  "); got != "invoice" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	if got := Filename("../../etc/passwd"); got != "invoice-etc-passwd" {
		t.Fatalf("unexpected name %q", got)
	}
}
