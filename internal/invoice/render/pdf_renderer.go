package render

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

const (
	pdfFont        = "Arial"
	pdfPageWidth   = 190.0
	pdfLabelWidth  = 150.0
	pdfAmountWidth = 40.0
)

// PDFRenderer draws invoices with the core PDF fonts. Those fonts carry no
// rupee glyph, so amounts are prefixed with the currency code.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) RenderPDF(data domain.InvoicePreviewData) ([]byte, error) {
	view := buildView(data, formatCodeAmount)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+view.Number, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 10, tr(view.Issuer.FooterText), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pr, pg, pb := hexRGB(view.Issuer.PrimaryColor)
	sr, sg, sb := hexRGB(view.Issuer.SecondaryColor)

	// Header: issuer on the left, invoice meta on the right.
	top := pdf.GetY()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(pr, pg, pb)
	pdf.Cell(110, 8, tr(view.Issuer.BusinessName))
	pdf.Ln(8)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont(pdfFont, "", 10)
	for _, line := range nonEmpty(view.Issuer.Address, view.Issuer.Phone, prefixed("PAN: ", view.Issuer.PANNumber)) {
		pdf.Cell(110, 5, tr(line))
		pdf.Ln(5)
	}
	leftEnd := pdf.GetY()

	pdf.SetXY(120, top)
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(80, 8, "INVOICE "+tr(view.Number), "", 2, "R", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	for _, line := range []string{
		"Status: " + view.Status,
		"Issued: " + view.IssueDate,
		"Due: " + view.DueDate,
		view.Engagement,
	} {
		pdf.CellFormat(80, 5, tr(line), "", 2, "R", false, 0, "")
	}
	pdf.SetXY(10, max(leftEnd, pdf.GetY())+4)
	pdf.SetDrawColor(pr, pg, pb)
	pdf.SetLineWidth(0.6)
	pdf.Line(10, pdf.GetY(), 10+pdfPageWidth, pdf.GetY())
	pdf.Ln(6)

	// Bill to and bank details side by side.
	partiesTop := pdf.GetY()
	pdf.SetFont(pdfFont, "B", 11)
	pdf.Cell(95, 6, "Bill To:")
	pdf.Ln(6)
	pdf.SetFont(pdfFont, "", 10)
	for _, line := range nonEmpty(view.Client.Name, view.Client.CompanyName, view.Client.BillingAddress,
		view.Client.Email, view.Client.Phone, prefixed("GSTIN: ", view.Client.GSTNumber)) {
		pdf.Cell(95, 5, tr(line))
		pdf.Ln(5)
	}
	partiesEnd := pdf.GetY()
	if b := view.Banking; b != nil {
		pdf.SetXY(110, partiesTop)
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(90, 6, "Bank Details:", "", 2, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		bank := b.BankName
		if b.Branch != "" {
			bank += ", " + b.Branch
		}
		for _, line := range []string{b.AccountHolder, "A/C: " + b.AccountNumber, "IFSC: " + b.IFSCCode, bank} {
			pdf.CellFormat(90, 5, tr(line), "", 2, "L", false, 0, "")
		}
		partiesEnd = max(partiesEnd, pdf.GetY())
	}
	pdf.SetXY(10, partiesEnd+6)

	// Charges table.
	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(sr, sg, sb)
	pdf.SetTextColor(255, 255, 255)
	if view.Milestones {
		pdf.CellFormat(pdfLabelWidth, 8, "Milestone", "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfAmountWidth, 8, "Amount", "1", 1, "R", true, 0, "")
	} else {
		pdf.CellFormat(100, 8, "Description", "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 8, "Rate", "1", 0, "R", true, 0, "")
		pdf.CellFormat(pdfAmountWidth, 8, "Amount", "1", 1, "R", true, 0, "")
	}
	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont(pdfFont, "", 9)
	for _, row := range view.Rows {
		if view.Milestones {
			pdf.CellFormat(pdfLabelWidth, 7, tr(row.Description), "1", 0, "L", false, 0, "")
		} else {
			pdf.CellFormat(100, 7, tr(row.Description), "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 7, row.Quantity, "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 7, row.Rate, "1", 0, "R", false, 0, "")
		}
		pdf.CellFormat(pdfAmountWidth, 7, row.Amount, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totalRow := func(label, value, style string) {
		pdf.SetFont(pdfFont, style, 10)
		pdf.CellFormat(pdfLabelWidth, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(pdfAmountWidth, 7, value, "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal:", view.Subtotal, "")
	totalRow(view.TaxLabel+":", view.Tax, "")
	totalRow("Total:", view.Total, "B")
	if view.PaidLabel != "" {
		totalRow(view.PaidLabel+":", view.Paid, "")
	}
	pdf.SetTextColor(pr, pg, pb)
	totalRow("Balance Due:", view.BalanceDue, "B")
	pdf.SetTextColor(17, 24, 39)

	if len(view.PaymentLines) > 0 {
		pdf.Ln(4)
		pdf.SetFont(pdfFont, "B", 11)
		pdf.Cell(40, 6, "Payment:")
		pdf.Ln(6)
		pdf.SetFont(pdfFont, "", 10)
		for _, line := range view.PaymentLines {
			pdf.Cell(pdfPageWidth, 5, tr(line))
			pdf.Ln(5)
		}
	}
	if view.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont(pdfFont, "B", 11)
		pdf.Cell(40, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont(pdfFont, "", 10)
		pdf.MultiCell(pdfPageWidth, 5, tr(view.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCodeAmount(amount float64, currency money.Currency) string {
	if !currency.Valid() {
		currency = money.DefaultCurrency
	}
	return string(currency) + " " + money.FormatNumber(amount, currency)
}

func hexRGB(color string) (int, int, int) {
	value, err := strconv.ParseUint(strings.TrimPrefix(color, "#"), 16, 32)
	if err != nil {
		return 17, 24, 39
	}
	return int(value>>16&0xff), int(value>>8&0xff), int(value&0xff)
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
