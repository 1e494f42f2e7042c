// Package export writes the invoice register spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
	"github.com/xuri/excelize/v2"
)

const (
	Filename    = "invoice-register.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetInvoices = "Invoices"
	sheetSummary  = "Summary"
	dateLayout    = "2006-01-02"
)

var headers = []string{
	"Invoice Number",
	"Client",
	"Issue Date",
	"Due Date",
	"Engagement",
	"Status",
	"Currency",
	"Subtotal",
	"Tax",
	"Total",
	"Paid",
	"Balance Due",
}

// Row is one line of the register.
type Row struct {
	InvoiceNumber  string
	Client         string
	IssueDate      string
	DueDate        string
	EngagementType domain.EngagementType
	Status         domain.Status
	Currency       money.Currency
	Subtotal       float64
	Tax            float64
	Total          float64
	Paid           float64
	Balance        float64
}

// Rows joins invoices with their client names. Invoices without a known
// client get an empty client column.
func Rows(invoices []domain.Invoice, clients []clientdomain.Client) []Row {
	names := lo.SliceToMap(clients, func(c clientdomain.Client) (snowflake.ID, string) {
		if c.CompanyName != "" {
			return c.ID, c.CompanyName
		}
		return c.ID, c.Name
	})

	return lo.Map(invoices, func(inv domain.Invoice, _ int) Row {
		var client string
		if inv.ClientID != nil {
			client = names[*inv.ClientID]
		}
		currency := inv.Currency
		if currency == "" {
			currency = money.DefaultCurrency
		}
		paid := paidAmount(inv)
		balance := money.Sum(inv.Total, -paid)
		if balance < 0 {
			balance = 0
		}
		return Row{
			InvoiceNumber:  inv.InvoiceNumber,
			Client:         client,
			IssueDate:      inv.IssueDate.Format(dateLayout),
			DueDate:        inv.DueDate.Format(dateLayout),
			EngagementType: inv.EngagementType,
			Status:         inv.Status,
			Currency:       currency,
			Subtotal:       money.RoundMinor(inv.Subtotal),
			Tax:            money.RoundMinor(inv.Tax),
			Total:          money.RoundMinor(inv.Total),
			Paid:           money.RoundMinor(paid),
			Balance:        balance,
		}
	})
}

func paidAmount(inv domain.Invoice) float64 {
	switch {
	case inv.Status == domain.StatusPaid:
		return inv.Total
	case inv.IsPartiallyPaid && inv.PartiallyPaidAmount != nil:
		return *inv.PartiallyPaidAmount
	default:
		return 0
	}
}

// Write renders the register as an XLSX workbook: one invoice per row on the
// first sheet and per-currency totals on the second.
func Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetInvoices); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E5E7EB"}},
	})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := writeHeader(f, sheetInvoices, headers, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			row.InvoiceNumber,
			row.Client,
			row.IssueDate,
			row.DueDate,
			string(row.EngagementType),
			string(row.Status),
			string(row.Currency),
			row.Subtotal,
			row.Tax,
			row.Total,
			row.Paid,
			row.Balance,
		}
		if err := f.SetSheetRow(sheetInvoices, cell, &values); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(sheetInvoices, "H2", fmt.Sprintf("L%d", len(rows)+1), amountStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetInvoices, "A", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetInvoices, "C", "L", 14); err != nil {
		return err
	}

	if err := writeSummary(f, rows, headerStyle, amountStyle); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSummary(f *excelize.File, rows []Row, headerStyle, amountStyle int) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	if err := writeHeader(f, sheetSummary, []string{"Currency", "Invoices", "Total", "Paid", "Balance Due"}, headerStyle); err != nil {
		return err
	}

	byCurrency := lo.GroupBy(rows, func(r Row) money.Currency { return r.Currency })
	for i, currency := range []money.Currency{money.CurrencyINR, money.CurrencyUSD} {
		group := byCurrency[currency]
		values := []any{
			string(currency),
			len(group),
			money.Sum(lo.Map(group, func(r Row, _ int) float64 { return r.Total })...),
			money.Sum(lo.Map(group, func(r Row, _ int) float64 { return r.Paid })...),
			money.Sum(lo.Map(group, func(r Row, _ int) float64 { return r.Balance })...),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &values); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheetSummary, "C2", "E3", amountStyle)
}

func writeHeader(f *excelize.File, sheet string, titles []string, style int) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}
