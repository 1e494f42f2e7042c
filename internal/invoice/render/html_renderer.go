package render

import (
	"bytes"
	"html/template"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Number}}</title>
  <style>
    :root {
      --primary: {{.Issuer.PrimaryColor}};
      --secondary: {{.Issuer.SecondaryColor}};
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .invoice { max-width: 820px; margin: 0 auto; }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      border-bottom: 2px solid var(--primary);
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    .brand { display: flex; align-items: center; gap: 12px; }
    .brand img { max-height: 48px; }
    .brand strong { color: var(--primary); }
    .meta { text-align: right; font-size: 14px; }
    .label {
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.04em;
      font-size: 11px;
    }
    .section { margin-bottom: 24px; }
    .parties { display: flex; justify-content: space-between; gap: 24px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td { padding: 10px; border-bottom: 1px solid #e5e7eb; text-align: left; }
    th {
      text-transform: uppercase;
      font-size: 11px;
      letter-spacing: 0.04em;
      color: var(--secondary);
    }
    td.num, th.num { text-align: right; }
    .totals { margin-left: auto; width: 320px; font-size: 14px; }
    .totals div { display: flex; justify-content: space-between; padding: 4px 0; }
    .totals .grand { font-size: 16px; font-weight: bold; border-top: 1px solid #e5e7eb; }
    .totals .due { color: var(--primary); font-weight: bold; }
    .status { display: inline-block; padding: 2px 8px; border-radius: 4px; background: var(--secondary); color: #ffffff; }
    .footer {
      border-top: 1px solid #e5e7eb;
      padding-top: 16px;
      font-size: 12px;
      color: #6b7280;
    }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div class="brand">
        {{if .Issuer.LogoURL}}
        <img src="{{.Issuer.LogoURL}}" alt="Company logo" />
        {{end}}
        <div>
          <div><strong>{{.Issuer.BusinessName}}</strong></div>
          {{if .Issuer.Address}}<div>{{.Issuer.Address}}</div>{{end}}
          {{if .Issuer.Phone}}<div>{{.Issuer.Phone}}</div>{{end}}
          {{if .Issuer.PANNumber}}<div>PAN: {{.Issuer.PANNumber}}</div>{{end}}
        </div>
      </div>
      <div class="meta">
        <div class="label">Invoice</div>
        <div><strong>{{.Number}}</strong></div>
        <div><span class="status">{{.Status}}</span></div>
        <div>Issued: {{.IssueDate}}</div>
        <div>Due: {{.DueDate}}</div>
        <div>{{.Engagement}}</div>
      </div>
    </div>

    <div class="section parties">
      <div>
        <div class="label">Bill To</div>
        <div><strong>{{.Client.Name}}</strong></div>
        {{if .Client.CompanyName}}<div>{{.Client.CompanyName}}</div>{{end}}
        {{if .Client.BillingAddress}}<div>{{.Client.BillingAddress}}</div>{{end}}
        {{if .Client.Email}}<div>{{.Client.Email}}</div>{{end}}
        {{if .Client.Phone}}<div>{{.Client.Phone}}</div>{{end}}
        {{if .Client.GSTNumber}}<div>GSTIN: {{.Client.GSTNumber}}</div>{{end}}
      </div>
      {{with .Banking}}
      <div>
        <div class="label">Bank Details</div>
        <div>{{.AccountHolder}}</div>
        <div>A/C: {{.AccountNumber}}</div>
        <div>IFSC: {{.IFSCCode}}</div>
        <div>{{.BankName}}{{if .Branch}}, {{.Branch}}{{end}}</div>
      </div>
      {{end}}
    </div>

    <div class="section">
      <table>
        <thead>
          {{if .Milestones}}
          <tr>
            <th>Milestone</th>
            <th class="num">Amount</th>
          </tr>
          {{else}}
          <tr>
            <th>Description</th>
            <th class="num">Quantity</th>
            <th class="num">Rate</th>
            <th class="num">Amount</th>
          </tr>
          {{end}}
        </thead>
        <tbody>
          {{range .Rows}}
          <tr>
            <td>{{.Description}}</td>
            {{if not $.Milestones}}
            <td class="num">{{.Quantity}}</td>
            <td class="num">{{.Rate}}</td>
            {{end}}
            <td class="num">{{.Amount}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
    </div>

    <div class="section totals">
      <div><span>Subtotal</span><span>{{.Subtotal}}</span></div>
      <div><span>{{.TaxLabel}}</span><span>{{.Tax}}</span></div>
      <div class="grand"><span>Total</span><span>{{.Total}}</span></div>
      {{if .PaidLabel}}<div><span>{{.PaidLabel}}</span><span>{{.Paid}}</span></div>{{end}}
      <div class="due"><span>Balance Due</span><span>{{.BalanceDue}}</span></div>
    </div>

    {{if .PaymentLines}}
    <div class="section">
      <div class="label">Payment</div>
      {{range .PaymentLines}}<div>{{.}}</div>{{end}}
    </div>
    {{end}}

    {{if .Notes}}
    <div class="section">
      <div class="label">Notes</div>
      <div>{{.Notes}}</div>
    </div>
    {{end}}

    <div class="footer">
      <div>{{.Issuer.FooterText}}</div>
    </div>
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
	pdf *PDFRenderer
}

// NewRenderer returns the HTML renderer backed by the PDF renderer for
// RenderPDF.
func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
		pdf: NewPDFRenderer(),
	}
}

func (r *HTMLRenderer) RenderHTML(data domain.InvoicePreviewData) (string, error) {
	view := buildView(data, money.Format)

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *HTMLRenderer) RenderPDF(data domain.InvoicePreviewData) ([]byte, error) {
	return r.pdf.RenderPDF(data)
}
