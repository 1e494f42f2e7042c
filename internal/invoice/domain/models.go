// Package domain holds the invoice data model shared by the normalizer, the
// engagement transformer, the payment recorder and the persistence layer.
package domain

import "github.com/smallbiznis/invoicegen/internal/money"

// EngagementType is the billing model that decides an invoice's shape.
type EngagementType string

const (
	EngagementService      EngagementType = "service"
	EngagementRetainership EngagementType = "retainership"
	EngagementProject      EngagementType = "project"
	EngagementMilestone    EngagementType = "milestone"
)

// EngagementTypes lists every engagement variant.
var EngagementTypes = []EngagementType{
	EngagementService,
	EngagementRetainership,
	EngagementProject,
	EngagementMilestone,
}

// ParseEngagementType returns false for unknown values.
func ParseEngagementType(raw string) (EngagementType, bool) {
	for _, t := range EngagementTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Status represents invoice lifecycle states.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSent          Status = "sent"
	StatusPaid          Status = "paid"
	StatusOverdue       Status = "overdue"
	StatusPartiallyPaid Status = "partially_paid"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{
	StatusDraft,
	StatusSent,
	StatusPaid,
	StatusOverdue,
	StatusPartiallyPaid,
}

// ParseStatus returns false for unknown values.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

const (
	DefaultBusinessName   = "Your Business"
	DefaultFooterText     = "Thank you for your business!"
	DefaultPrimaryColor   = "#2563eb"
	DefaultSecondaryColor = "#1e40af"
)

// Issuer is the business sending the invoice.
type Issuer struct {
	BusinessName   string `json:"business_name"`
	Address        string `json:"address"`
	PANNumber      string `json:"pan_number,omitempty"`
	Phone          string `json:"phone,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FooterText     string `json:"footer_text"`
}

// Client is the billed party.
type Client struct {
	Name           string `json:"name"`
	CompanyName    string `json:"company_name,omitempty"`
	BillingAddress string `json:"billing_address,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	GSTNumber      string `json:"gst_number,omitempty"`
}

// Banking is the payee bank record printed on the document.
type Banking struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name"`
	Branch        string `json:"branch,omitempty"`
}

// LineItem is one row of an itemized invoice. Amount is trusted as given.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Milestone is one named charge of a milestone engagement.
type Milestone struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// InvoiceDetails is the invoice section of a preview.
type InvoiceDetails struct {
	InvoiceNumber       string         `json:"invoice_number"`
	IssueDate           string         `json:"issue_date"`
	DueDate             string         `json:"due_date"`
	Subtotal            float64        `json:"subtotal"`
	Tax                 float64        `json:"tax"`
	Total               float64        `json:"total"`
	Notes               string         `json:"notes,omitempty"`
	Currency            money.Currency `json:"currency"`
	TaxPercentage       float64        `json:"tax_percentage"`
	EngagementType      EngagementType `json:"engagement_type"`
	Items               []LineItem     `json:"items"`
	Milestones          []Milestone    `json:"milestones"`
	Status              Status         `json:"status"`
	PaymentDate         string         `json:"payment_date,omitempty"`
	PaymentMethod       string         `json:"payment_method,omitempty"`
	PaymentReference    string         `json:"payment_reference,omitempty"`
	IsPartiallyPaid     bool           `json:"is_partially_paid"`
	PartiallyPaidAmount *float64       `json:"partially_paid_amount,omitempty"`
}

// InvoicePreviewData is the fully defaulted shape consumed by renderers.
type InvoicePreviewData struct {
	Issuer  Issuer         `json:"issuer"`
	Client  Client         `json:"client"`
	Banking *Banking       `json:"banking,omitempty"`
	Invoice InvoiceDetails `json:"invoice"`
}

// BalanceDue is what remains to be collected on the invoice.
func (d InvoiceDetails) BalanceDue() float64 {
	switch {
	case d.Status == StatusPaid:
		return 0
	case d.IsPartiallyPaid && d.PartiallyPaidAmount != nil:
		balance := money.Sum(d.Total, -*d.PartiallyPaidAmount)
		if balance < 0 {
			return 0
		}
		return balance
	default:
		return d.Total
	}
}
