package domain

import (
	"context"
)

type ItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

type MilestoneRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// CreateInvoiceRequest creates an invoice, or replaces the caller's existing
// invoice that carries the same invoice_number.
type CreateInvoiceRequest struct {
	InvoiceNumber  string             `json:"invoice_number"`
	ClientID       string             `json:"client_id"`
	IssueDate      string             `json:"issue_date"`
	DueDate        string             `json:"due_date"`
	Subtotal       float64            `json:"subtotal"`
	Tax            float64            `json:"tax"`
	Total          float64            `json:"total"`
	TaxPercentage  float64            `json:"tax_percentage"`
	Notes          string             `json:"notes"`
	Currency       string             `json:"currency"`
	EngagementType string             `json:"engagement_type"`
	Items          []ItemRequest      `json:"items"`
	Milestones     []MilestoneRequest `json:"milestones"`
}

// UpdateInvoiceRequest is a partial update. Version, when positive, must
// match the stored version.
type UpdateInvoiceRequest struct {
	ID             string              `json:"-"`
	Version        int64               `json:"version"`
	ClientID       *string             `json:"client_id"`
	IssueDate      *string             `json:"issue_date"`
	DueDate        *string             `json:"due_date"`
	Subtotal       *float64            `json:"subtotal"`
	Tax            *float64            `json:"tax"`
	Total          *float64            `json:"total"`
	TaxPercentage  *float64            `json:"tax_percentage"`
	Notes          *string             `json:"notes"`
	Currency       *string             `json:"currency"`
	EngagementType *string             `json:"engagement_type"`
	Items          *[]ItemRequest      `json:"items"`
	Milestones     *[]MilestoneRequest `json:"milestones"`
}

type ListInvoiceRequest struct {
	Status   string `form:"status"`
	ClientID string `form:"client_id"`
}

type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`

	// Overdue is the number of invoices moved to overdue by this listing.
	Overdue int64 `json:"overdue_refreshed"`
}

// InvoiceDetail is an invoice with its collections.
type InvoiceDetail struct {
	Invoice    Invoice            `json:"invoice"`
	Items      []InvoiceItem      `json:"items"`
	Milestones []InvoiceMilestone `json:"milestones"`
}

type CreateInvoiceResponse struct {
	InvoiceDetail
	Replaced bool `json:"replaced"`
}

// RecordPaymentRequest is a payment submission against an invoice.
type RecordPaymentRequest struct {
	InvoiceID         string   `json:"-"`
	Version           int64    `json:"version"`
	PaymentDate       string   `json:"payment_date"`
	PaymentMethod     string   `json:"payment_method"`
	PaymentReference  string   `json:"payment_reference"`
	Amount            float64  `json:"amount"`
	IsPartiallyPaid   bool     `json:"is_partially_paid"`
	ExchangeRate      *float64 `json:"exchange_rate"`
	INRAmountReceived *float64 `json:"inr_amount_received"`
}

type RecordPaymentResponse struct {
	Invoice    Invoice     `json:"invoice"`
	Payment    Payment     `json:"payment"`
	Conversion *Conversion `json:"conversion,omitempty"`
}

// Document is a rendered invoice.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Service interface {
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceDetail, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (CreateInvoiceResponse, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (InvoiceDetail, error)
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, id string) (Invoice, error)
	Preview(ctx context.Context, id string) (InvoicePreviewData, error)
	Render(ctx context.Context, id string, format string) (Document, error)
	Totals(ctx context.Context, id string) (TotalsCheck, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (RecordPaymentResponse, error)
	ListPayments(ctx context.Context, id string) ([]Payment, error)
	RefreshOverdue(ctx context.Context) (int64, error)
}
