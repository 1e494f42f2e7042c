package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/money"
	"gorm.io/datatypes"
)

// Invoice is the persisted invoice header. (UserID, InvoiceNumber) is unique;
// re-using a number replaces the stored invoice.
type Invoice struct {
	ID                  snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID              string         `gorm:"type:text;not null;uniqueIndex:ux_invoices_user_number,priority:1" json:"user_id"`
	InvoiceNumber       string         `gorm:"type:text;not null;uniqueIndex:ux_invoices_user_number,priority:2" json:"invoice_number"`
	ClientID            *snowflake.ID  `gorm:"index" json:"client_id,omitempty"`
	IssueDate           time.Time      `gorm:"not null" json:"issue_date"`
	DueDate             time.Time      `gorm:"not null;index" json:"due_date"`
	Subtotal            float64        `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	Tax                 float64        `gorm:"type:numeric(14,2);not null;default:0" json:"tax"`
	Total               float64        `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	TaxPercentage       float64        `gorm:"type:numeric(6,2);not null;default:0" json:"tax_percentage"`
	Notes               string         `gorm:"type:text" json:"notes,omitempty"`
	Currency            money.Currency `gorm:"type:text;not null;default:'INR'" json:"currency"`
	EngagementType      EngagementType `gorm:"type:text;not null;default:'service'" json:"engagement_type"`
	Status              Status         `gorm:"type:text;not null;default:'draft';index" json:"status"`
	PaymentDate         *time.Time     `json:"payment_date,omitempty"`
	PaymentMethod       *string        `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentReference    *string        `gorm:"type:text" json:"payment_reference,omitempty"`
	IsPartiallyPaid     bool           `gorm:"not null;default:false" json:"is_partially_paid"`
	PartiallyPaidAmount *float64       `gorm:"type:numeric(14,2)" json:"partially_paid_amount,omitempty"`
	Version             int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a line item. Items have no lifecycle of their own.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	Description string       `gorm:"type:text" json:"description"`
	Quantity    float64      `gorm:"type:numeric(14,4);not null;default:0" json:"quantity"`
	Rate        float64      `gorm:"type:numeric(14,2);not null;default:0" json:"rate"`
	Amount      float64      `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceMilestone is a named charge on a milestone invoice.
type InvoiceMilestone struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Position  int          `gorm:"not null;default:0" json:"position"`
	Name      string       `gorm:"type:text" json:"name"`
	Amount    float64      `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceMilestone) TableName() string { return "invoice_milestones" }

// Payment is one recorded payment event. Amount is the money received in
// that event, so summing an invoice's payments gives what was collected.
// Conversion figures live here, not on the invoice.
type Payment struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceID         snowflake.ID      `gorm:"not null;index" json:"invoice_id"`
	UserID            string            `gorm:"type:text;not null;index" json:"user_id"`
	PaymentDate       time.Time         `gorm:"not null" json:"payment_date"`
	Method            string            `gorm:"type:text;not null" json:"payment_method"`
	Reference         string            `gorm:"type:text" json:"payment_reference,omitempty"`
	Amount            float64           `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency          money.Currency    `gorm:"type:text;not null" json:"currency"`
	IsPartial         bool              `gorm:"not null;default:false" json:"is_partial"`
	ExchangeRate      *float64          `gorm:"type:numeric(14,4)" json:"exchange_rate,omitempty"`
	INRAmountReceived *float64          `gorm:"column:inr_amount_received;type:numeric(14,2)" json:"inr_amount_received,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Conversion describes the INR cash received against a USD invoice.
type Conversion struct {
	USDAmount         float64 `json:"usd_amount"`
	ExchangeRate      float64 `json:"exchange_rate"`
	INRAmountReceived float64 `json:"inr_amount_received"`
}

// PaymentUpdates is the full set of payment fields written on the invoice by
// a payment recording. A nil PartiallyPaidAmount clears the column.
type PaymentUpdates struct {
	Status              Status
	IsPartiallyPaid     bool
	PartiallyPaidAmount *float64
	PaymentDate         time.Time
	PaymentMethod       string
	PaymentReference    string
}

// Columns returns the update map for the invoices table.
func (u PaymentUpdates) Columns() map[string]any {
	var partial any
	if u.PartiallyPaidAmount != nil {
		partial = *u.PartiallyPaidAmount
	}
	var reference any
	if u.PaymentReference != "" {
		reference = u.PaymentReference
	}
	return map[string]any{
		"status":                u.Status,
		"is_partially_paid":     u.IsPartiallyPaid,
		"partially_paid_amount": partial,
		"payment_date":          u.PaymentDate,
		"payment_method":        u.PaymentMethod,
		"payment_reference":     reference,
	}
}

// InvoicePatch is a partial update. Nil fields are left untouched; non-nil
// Items or Milestones replace the stored collection.
type InvoicePatch struct {
	ClientID       *snowflake.ID
	IssueDate      *time.Time
	DueDate        *time.Time
	Subtotal       *float64
	Tax            *float64
	Total          *float64
	TaxPercentage  *float64
	Notes          *string
	Currency       *money.Currency
	EngagementType *EngagementType
	Status         *Status
	Items          *[]InvoiceItem
	Milestones     *[]InvoiceMilestone
}

// Columns returns the scalar columns set by the patch.
func (p InvoicePatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.ClientID != nil {
		cols["client_id"] = *p.ClientID
	}
	if p.IssueDate != nil {
		cols["issue_date"] = *p.IssueDate
	}
	if p.DueDate != nil {
		cols["due_date"] = *p.DueDate
	}
	if p.Subtotal != nil {
		cols["subtotal"] = *p.Subtotal
	}
	if p.Tax != nil {
		cols["tax"] = *p.Tax
	}
	if p.Total != nil {
		cols["total"] = *p.Total
	}
	if p.TaxPercentage != nil {
		cols["tax_percentage"] = *p.TaxPercentage
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	if p.Currency != nil {
		cols["currency"] = *p.Currency
	}
	if p.EngagementType != nil {
		cols["engagement_type"] = *p.EngagementType
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}

// IsEmpty reports whether the patch changes nothing.
func (p InvoicePatch) IsEmpty() bool {
	return len(p.Columns()) == 0 && p.Items == nil && p.Milestones == nil
}
