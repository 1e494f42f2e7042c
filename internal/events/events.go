package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Invoice lifecycle event types.
const (
	EventInvoiceCreated         = "invoice.created"
	EventInvoiceUpdated         = "invoice.updated"
	EventInvoiceDeleted         = "invoice.deleted"
	EventInvoiceSent            = "invoice.sent"
	EventInvoicePaymentRecorded = "invoice.payment_recorded"
	EventInvoiceOverdue         = "invoice.overdue"
)

// Record is a stored outbox row.
type Record struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"type:text;not null;uniqueIndex:ux_invoice_events_dedupe,priority:1" json:"user_id"`
	EventType string            `gorm:"type:text;not null;index" json:"event_type"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	DedupeKey *string           `gorm:"type:text;uniqueIndex:ux_invoice_events_dedupe,priority:2" json:"dedupe_key,omitempty"`
	Published bool              `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Record) TableName() string { return "invoice_events" }

// InvoicePayload captures the invoice state an event refers to.
type InvoicePayload struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Status        string  `json:"status"`
	Total         float64 `json:"total"`
	Currency      string  `json:"currency"`
	Version       int64   `json:"version"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	payload := map[string]any{
		"invoice_id":     p.InvoiceID,
		"invoice_number": p.InvoiceNumber,
		"total":          p.Total,
		"currency":       p.Currency,
		"version":        p.Version,
	}
	if p.Status != "" {
		payload["status"] = p.Status
	}
	return payload
}

// PaymentPayload describes a recorded payment.
type PaymentPayload struct {
	InvoicePayload
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"payment_method"`
	IsPartial bool    `json:"is_partial"`
}

func (p PaymentPayload) ToMap() map[string]any {
	payload := p.InvoicePayload.ToMap()
	payload["payment_id"] = p.PaymentID
	payload["amount"] = p.Amount
	payload["payment_method"] = p.Method
	payload["is_partial"] = p.IsPartial
	return payload
}

// VersionKey dedupes events emitted once per invoice version.
func VersionKey(eventType string, invoiceID snowflake.ID, version int64) string {
	return fmt.Sprintf("%s:%s:%s", eventType, invoiceID.String(), strconv.FormatInt(version, 10))
}
