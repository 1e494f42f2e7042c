package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ListFilter narrows ListInvoices. Zero values mean no filter.
type ListFilter struct {
	UserID   string
	Status   Status
	ClientID *snowflake.ID
}

// UpsertResult reports whether CreateInvoice replaced an existing invoice
// with the same number.
type UpsertResult struct {
	Invoice  Invoice
	Replaced bool
}

// Store is the aggregate store for invoices, their items and milestones.
// Item and milestone replacement happens in the same transaction as the
// header change, so readers never see rows from two invoice versions.
//
// CreateInvoice upserts by (UserID, InvoiceNumber): when the number already
// exists for the user, the stored invoice's fields and collections are
// overwritten instead of creating a duplicate.
//
// UpdateInvoice and ApplyPayment take the version the caller read. A
// positive expectedVersion that no longer matches fails with
// ErrVersionConflict; zero skips the check.
type Store interface {
	FetchInvoice(ctx context.Context, userID string, id snowflake.ID) (*Invoice, error)
	FetchItems(ctx context.Context, invoiceID snowflake.ID) ([]InvoiceItem, error)
	FetchMilestones(ctx context.Context, invoiceID snowflake.ID) ([]InvoiceMilestone, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error)
	CreateInvoice(ctx context.Context, invoice *Invoice, items []InvoiceItem, milestones []InvoiceMilestone) (UpsertResult, error)
	UpdateInvoice(ctx context.Context, userID string, id snowflake.ID, expectedVersion int64, patch InvoicePatch) (*Invoice, error)
	DeleteInvoice(ctx context.Context, userID string, id snowflake.ID) error
	ApplyPayment(ctx context.Context, userID string, id snowflake.ID, expectedVersion int64, updates PaymentUpdates, payment *Payment) (*Invoice, error)
	ListPayments(ctx context.Context, userID string, invoiceID snowflake.ID) ([]Payment, error)
	MarkOverdue(ctx context.Context, userID string, ids []snowflake.ID) (int64, error)
}
