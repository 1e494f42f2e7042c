// Package lifecycle is the invoice status machine.
package lifecycle

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
)

// transitions lists the moves a caller may request. Partially paid invoices
// reach overdue only through DeriveStatus.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusDraft:         {domain.StatusSent, domain.StatusPaid, domain.StatusPartiallyPaid},
	domain.StatusSent:          {domain.StatusOverdue, domain.StatusPaid, domain.StatusPartiallyPaid},
	domain.StatusPartiallyPaid: {domain.StatusPartiallyPaid, domain.StatusPaid},
	domain.StatusOverdue:       {domain.StatusPaid, domain.StatusPartiallyPaid},
	domain.StatusPaid:          nil,
}

// CanTransition reports whether an invoice in status from may move to to.
// Nothing leaves paid.
func CanTransition(from, to domain.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns ErrInvalidTransition when the move is not allowed.
func Transition(from, to domain.Status) error {
	if !CanTransition(from, to) {
		return domain.ErrInvalidTransition
	}
	return nil
}

// DeriveStatus applies the lazy overdue rule: sent and partially paid
// invoices whose due date is before today are overdue. Other statuses are
// returned unchanged, so re-deriving an overdue invoice is a no-op.
func DeriveStatus(status domain.Status, dueDate, today time.Time) domain.Status {
	if status != domain.StatusSent && status != domain.StatusPartiallyPaid {
		return status
	}
	if dueDate.IsZero() {
		return status
	}
	if DateOnly(dueDate).Before(DateOnly(today)) {
		return domain.StatusOverdue
	}
	return status
}

// Refresh derives the status of every invoice in place and returns the ids
// that changed.
func Refresh(invoices []domain.Invoice, today time.Time) []snowflake.ID {
	var changed []snowflake.ID
	for i := range invoices {
		next := DeriveStatus(invoices[i].Status, invoices[i].DueDate, today)
		if next == invoices[i].Status {
			continue
		}
		invoices[i].Status = next
		changed = append(changed, invoices[i].ID)
	}
	return changed
}

// DateOnly drops the clock part of t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
