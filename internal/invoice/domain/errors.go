package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUser           = errors.New("invalid_user")
	ErrInvalidInvoiceID      = errors.New("invalid_invoice_id")
	ErrInvalidInvoiceNumber  = errors.New("invalid_invoice_number")
	ErrInvalidIssueDate      = errors.New("invalid_issue_date")
	ErrInvalidDueDate        = errors.New("invalid_due_date")
	ErrInvalidCurrency       = errors.New("invalid_currency")
	ErrInvalidEngagementType = errors.New("invalid_engagement_type")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidClient         = errors.New("invalid_client")
	ErrInvoiceNotFound       = errors.New("invoice_not_found")
	ErrInvalidTransition     = errors.New("invalid_status_transition")
	ErrVersionConflict       = errors.New("invoice_version_conflict")
	ErrTotalBelowPaid        = errors.New("total_below_paid")
	ErrCurrencyLocked        = errors.New("currency_locked")
	ErrUnsupportedFormat     = errors.New("unsupported_document_format")
	ErrStoreFailure          = errors.New("store_failure")
)

// StoreError wraps any persistence failure. It matches ErrStoreFailure as
// well as the underlying error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("invoice store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

var passthrough = []error{ErrInvoiceNotFound, ErrVersionConflict, ErrInvalidTransition, ErrTotalBelowPaid, ErrCurrencyLocked}

// WrapStoreError leaves nil, domain sentinels and existing StoreErrors alone.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	for _, sentinel := range passthrough {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
