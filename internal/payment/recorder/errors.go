package recorder

import (
	"fmt"

	paymentdomain "github.com/smallbiznis/invoicegen/internal/payment/domain"
)

// ValidationError is a rejected payment submission. Err is one of the
// payment domain sentinels; Field names the form field it belongs to.
type ValidationError struct {
	Err     error
	Field   string
	Details string

	// Proposal carries the full-payment alternative for ErrAmountExceedsTotal.
	Proposal *paymentdomain.Submission
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, field, details string) *ValidationError {
	return &ValidationError{Err: err, Field: field, Details: details}
}
