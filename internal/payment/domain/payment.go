// Package domain describes payment submissions and the outcome of recording
// them against an invoice.
package domain

import (
	"errors"
	"strings"

	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// Method is how the money was received.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodCheque       Method = "cheque"
	MethodUPI          Method = "upi"
	MethodOther        Method = "other"
)

var Methods = []Method{MethodBankTransfer, MethodCash, MethodCheque, MethodUPI, MethodOther}

func ParseMethod(raw string) (Method, bool) {
	normalized := Method(strings.ToLower(strings.TrimSpace(raw)))
	for _, m := range Methods {
		if m == normalized {
			return m, true
		}
	}
	return "", false
}

// PaymentDateLayout is the calendar date format of payment dates.
const PaymentDateLayout = "2006-01-02"

// Submission is a payment as entered on the payment form. ExchangeRate and
// INRAmountReceived only matter for USD invoices.
type Submission struct {
	PaymentDate       string   `json:"payment_date"`
	PaymentMethod     string   `json:"payment_method"`
	PaymentReference  string   `json:"payment_reference,omitempty"`
	Amount            float64  `json:"amount"`
	IsPartiallyPaid   bool     `json:"is_partially_paid"`
	ExchangeRate      *float64 `json:"exchange_rate,omitempty"`
	INRAmountReceived *float64 `json:"inr_amount_received,omitempty"`
}

// Snapshot is the part of an invoice a payment is validated against.
// PaidAmount is the cumulative partial figure already recorded, zero when
// nothing has been paid.
type Snapshot struct {
	Status     invoicedomain.Status
	Total      float64
	Currency   money.Currency
	PaidAmount float64
}

func SnapshotOf(inv invoicedomain.Invoice) Snapshot {
	snap := Snapshot{Status: inv.Status, Total: inv.Total, Currency: inv.Currency}
	if inv.PartiallyPaidAmount != nil {
		snap.PaidAmount = *inv.PartiallyPaidAmount
	}
	return snap
}

// Result is what a recording produces. Amount is the figure the invoice
// ends up covered to: the new cumulative partial amount, or the total for a
// full payment. Received is the money that arrived with this payment, which
// is Amount less what was paid before. Conversion describes Received.
type Result struct {
	Updates    invoicedomain.PaymentUpdates
	Method     Method
	Amount     float64
	Received   float64
	Conversion *invoicedomain.Conversion
	// Proposal is set together with ErrAmountExceedsTotal: the submission
	// converted to a full payment, for the caller to confirm.
	Proposal *Submission
}

var (
	ErrMissingPaymentDate   = errors.New("missing_payment_date")
	ErrInvalidPaymentDate   = errors.New("invalid_payment_date")
	ErrPaymentDateInFuture  = errors.New("payment_date_in_future")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrAmountExceedsTotal   = errors.New("amount_exceeds_total")
	ErrMissingConversion    = errors.New("missing_conversion")
	ErrInvoiceAlreadyPaid   = errors.New("invoice_already_paid")
)
