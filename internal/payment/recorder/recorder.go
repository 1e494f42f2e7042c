// Package recorder validates payment submissions and computes the invoice
// updates they produce. It performs no I/O.
package recorder

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/invoicegen/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/lifecycle"
	"github.com/smallbiznis/invoicegen/internal/money"
	paymentdomain "github.com/smallbiznis/invoicegen/internal/payment/domain"
)

// Recorder binds Record to a clock for "today".
type Recorder struct {
	clock clock.Clock
}

func New(c clock.Clock) *Recorder {
	return &Recorder{clock: c}
}

func (r *Recorder) Record(inv paymentdomain.Snapshot, sub paymentdomain.Submission) (paymentdomain.Result, error) {
	return Record(inv, sub, r.clock.Now())
}

// Record validates sub against inv and returns the resulting updates.
//
// Checks run in order and stop at the first failure. The already-paid check
// comes first, then the payment date, then the payment method, then the
// partial amount, and for USD invoices the conversion last. A partial amount
// at or above the total fails with ErrAmountExceedsTotal and a Result whose
// Proposal is the equivalent full payment; nothing else in that Result is
// set. A partial amount must also exceed what was already paid, since it is
// the new cumulative figure.
func Record(inv paymentdomain.Snapshot, sub paymentdomain.Submission, today time.Time) (paymentdomain.Result, error) {
	if inv.Status == invoicedomain.StatusPaid {
		return paymentdomain.Result{}, invalid(paymentdomain.ErrInvoiceAlreadyPaid, "", "")
	}

	paidOn, err := paymentDate(sub.PaymentDate, today)
	if err != nil {
		return paymentdomain.Result{}, err
	}

	method, ok := paymentdomain.ParseMethod(sub.PaymentMethod)
	if !ok {
		return paymentdomain.Result{}, invalid(paymentdomain.ErrInvalidPaymentMethod, "payment_method", sub.PaymentMethod)
	}

	amount := inv.Total
	if sub.IsPartiallyPaid {
		if sub.Amount <= 0 {
			return paymentdomain.Result{}, invalid(paymentdomain.ErrInvalidAmount, "amount", "partial amount must be positive")
		}
		if money.Decimal(sub.Amount).GreaterThanOrEqual(money.Decimal(inv.Total)) {
			proposal := sub
			proposal.IsPartiallyPaid = false
			proposal.Amount = inv.Total
			vErr := invalid(
				paymentdomain.ErrAmountExceedsTotal,
				"amount",
				fmt.Sprintf("partial amount %s covers the total %s", money.FormatNumber(sub.Amount, inv.Currency), money.FormatNumber(inv.Total, inv.Currency)),
			)
			vErr.Proposal = &proposal
			return paymentdomain.Result{Proposal: &proposal}, vErr
		}
		if money.Decimal(sub.Amount).LessThanOrEqual(money.Decimal(inv.PaidAmount)) {
			return paymentdomain.Result{}, invalid(
				paymentdomain.ErrInvalidAmount,
				"amount",
				fmt.Sprintf("partial amount must exceed the %s already paid", money.FormatNumber(inv.PaidAmount, inv.Currency)),
			)
		}
		amount = sub.Amount
	}
	amount = money.RoundMinor(amount)
	received := money.RoundMinor(money.Sum(amount, -inv.PaidAmount))

	var conversion *invoicedomain.Conversion
	if inv.Currency == money.CurrencyUSD {
		conversion, err = convert(received, sub.ExchangeRate, sub.INRAmountReceived)
		if err != nil {
			return paymentdomain.Result{}, err
		}
	}

	target := invoicedomain.StatusPaid
	if sub.IsPartiallyPaid {
		target = invoicedomain.StatusPartiallyPaid
	}
	if err := lifecycle.Transition(inv.Status, target); err != nil {
		return paymentdomain.Result{}, err
	}

	updates := invoicedomain.PaymentUpdates{
		Status:           target,
		IsPartiallyPaid:  sub.IsPartiallyPaid,
		PaymentDate:      paidOn,
		PaymentMethod:    string(method),
		PaymentReference: strings.TrimSpace(sub.PaymentReference),
	}
	if sub.IsPartiallyPaid {
		partial := amount
		updates.PartiallyPaidAmount = &partial
	}

	return paymentdomain.Result{
		Updates:    updates,
		Method:     method,
		Amount:     amount,
		Received:   received,
		Conversion: conversion,
	}, nil
}

func paymentDate(raw string, today time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid(paymentdomain.ErrMissingPaymentDate, "payment_date", "")
	}
	paidOn, err := time.Parse(paymentdomain.PaymentDateLayout, raw)
	if err != nil {
		parsed, rfcErr := time.Parse(time.RFC3339, raw)
		if rfcErr != nil {
			return time.Time{}, invalid(paymentdomain.ErrInvalidPaymentDate, "payment_date", raw)
		}
		paidOn = parsed
	}
	paidOn = lifecycle.DateOnly(paidOn)
	if paidOn.After(lifecycle.DateOnly(today)) {
		return time.Time{}, invalid(paymentdomain.ErrPaymentDateInFuture, "payment_date", raw)
	}
	return paidOn, nil
}

// convert derives whichever of rate and INR received is missing. When both
// are given they are kept as entered. Non-positive values count as absent.
func convert(usd float64, rate, inr *float64) (*invoicedomain.Conversion, error) {
	hasRate := rate != nil && *rate > 0
	hasINR := inr != nil && *inr > 0

	switch {
	case hasRate && hasINR:
		return &invoicedomain.Conversion{USDAmount: usd, ExchangeRate: *rate, INRAmountReceived: money.RoundMinor(*inr)}, nil
	case hasRate:
		return &invoicedomain.Conversion{USDAmount: usd, ExchangeRate: *rate, INRAmountReceived: money.Multiply(usd, *rate)}, nil
	case hasINR:
		derived, err := money.Divide(*inr, usd, 4)
		if err != nil {
			return nil, invalid(paymentdomain.ErrInvalidAmount, "amount", "cannot derive an exchange rate from a zero amount")
		}
		return &invoicedomain.Conversion{USDAmount: usd, ExchangeRate: derived, INRAmountReceived: money.RoundMinor(*inr)}, nil
	default:
		return nil, invalid(paymentdomain.ErrMissingConversion, "exchange_rate", "exchange_rate or inr_amount_received is required for USD invoices")
	}
}
