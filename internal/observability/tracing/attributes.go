package tracing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	KeyInvoiceID      = attribute.Key("invoice.id")
	KeyPaymentMethod  = attribute.Key("payment.method")
	KeyPaymentPartial = attribute.Key("payment.partial")
)

// Keys containing any of these fragments may carry payee banking details or
// credentials and never reach an exporter.
var redactedFragments = []string{
	"account_number",
	"ifsc",
	"pan_number",
	"password",
	"secret",
	"token",
	"authorization",
}

// PaymentAttributes describes a payment submission. Amounts and references
// are left out.
func PaymentAttributes(invoiceID, method string, partial bool) []attribute.KeyValue {
	return SafeAttributes(
		KeyInvoiceID.String(invoiceID),
		KeyPaymentMethod.String(method),
		KeyPaymentPartial.Bool(partial),
	)
}

// SafeAttributes drops attributes whose key names banking identifiers or
// credentials.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	return slices.DeleteFunc(slices.Clone(attrs), func(kv attribute.KeyValue) bool {
		key := strings.ToLower(string(kv.Key))
		return slices.ContainsFunc(redactedFragments, func(f string) bool {
			return strings.Contains(key, f)
		})
	})
}

// SafeError reduces err to its innermost error code (domain errors are
// snake_case codes). Anything else is reported by type only, since raw
// messages can echo user input.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	inner := err
	for next := errors.Unwrap(inner); next != nil; next = errors.Unwrap(inner) {
		inner = next
	}
	if msg := inner.Error(); isCode(msg) {
		return errors.New(msg)
	}
	return fmt.Errorf("%T", err)
}

func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}
