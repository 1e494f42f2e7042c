package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSafeAttributesDropsBankingKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("invoice.id", "42"),
		attribute.String("banking.account_number", "0012345678"),
		attribute.String("auth.token", "t"),
	)
	if len(attrs) != 1 || attrs[0].Key != "invoice.id" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestPaymentAttributes(t *testing.T) {
	attrs := PaymentAttributes("42", "upi", true)
	if len(attrs) != 3 || attrs[0] != KeyInvoiceID.String("42") || attrs[2] != KeyPaymentPartial.Bool(true) {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestSafeErrorHidesMessage(t *testing.T) {
	err := SafeError(errors.New("account 0012345678 rejected"))
	if err.Error() != "*errors.errorString" {
		t.Fatalf("expected type-only error, got %q", err.Error())
	}
}

func TestSafeErrorKeepsErrorCode(t *testing.T) {
	code := errors.New("invalid_amount")
	err := SafeError(fmt.Errorf("payment for 0012345678: %w", code))
	if err.Error() != "invalid_amount" {
		t.Fatalf("expected error code, got %q", err.Error())
	}
	if SafeError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestGinMiddlewareStartsSpan(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())

	var sc trace.SpanContext
	r.GET("/api/invoices/:id", func(c *gin.Context) {
		sc = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/1", nil)
	req.Header.Set("traceparent", "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if sc.TraceID().String() != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("expected propagated trace id, got %s", sc.TraceID())
	}
}
