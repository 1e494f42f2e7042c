package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	dashboarddomain "github.com/smallbiznis/invoicegen/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
	obsctx "github.com/smallbiznis/invoicegen/internal/observability/context"
	paymentdomain "github.com/smallbiznis/invoicegen/internal/payment/domain"
	"github.com/smallbiznis/invoicegen/internal/payment/recorder"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

const (
	typeInvalidRequest = "invalid_request_error"
	typeValidation     = "validation_error"
	typeNotFound       = "not_found_error"
	typeConflict       = "conflict_error"
	typeAuth           = "authentication_error"
	typeRateLimit      = "rate_limit_error"
	typeAPI            = "api_error"
)

// APIError is the JSON error body returned by every handler.
type APIError struct {
	Status    int    `json:"-"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`

	// Proposal is set when a partial payment should be recorded as full.
	Proposal *paymentdomain.Submission `json:"proposal,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code
}

func invalidRequestError() error {
	return &APIError{
		Status:  http.StatusBadRequest,
		Type:    typeInvalidRequest,
		Code:    "invalid_request",
		Message: "invalid request body",
	}
}

func newValidationError(field, code, message string) error {
	return &APIError{
		Status:  http.StatusBadRequest,
		Type:    typeValidation,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

type errorMapping struct {
	err    error
	status int
	kind   string
	field  string
}

var errorMappings = []errorMapping{
	{err: invoicedomain.ErrInvalidInvoiceID, status: http.StatusBadRequest, kind: typeValidation, field: "id"},
	{err: invoicedomain.ErrInvalidInvoiceNumber, status: http.StatusBadRequest, kind: typeValidation, field: "invoice_number"},
	{err: invoicedomain.ErrInvalidIssueDate, status: http.StatusBadRequest, kind: typeValidation, field: "issue_date"},
	{err: invoicedomain.ErrInvalidDueDate, status: http.StatusBadRequest, kind: typeValidation, field: "due_date"},
	{err: invoicedomain.ErrInvalidCurrency, status: http.StatusBadRequest, kind: typeValidation, field: "currency"},
	{err: invoicedomain.ErrInvalidEngagementType, status: http.StatusBadRequest, kind: typeValidation, field: "engagement_type"},
	{err: invoicedomain.ErrInvalidStatus, status: http.StatusBadRequest, kind: typeValidation, field: "status"},
	{err: invoicedomain.ErrInvalidAmount, status: http.StatusBadRequest, kind: typeValidation},
	{err: invoicedomain.ErrInvalidClient, status: http.StatusBadRequest, kind: typeValidation, field: "client_id"},
	{err: invoicedomain.ErrUnsupportedFormat, status: http.StatusBadRequest, kind: typeValidation, field: "format"},
	{err: invoicedomain.ErrInvalidUser, status: http.StatusUnauthorized, kind: typeAuth},
	{err: invoicedomain.ErrInvoiceNotFound, status: http.StatusNotFound, kind: typeNotFound},
	{err: invoicedomain.ErrVersionConflict, status: http.StatusConflict, kind: typeConflict, field: "version"},
	{err: invoicedomain.ErrInvalidTransition, status: http.StatusConflict, kind: typeConflict, field: "status"},
	{err: invoicedomain.ErrTotalBelowPaid, status: http.StatusConflict, kind: typeConflict, field: "total"},
	{err: invoicedomain.ErrCurrencyLocked, status: http.StatusConflict, kind: typeConflict, field: "currency"},
	{err: paymentdomain.ErrInvoiceAlreadyPaid, status: http.StatusConflict, kind: typeConflict},
	{err: paymentdomain.ErrAmountExceedsTotal, status: http.StatusConflict, kind: typeConflict, field: "amount"},
	{err: paymentdomain.ErrMissingPaymentDate, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "payment_date"},
	{err: paymentdomain.ErrInvalidPaymentDate, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "payment_date"},
	{err: paymentdomain.ErrPaymentDateInFuture, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "payment_date"},
	{err: paymentdomain.ErrInvalidPaymentMethod, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "payment_method"},
	{err: paymentdomain.ErrInvalidAmount, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "amount"},
	{err: paymentdomain.ErrMissingConversion, status: http.StatusUnprocessableEntity, kind: typeValidation, field: "exchange_rate"},
	{err: clientdomain.ErrInvalidID, status: http.StatusBadRequest, kind: typeValidation, field: "id"},
	{err: clientdomain.ErrInvalidName, status: http.StatusBadRequest, kind: typeValidation, field: "name"},
	{err: clientdomain.ErrInvalidEmail, status: http.StatusBadRequest, kind: typeValidation, field: "email"},
	{err: clientdomain.ErrNotFound, status: http.StatusNotFound, kind: typeNotFound},
	{err: clientdomain.ErrClientHasInvoices, status: http.StatusConflict, kind: typeConflict},
	{err: settingsdomain.ErrInvalidCurrency, status: http.StatusBadRequest, kind: typeValidation, field: "preferred_currency"},
	{err: settingsdomain.ErrInvalidRate, status: http.StatusBadRequest, kind: typeValidation, field: "usd_to_inr_rate"},
	{err: settingsdomain.ErrInvalidColor, status: http.StatusBadRequest, kind: typeValidation},
	{err: settingsdomain.ErrInvalidBankAccount, status: http.StatusBadRequest, kind: typeValidation},
	{err: settingsdomain.ErrInvalidIFSC, status: http.StatusBadRequest, kind: typeValidation, field: "ifsc_code"},
	{err: dashboarddomain.ErrInvalidMonths, status: http.StatusBadRequest, kind: typeValidation, field: "months"},
	{err: money.ErrUnsupportedCurrency, status: http.StatusBadRequest, kind: typeValidation, field: "currency"},
	{err: usercontext.ErrMissingUser, status: http.StatusUnauthorized, kind: typeAuth},
	{err: ErrUnauthorized, status: http.StatusUnauthorized, kind: typeAuth},
	{err: ErrNotFound, status: http.StatusNotFound, kind: typeNotFound},
	{err: ErrRateLimited, status: http.StatusTooManyRequests, kind: typeRateLimit},
	{err: ErrServiceUnavailable, status: http.StatusServiceUnavailable, kind: typeAPI},
}

// AbortWithError writes the JSON error body for err and stops the chain.
// Unknown errors become a 500 without leaking their message.
func AbortWithError(c *gin.Context, err error) {
	body := *toAPIError(err)
	body.RequestID = obsctx.RequestIDFromGin(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(body.Status, gin.H{"error": body})
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var vErr *recorder.ValidationError
	if errors.As(err, &vErr) {
		if mapped := mapSentinel(vErr.Err); mapped != nil {
			if vErr.Field != "" {
				mapped.Field = vErr.Field
			}
			if vErr.Details != "" {
				mapped.Message = vErr.Details
			}
			mapped.Proposal = vErr.Proposal
			return mapped
		}
	}

	if mapped := mapSentinel(err); mapped != nil {
		return mapped
	}

	return &APIError{
		Status:  http.StatusInternalServerError,
		Type:    typeAPI,
		Code:    "internal_error",
		Message: "internal server error",
	}
}

func mapSentinel(err error) *APIError {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return &APIError{
				Status:  m.status,
				Type:    m.kind,
				Code:    m.err.Error(),
				Field:   m.field,
				Message: strings.ReplaceAll(m.err.Error(), "_", " "),
			}
		}
	}
	return nil
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
