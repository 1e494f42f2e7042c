package domain

import (
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// StatusSummary counts invoices in one lifecycle state. Amount is the sum of
// invoice totals converted to the preferred currency.
type StatusSummary struct {
	Status invoicedomain.Status `json:"status"`
	Count  int64                `json:"count"`
	Amount float64              `json:"amount"`
}

// SummaryResponse is the API response for the dashboard summary.
type SummaryResponse struct {
	Currency     money.Currency  `json:"currency"`
	USDToINRRate float64         `json:"usd_to_inr_rate"`
	InvoiceCount int64           `json:"invoice_count"`
	Invoiced     float64         `json:"invoiced"`
	Collected    float64         `json:"collected"`
	Outstanding  float64         `json:"outstanding"`
	Overdue      float64         `json:"overdue"`
	Statuses     []StatusSummary `json:"statuses"`
}

// CollectionPoint is the cash collected in one calendar month.
type CollectionPoint struct {
	Period       string  `json:"period"`
	Collected    float64 `json:"collected"`
	PaymentCount int64   `json:"payment_count"`
}

// CollectionsResponse is the API response for monthly collections.
type CollectionsResponse struct {
	Currency money.Currency    `json:"currency"`
	Months   int               `json:"months"`
	Series   []CollectionPoint `json:"series"`
}

type CollectionsRequest struct {
	Months int
}
