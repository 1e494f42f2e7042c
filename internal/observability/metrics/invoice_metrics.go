package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// InvoiceMetrics tracks payment recording and overdue refreshes.
type InvoiceMetrics struct {
	paymentsRecorded *prometheus.CounterVec
	paymentsRejected *prometheus.CounterVec
	amountCollected  *prometheus.CounterVec
	overdueMarked    prometheus.Counter
}

var (
	invoiceMetricsOnce sync.Once
	invoiceMetrics     *InvoiceMetrics
)

func InvoiceWithConfig(cfg Config) *InvoiceMetrics {
	invoiceMetricsOnce.Do(func() {
		invoiceMetrics = NewInvoiceMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return invoiceMetrics
}

func NewInvoiceMetrics(registerer prometheus.Registerer, cfg Config) *InvoiceMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "invoicer"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	paymentsRecorded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "invoicer_payments_recorded_total",
			Help:        "Payments recorded against invoices by resulting status.",
			ConstLabels: constLabels,
		},
		[]string{"result", "currency"}, // paid | partially_paid
	)
	paymentsRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "invoicer_payments_rejected_total",
			Help:        "Payment submissions rejected before any write.",
			ConstLabels: constLabels,
		},
		[]string{"reason"},
	)
	amountCollected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "invoicer_amount_collected_total",
			Help:        "Sum of recorded payment amounts in invoice currency.",
			ConstLabels: constLabels,
		},
		[]string{"currency"},
	)
	overdueMarked := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "invoicer_invoices_marked_overdue_total",
			Help:        "Invoices moved to overdue by listing refreshes.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(paymentsRecorded, paymentsRejected, amountCollected, overdueMarked)

	return &InvoiceMetrics{
		paymentsRecorded: paymentsRecorded,
		paymentsRejected: paymentsRejected,
		amountCollected:  amountCollected,
		overdueMarked:    overdueMarked,
	}
}

func (m *InvoiceMetrics) ObservePayment(result, currency string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(result, currency).Inc()
	if amount > 0 {
		m.amountCollected.WithLabelValues(currency).Add(amount)
	}
}

func (m *InvoiceMetrics) IncPaymentRejected(reason string) {
	if m == nil {
		return
	}
	m.paymentsRejected.WithLabelValues(reason).Inc()
}

func (m *InvoiceMetrics) AddOverdueMarked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.overdueMarked.Add(float64(n))
}
