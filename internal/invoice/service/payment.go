package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/invoicegen/internal/payment/domain"
	"github.com/smallbiznis/invoicegen/internal/payment/recorder"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RecordPayment validates the submission against the stored invoice and
// persists the resulting status together with a payment history row.
//
// A partial amount that covers the total is rejected with a
// *recorder.ValidationError whose Proposal is the equivalent full payment.
func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (domain.RecordPaymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.record_payment")
	defer span.End()

	userID, invoiceID, err := s.scope(ctx, req.InvoiceID)
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}
	span.SetAttributes(tracing.PaymentAttributes(invoiceID.String(), req.PaymentMethod, req.IsPartiallyPaid)...)

	inv, err := s.store.FetchInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}
	if req.Version > 0 && inv.Version != req.Version {
		return domain.RecordPaymentResponse{}, domain.ErrVersionConflict
	}

	result, err := s.recorder.Record(paymentdomain.SnapshotOf(*inv), paymentdomain.Submission{
		PaymentDate:       req.PaymentDate,
		PaymentMethod:     req.PaymentMethod,
		PaymentReference:  req.PaymentReference,
		Amount:            req.Amount,
		IsPartiallyPaid:   req.IsPartiallyPaid,
		ExchangeRate:      req.ExchangeRate,
		INRAmountReceived: req.INRAmountReceived,
	})
	if err != nil {
		reason := rejectionReason(err)
		s.metrics.IncPaymentRejected(reason)
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, reason)
		s.log.Info("payment rejected",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("reason", reason),
		)
		return domain.RecordPaymentResponse{}, err
	}

	payment := domain.Payment{
		PaymentDate: result.Updates.PaymentDate,
		Method:      string(result.Method),
		Reference:   result.Updates.PaymentReference,
		Amount:      result.Received,
		Currency:    inv.Currency,
		IsPartial:   result.Updates.IsPartiallyPaid,
		Metadata:    paymentMetadata(ctx, inv.Status),
	}
	payment.Metadata["covered_amount"] = result.Amount
	if c := result.Conversion; c != nil {
		rate, received := c.ExchangeRate, c.INRAmountReceived
		payment.ExchangeRate = &rate
		payment.INRAmountReceived = &received
	}

	updated, err := s.store.ApplyPayment(ctx, userID, invoiceID, inv.Version, result.Updates, &payment)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "apply payment failed")
		return domain.RecordPaymentResponse{}, err
	}

	s.metrics.ObservePayment(string(result.Updates.Status), string(inv.Currency), result.Received)
	s.log.Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("method", payment.Method),
		zap.Float64("amount", payment.Amount),
	)

	return domain.RecordPaymentResponse{
		Invoice:    *updated,
		Payment:    payment,
		Conversion: result.Conversion,
	}, nil
}

func (s *Service) ListPayments(ctx context.Context, id string) ([]domain.Payment, error) {
	userID, invoiceID, err := s.scope(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.FetchInvoice(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

func rejectionReason(err error) string {
	var vErr *recorder.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return domain.ErrInvalidTransition.Error()
	default:
		return "error"
	}
}

func paymentMetadata(ctx context.Context, previous domain.Status) datatypes.JSONMap {
	meta := datatypes.JSONMap{"previous_status": string(previous)}
	if ip := usercontext.IPAddressFromContext(ctx); ip != "" {
		meta["ip_address"] = ip
	}
	if ua := usercontext.UserAgentFromContext(ctx); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
