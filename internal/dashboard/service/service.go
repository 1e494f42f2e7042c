package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/smallbiznis/invoicegen/internal/clock"
	dashboarddomain "github.com/smallbiznis/invoicegen/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/lifecycle"
	"github.com/smallbiznis/invoicegen/internal/money"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const periodLayout = "2006-01"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	SettingsSvc settingsdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	settingsSvc settingsdomain.Service
}

func NewService(p Params) dashboarddomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("dashboard.service"),
		clock:       p.Clock,
		settingsSvc: p.SettingsSvc,
	}
}

// Summary reads statuses the way list does: invoices past due are reported
// as overdue even before the stored row has been refreshed.
func (s *Service) Summary(ctx context.Context) (dashboarddomain.SummaryResponse, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return dashboarddomain.SummaryResponse{}, err
	}
	settings, err := s.settingsSvc.Currency(ctx)
	if err != nil {
		return dashboarddomain.SummaryResponse{}, err
	}

	var invoices []invoicedomain.Invoice
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&invoices).Error; err != nil {
		return dashboarddomain.SummaryResponse{}, err
	}

	today := s.clock.Now()
	for i := range invoices {
		invoices[i].Status = lifecycle.DeriveStatus(invoices[i].Status, invoices[i].DueDate, today)
	}

	conv := converter{to: settings.PreferredCurrency, rate: settings.USDToINRRate}
	byStatus := lo.GroupBy(invoices, func(inv invoicedomain.Invoice) invoicedomain.Status {
		return inv.Status
	})

	resp := dashboarddomain.SummaryResponse{
		Currency:     settings.PreferredCurrency,
		USDToINRRate: settings.USDToINRRate,
		InvoiceCount: int64(len(invoices)),
		Statuses:     make([]dashboarddomain.StatusSummary, 0, len(invoicedomain.Statuses)),
	}

	var invoiced, collected, outstanding, overdue []float64
	for _, status := range invoicedomain.Statuses {
		group := byStatus[status]
		totals := make([]float64, 0, len(group))
		for _, inv := range group {
			total, err := conv.amount(inv.Total, inv.Currency)
			if err != nil {
				return dashboarddomain.SummaryResponse{}, err
			}
			totals = append(totals, total)

			if status == invoicedomain.StatusDraft {
				continue
			}
			invoiced = append(invoiced, total)

			paid := paidAmount(inv)
			paidConverted, err := conv.amount(paid, inv.Currency)
			if err != nil {
				return dashboarddomain.SummaryResponse{}, err
			}
			if paidConverted > 0 {
				collected = append(collected, paidConverted)
			}

			balance := money.Sum(total, -paidConverted)
			if status == invoicedomain.StatusPaid || balance <= 0 {
				continue
			}
			outstanding = append(outstanding, balance)
			if status == invoicedomain.StatusOverdue {
				overdue = append(overdue, balance)
			}
		}
		resp.Statuses = append(resp.Statuses, dashboarddomain.StatusSummary{
			Status: status,
			Count:  int64(len(group)),
			Amount: money.Sum(totals...),
		})
	}

	resp.Invoiced = money.Sum(invoiced...)
	resp.Collected = money.Sum(collected...)
	resp.Outstanding = money.Sum(outstanding...)
	resp.Overdue = money.Sum(overdue...)
	return resp, nil
}

// Collections returns one point per calendar month, oldest first, ending
// with the current month. Months without payments are reported as zero.
func (s *Service) Collections(ctx context.Context, req dashboarddomain.CollectionsRequest) (dashboarddomain.CollectionsResponse, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return dashboarddomain.CollectionsResponse{}, err
	}

	months := req.Months
	if months == 0 {
		months = dashboarddomain.DefaultCollectionMonths
	}
	if months < 0 || months > dashboarddomain.MaxCollectionMonths {
		return dashboarddomain.CollectionsResponse{}, dashboarddomain.ErrInvalidMonths
	}

	settings, err := s.settingsSvc.Currency(ctx)
	if err != nil {
		return dashboarddomain.CollectionsResponse{}, err
	}

	now := lifecycle.DateOnly(s.clock.Now())
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var payments []invoicedomain.Payment
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND payment_date >= ?", userID, start).
		Order("payment_date ASC").
		Find(&payments).Error; err != nil {
		return dashboarddomain.CollectionsResponse{}, err
	}

	conv := converter{to: settings.PreferredCurrency, rate: settings.USDToINRRate}
	byPeriod := lo.GroupBy(payments, func(p invoicedomain.Payment) string {
		return p.PaymentDate.UTC().Format(periodLayout)
	})

	series := make([]dashboarddomain.CollectionPoint, 0, months)
	for i := 0; i < months; i++ {
		period := start.AddDate(0, i, 0).Format(periodLayout)
		group := byPeriod[period]
		amounts := make([]float64, 0, len(group))
		for _, p := range group {
			amount, err := conv.payment(p)
			if err != nil {
				return dashboarddomain.CollectionsResponse{}, err
			}
			amounts = append(amounts, amount)
		}
		series = append(series, dashboarddomain.CollectionPoint{
			Period:       period,
			Collected:    money.Sum(amounts...),
			PaymentCount: int64(len(group)),
		})
	}

	s.log.Debug("computed collections",
		zap.String("user_id", userID),
		zap.Int("months", months),
		zap.Int("payments", len(payments)),
	)

	return dashboarddomain.CollectionsResponse{
		Currency: settings.PreferredCurrency,
		Months:   months,
		Series:   series,
	}, nil
}

// paidAmount is what has been collected against the invoice in its own
// currency.
func paidAmount(inv invoicedomain.Invoice) float64 {
	switch {
	case inv.Status == invoicedomain.StatusPaid:
		return inv.Total
	case inv.IsPartiallyPaid && inv.PartiallyPaidAmount != nil:
		return *inv.PartiallyPaidAmount
	default:
		return 0
	}
}

type converter struct {
	to   money.Currency
	rate float64
}

func (c converter) amount(value float64, from money.Currency) (float64, error) {
	if from == "" {
		from = money.DefaultCurrency
	}
	return money.Convert(value, from, c.to, c.rate)
}

// payment prefers the INR actually received over a conversion at today's
// rate.
func (c converter) payment(p invoicedomain.Payment) (float64, error) {
	if p.Currency == money.CurrencyUSD && c.to == money.CurrencyINR && p.INRAmountReceived != nil {
		return money.RoundMinor(*p.INRAmountReceived), nil
	}
	return c.amount(p.Amount, p.Currency)
}
