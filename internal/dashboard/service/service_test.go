package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/clock"
	dashboarddomain "github.com/smallbiznis/invoicegen/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/migration"
	"github.com/smallbiznis/invoicegen/internal/money"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	settingsservice "github.com/smallbiznis/invoicegen/internal/settings/service"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var today = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
	ctx  context.Context
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migration.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	settings := settingsservice.NewService(settingsservice.Params{DB: db, Log: zap.NewNop(), GenID: node})
	ctx := usercontext.WithUserID(context.Background(), "user-1")
	if _, err := settings.UpdateCurrency(ctx, settingsdomain.UpdateCurrencyRequest{
		PreferredCurrency: "INR",
		USDToINRRate:      80,
	}); err != nil {
		t.Fatalf("update currency: %v", err)
	}

	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Clock:       clock.Fixed(today),
		SettingsSvc: settings,
	}).(*Service)
	return fixture{svc: svc, db: db, node: node, ctx: ctx}
}

func (f fixture) invoice(t *testing.T, userID, number string, status invoicedomain.Status, currency money.Currency, total float64, due string, partial *float64) {
	t.Helper()
	dueDate, err := time.Parse("2006-01-02", due)
	if err != nil {
		t.Fatalf("parse due: %v", err)
	}
	inv := invoicedomain.Invoice{
		ID:                  f.node.Generate(),
		UserID:              userID,
		InvoiceNumber:       number,
		IssueDate:           dueDate.AddDate(0, 0, -30),
		DueDate:             dueDate,
		Subtotal:            total,
		Total:               total,
		Currency:            currency,
		EngagementType:      invoicedomain.EngagementService,
		Status:              status,
		IsPartiallyPaid:     partial != nil,
		PartiallyPaidAmount: partial,
		Version:             1,
	}
	if err := f.db.Create(&inv).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
}

func (f fixture) payment(t *testing.T, date string, currency money.Currency, amount float64, inr *float64) {
	t.Helper()
	paidOn, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	p := invoicedomain.Payment{
		ID:                f.node.Generate(),
		InvoiceID:         f.node.Generate(),
		UserID:            "user-1",
		PaymentDate:       paidOn,
		Method:            "Bank Transfer",
		Amount:            amount,
		Currency:          currency,
		INRAmountReceived: inr,
		Metadata:          datatypes.JSONMap{},
	}
	if err := f.db.Create(&p).Error; err != nil {
		t.Fatalf("insert payment: %v", err)
	}
}

func ptr(v float64) *float64 { return &v }

func TestSummary(t *testing.T) {
	f := setup(t)
	f.invoice(t, "user-1", "INV-1", invoicedomain.StatusDraft, money.CurrencyINR, 1000, "2024-07-01", nil)
	f.invoice(t, "user-1", "INV-2", invoicedomain.StatusSent, money.CurrencyINR, 2000, "2024-06-01", nil)
	f.invoice(t, "user-1", "INV-3", invoicedomain.StatusPaid, money.CurrencyUSD, 100, "2024-06-01", nil)
	f.invoice(t, "user-1", "INV-4", invoicedomain.StatusPartiallyPaid, money.CurrencyINR, 5000, "2024-07-30", ptr(1500))
	f.invoice(t, "user-2", "INV-1", invoicedomain.StatusSent, money.CurrencyINR, 9999, "2024-06-01", nil)

	got, err := f.svc.Summary(f.ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if got.Currency != money.CurrencyINR || got.InvoiceCount != 4 {
		t.Fatalf("unexpected header: %+v", got)
	}
	if got.Invoiced != 15000 {
		t.Fatalf("expected invoiced 15000, got %v", got.Invoiced)
	}
	if got.Collected != 9500 {
		t.Fatalf("expected collected 9500, got %v", got.Collected)
	}
	if got.Outstanding != 5500 {
		t.Fatalf("expected outstanding 5500, got %v", got.Outstanding)
	}
	if got.Overdue != 2000 {
		t.Fatalf("expected overdue 2000, got %v", got.Overdue)
	}

	want := map[invoicedomain.Status]dashboarddomain.StatusSummary{
		invoicedomain.StatusDraft:         {Status: invoicedomain.StatusDraft, Count: 1, Amount: 1000},
		invoicedomain.StatusSent:          {Status: invoicedomain.StatusSent, Count: 0, Amount: 0},
		invoicedomain.StatusPaid:          {Status: invoicedomain.StatusPaid, Count: 1, Amount: 8000},
		invoicedomain.StatusOverdue:       {Status: invoicedomain.StatusOverdue, Count: 1, Amount: 2000},
		invoicedomain.StatusPartiallyPaid: {Status: invoicedomain.StatusPartiallyPaid, Count: 1, Amount: 5000},
	}
	if len(got.Statuses) != len(want) {
		t.Fatalf("expected %d status rows, got %d", len(want), len(got.Statuses))
	}
	for _, row := range got.Statuses {
		if row != want[row.Status] {
			t.Fatalf("status %s: expected %+v, got %+v", row.Status, want[row.Status], row)
		}
	}
}

func TestSummaryRequiresUser(t *testing.T) {
	f := setup(t)
	if _, err := f.svc.Summary(context.Background()); !errors.Is(err, usercontext.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestCollections(t *testing.T) {
	f := setup(t)
	f.payment(t, "2024-03-20", money.CurrencyINR, 700, nil)
	f.payment(t, "2024-05-10", money.CurrencyINR, 1500, nil)
	f.payment(t, "2024-06-02", money.CurrencyUSD, 100, ptr(8300))
	f.payment(t, "2024-06-03", money.CurrencyUSD, 10, nil)

	got, err := f.svc.Collections(f.ctx, dashboarddomain.CollectionsRequest{Months: 3})
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	want := []dashboarddomain.CollectionPoint{
		{Period: "2024-04", Collected: 0, PaymentCount: 0},
		{Period: "2024-05", Collected: 1500, PaymentCount: 1},
		{Period: "2024-06", Collected: 9100, PaymentCount: 2},
	}
	if got.Months != 3 || len(got.Series) != len(want) {
		t.Fatalf("unexpected series: %+v", got)
	}
	for i := range want {
		if got.Series[i] != want[i] {
			t.Fatalf("point %d: expected %+v, got %+v", i, want[i], got.Series[i])
		}
	}
}

func TestCollectionsMonths(t *testing.T) {
	f := setup(t)

	got, err := f.svc.Collections(f.ctx, dashboarddomain.CollectionsRequest{})
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if got.Months != dashboarddomain.DefaultCollectionMonths || len(got.Series) != dashboarddomain.DefaultCollectionMonths {
		t.Fatalf("expected default window, got %+v", got)
	}
	if got.Series[len(got.Series)-1].Period != "2024-06" {
		t.Fatalf("expected window to end at current month, got %s", got.Series[len(got.Series)-1].Period)
	}

	for _, months := range []int{-1, dashboarddomain.MaxCollectionMonths + 1} {
		if _, err := f.svc.Collections(f.ctx, dashboarddomain.CollectionsRequest{Months: months}); !errors.Is(err, dashboarddomain.ErrInvalidMonths) {
			t.Fatalf("months %d: expected ErrInvalidMonths, got %v", months, err)
		}
	}
}
