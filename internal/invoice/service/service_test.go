package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	clientservice "github.com/smallbiznis/invoicegen/internal/client/service"
	"github.com/smallbiznis/invoicegen/internal/clock"
	"github.com/smallbiznis/invoicegen/internal/events"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/engagement"
	"github.com/smallbiznis/invoicegen/internal/invoice/render"
	"github.com/smallbiznis/invoicegen/internal/invoice/repository"
	"github.com/smallbiznis/invoicegen/internal/migration"
	"github.com/smallbiznis/invoicegen/internal/money"
	"github.com/smallbiznis/invoicegen/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/invoicegen/internal/payment/domain"
	"github.com/smallbiznis/invoicegen/internal/payment/recorder"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	settingsservice "github.com/smallbiznis/invoicegen/internal/settings/service"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var today = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	db       *gorm.DB
	clients  clientdomain.Service
	settings settingsdomain.Service
	registry *prometheus.Registry
	ctx      context.Context
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

	log := zap.NewNop()
	clients := clientservice.NewService(clientservice.Params{DB: db, Log: log, GenID: node})
	settings := settingsservice.NewService(settingsservice.Params{DB: db, Log: log, GenID: node})
	registry := prometheus.NewRegistry()
	m := metrics.NewInvoiceMetrics(registry, metrics.Config{ServiceName: "test", Environment: "test"})
	c := clock.Fixed(today)

	svc := NewService(Params{
		Store:       repository.New(db, node, events.NewOutbox(db, node)),
		Log:         log,
		Clock:       c,
		Recorder:    recorder.New(c),
		Renderer:    render.NewRenderer(),
		ClientSvc:   clients,
		SettingsSvc: settings,
		Metrics:     m,
	}).(*Service)

	return fixture{
		svc:      svc,
		db:       db,
		clients:  clients,
		settings: settings,
		registry: registry,
		ctx:      usercontext.WithUserID(context.Background(), "user-1"),
	}
}

func createInvoice(t *testing.T, f fixture, req domain.CreateInvoiceRequest) domain.CreateInvoiceResponse {
	t.Helper()
	resp, err := f.svc.Create(f.ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return resp
}

func serviceInvoice(number string) domain.CreateInvoiceRequest {
	return domain.CreateInvoiceRequest{
		InvoiceNumber: number,
		IssueDate:     "2024-06-01",
		DueDate:       "2024-06-30",
		TaxPercentage: 18,
		Items: []domain.ItemRequest{
			{Description: "Design", Quantity: 2, Rate: 500},
			{Description: "Build", Quantity: 1, Rate: 1000},
		},
	}
}

func TestCreateDerivesTotalsAndReplacesByNumber(t *testing.T) {
	f := setup(t)

	first := createInvoice(t, f, serviceInvoice("INV-001"))
	inv := first.Invoice
	if first.Replaced || inv.Subtotal != 2000 || inv.Tax != 360 || inv.Total != 2360 {
		t.Fatalf("unexpected totals %+v", inv)
	}
	if inv.Currency != money.CurrencyINR || inv.EngagementType != domain.EngagementService || inv.Status != domain.StatusDraft {
		t.Fatalf("unexpected defaults %+v", inv)
	}
	if len(first.Items) != 2 || first.Items[0].Amount != 1000 {
		t.Fatalf("unexpected items %+v", first.Items)
	}

	req := serviceInvoice("INV-001")
	req.Items = req.Items[:1]
	second := createInvoice(t, f, req)
	if !second.Replaced || second.Invoice.ID != inv.ID || len(second.Items) != 1 {
		t.Fatalf("expected replacement, got %+v", second)
	}
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)

	cases := []struct {
		name   string
		mutate func(*domain.CreateInvoiceRequest)
		want   error
	}{
		{"missing number", func(r *domain.CreateInvoiceRequest) { r.InvoiceNumber = " " }, domain.ErrInvalidInvoiceNumber},
		{"bad issue date", func(r *domain.CreateInvoiceRequest) { r.IssueDate = "01/06/2024" }, domain.ErrInvalidIssueDate},
		{"due before issue", func(r *domain.CreateInvoiceRequest) { r.DueDate = "2024-05-01" }, domain.ErrInvalidDueDate},
		{"currency", func(r *domain.CreateInvoiceRequest) { r.Currency = "EUR" }, domain.ErrInvalidCurrency},
		{"engagement", func(r *domain.CreateInvoiceRequest) { r.EngagementType = "hourly" }, domain.ErrInvalidEngagementType},
		{"negative total", func(r *domain.CreateInvoiceRequest) { r.Total = -1 }, domain.ErrInvalidAmount},
		{"unknown client", func(r *domain.CreateInvoiceRequest) { r.ClientID = "12345" }, domain.ErrInvalidClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := serviceInvoice("INV-X")
			tc.mutate(&req)
			if _, err := f.svc.Create(f.ctx, req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := f.svc.Create(context.Background(), serviceInvoice("INV-X")); !errors.Is(err, usercontext.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestPreviewAppliesEngagementAndSettings(t *testing.T) {
	f := setup(t)

	client, err := f.clients.Create(f.ctx, clientdomain.CreateRequest{Name: "Globex", Email: "ap@globex.test"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := f.settings.UpdateBusiness(f.ctx, settingsdomain.UpdateBusinessRequest{BusinessName: "Acme Studio"}); err != nil {
		t.Fatalf("business: %v", err)
	}
	if _, err := f.settings.UpdateBankAccount(f.ctx, settingsdomain.UpdateBankAccountRequest{
		AccountHolder: "Acme Studio",
		AccountNumber: "123456789012",
		IFSCCode:      "HDFC0001234",
		BankName:      "HDFC Bank",
	}); err != nil {
		t.Fatalf("bank: %v", err)
	}

	created := createInvoice(t, f, domain.CreateInvoiceRequest{
		InvoiceNumber:  "RET-1",
		ClientID:       client.ID.String(),
		IssueDate:      "2024-06-01",
		DueDate:        "2024-06-30",
		Subtotal:       50000,
		Total:          50000,
		EngagementType: "retainership",
	})

	data, err := f.svc.Preview(f.ctx, created.Invoice.ID.String())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if data.Issuer.BusinessName != "Acme Studio" || data.Issuer.FooterText != domain.DefaultFooterText {
		t.Fatalf("unexpected issuer %+v", data.Issuer)
	}
	if data.Client.Name != "Globex" || data.Banking == nil || data.Banking.IFSCCode != "HDFC0001234" {
		t.Fatalf("unexpected client or banking %+v %+v", data.Client, data.Banking)
	}
	items := data.Invoice.Items
	if len(items) != 1 || items[0].Description != engagement.RetainerDescription || items[0].Amount != 50000 {
		t.Fatalf("expected a single retainer line, got %+v", items)
	}
	if data.Invoice.Milestones == nil {
		t.Fatalf("milestones must never be nil")
	}

	check, err := f.svc.Totals(f.ctx, created.Invoice.ID.String())
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !check.Consistent {
		t.Fatalf("expected consistent totals, got %+v", check)
	}

	doc, err := f.svc.Render(f.ctx, created.Invoice.ID.String(), "html")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(doc.Body), "Monthly Retainer Fee") || doc.Filename != "invoice-RET-1.html" {
		t.Fatalf("unexpected document %s", doc.Filename)
	}
	if _, err := f.svc.Render(f.ctx, created.Invoice.ID.String(), "docx"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSendAndOverdueRefresh(t *testing.T) {
	f := setup(t)

	late := serviceInvoice("INV-LATE")
	late.IssueDate, late.DueDate = "2024-05-01", "2024-05-31"
	lateInv := createInvoice(t, f, late).Invoice
	current := createInvoice(t, f, serviceInvoice("INV-CURRENT")).Invoice

	for _, id := range []snowflake.ID{lateInv.ID, current.ID} {
		sent, err := f.svc.Send(f.ctx, id.String())
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if sent.Status != domain.StatusSent {
			t.Fatalf("expected sent, got %s", sent.Status)
		}
	}
	if _, err := f.svc.Send(f.ctx, current.ID.String()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on resend, got %v", err)
	}

	resp, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: "overdue"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Overdue != 1 || len(resp.Invoices) != 1 || resp.Invoices[0].ID != lateInv.ID {
		t.Fatalf("expected the late invoice to turn overdue, got %+v", resp)
	}
	expected := `
# HELP invoicer_invoices_marked_overdue_total Invoices moved to overdue by listing refreshes.
# TYPE invoicer_invoices_marked_overdue_total counter
invoicer_invoices_marked_overdue_total{env="test",service="test"} 1
`
	if err := testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "invoicer_invoices_marked_overdue_total"); err != nil {
		t.Fatalf("unexpected overdue metric: %v", err)
	}

	again, err := f.svc.RefreshOverdue(f.ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected refresh to be idempotent, got %d", again)
	}

	if _, err := f.svc.List(f.ctx, domain.ListInvoiceRequest{Status: "late"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestRecordPaymentPartialThenFull(t *testing.T) {
	f := setup(t)
	inv := createInvoice(t, f, serviceInvoice("INV-PAY")).Invoice
	id := inv.ID.String()

	partial, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:       id,
		PaymentDate:     "2024-06-10",
		PaymentMethod:   "UPI",
		Amount:          1000,
		IsPartiallyPaid: true,
	})
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	if partial.Invoice.Status != domain.StatusPartiallyPaid || *partial.Invoice.PartiallyPaidAmount != 1000 {
		t.Fatalf("unexpected partial state %+v", partial.Invoice)
	}
	if partial.Payment.Method != "upi" || partial.Payment.Metadata["previous_status"] != "draft" {
		t.Fatalf("unexpected payment %+v", partial.Payment)
	}

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:       id,
		PaymentDate:     "2024-06-11",
		PaymentMethod:   "cash",
		Amount:          2360,
		IsPartiallyPaid: true,
	})
	var vErr *recorder.ValidationError
	if !errors.As(err, &vErr) || vErr.Proposal == nil || vErr.Proposal.Amount != 2360 || vErr.Proposal.IsPartiallyPaid {
		t.Fatalf("expected a full payment proposal, got %v", err)
	}

	full, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:     id,
		PaymentDate:   "2024-06-12",
		PaymentMethod: "bank_transfer",
	})
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if full.Invoice.Status != domain.StatusPaid || full.Invoice.IsPartiallyPaid || full.Invoice.PartiallyPaidAmount != nil {
		t.Fatalf("unexpected paid state %+v", full.Invoice)
	}
	if full.Payment.Amount != 1360 {
		t.Fatalf("expected the remaining 1360 to be received, got %v", full.Payment.Amount)
	}
	if full.Payment.Metadata["covered_amount"] != 2360.0 {
		t.Fatalf("expected covered_amount 2360, got %v", full.Payment.Metadata["covered_amount"])
	}

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{InvoiceID: id, PaymentDate: "2024-06-12", PaymentMethod: "cash"})
	if !errors.Is(err, paymentdomain.ErrInvoiceAlreadyPaid) {
		t.Fatalf("expected ErrInvoiceAlreadyPaid, got %v", err)
	}

	payments, err := f.svc.ListPayments(f.ctx, id)
	if err != nil {
		t.Fatalf("payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected two payments, got %d", len(payments))
	}
	expected := `
# HELP invoicer_payments_rejected_total Payment submissions rejected before any write.
# TYPE invoicer_payments_rejected_total counter
invoicer_payments_rejected_total{env="test",reason="amount_exceeds_total",service="test"} 1
invoicer_payments_rejected_total{env="test",reason="invoice_already_paid",service="test"} 1
`
	if err := testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "invoicer_payments_rejected_total"); err != nil {
		t.Fatalf("unexpected rejection metric: %v", err)
	}
	collected := `
# HELP invoicer_amount_collected_total Sum of recorded payment amounts in invoice currency.
# TYPE invoicer_amount_collected_total counter
invoicer_amount_collected_total{currency="INR",env="test",service="test"} 2360
`
	if err := testutil.GatherAndCompare(f.registry, strings.NewReader(collected), "invoicer_amount_collected_total"); err != nil {
		t.Fatalf("unexpected collected metric: %v", err)
	}
}

func TestRecordPaymentUSDConversion(t *testing.T) {
	f := setup(t)
	req := serviceInvoice("INV-USD")
	req.Currency = "usd"
	req.TaxPercentage = 0
	inv := createInvoice(t, f, req).Invoice

	if _, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:     inv.ID.String(),
		PaymentDate:   "2024-06-10",
		PaymentMethod: "bank_transfer",
	}); !errors.Is(err, paymentdomain.ErrMissingConversion) {
		t.Fatalf("expected ErrMissingConversion, got %v", err)
	}

	rate := 83.25
	resp, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:     inv.ID.String(),
		PaymentDate:   "2024-06-10",
		PaymentMethod: "bank_transfer",
		ExchangeRate:  &rate,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if resp.Conversion == nil || resp.Conversion.INRAmountReceived != 166500 {
		t.Fatalf("unexpected conversion %+v", resp.Conversion)
	}
	if resp.Payment.INRAmountReceived == nil || *resp.Payment.INRAmountReceived != 166500 {
		t.Fatalf("expected conversion on the payment row, got %+v", resp.Payment)
	}
}

func TestRecordPaymentFutureDate(t *testing.T) {
	f := setup(t)
	inv := createInvoice(t, f, serviceInvoice("INV-F")).Invoice

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		InvoiceID:     inv.ID.String(),
		PaymentDate:   "2024-06-16",
		PaymentMethod: "cash",
	})
	if !errors.Is(err, paymentdomain.ErrPaymentDateInFuture) {
		t.Fatalf("expected ErrPaymentDateInFuture, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	f := setup(t)
	inv := createInvoice(t, f, serviceInvoice("INV-U")).Invoice
	id := inv.ID.String()

	notes := "net 30"
	milestones := []domain.MilestoneRequest{{Name: "Kickoff", Amount: 1000}}
	engagementType := "milestone"
	detail, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{
		ID:             id,
		Version:        inv.Version,
		Notes:          &notes,
		EngagementType: &engagementType,
		Milestones:     &milestones,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if detail.Invoice.Notes != "net 30" || detail.Invoice.EngagementType != domain.EngagementMilestone || len(detail.Milestones) != 1 {
		t.Fatalf("unexpected update %+v", detail)
	}

	if _, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{ID: id, Version: inv.Version, Notes: &notes}); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	due := "2024-05-01"
	if _, err := f.svc.Update(f.ctx, domain.UpdateInvoiceRequest{ID: id, DueDate: &due}); !errors.Is(err, domain.ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}

	if err := f.svc.Delete(f.ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.GetByID(f.ctx, id); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if _, err := f.svc.GetByID(f.ctx, "not-an-id"); !errors.Is(err, domain.ErrInvalidInvoiceID) {
		t.Fatalf("expected ErrInvalidInvoiceID, got %v", err)
	}
}
