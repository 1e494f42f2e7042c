package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	"github.com/smallbiznis/invoicegen/internal/clock"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/lifecycle"
	"github.com/smallbiznis/invoicegen/internal/invoice/render"
	"github.com/smallbiznis/invoicegen/internal/money"
	"github.com/smallbiznis/invoicegen/internal/observability/metrics"
	"github.com/smallbiznis/invoicegen/internal/observability/tracing"
	"github.com/smallbiznis/invoicegen/internal/payment/recorder"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Store       domain.Store
	Log         *zap.Logger
	Clock       clock.Clock
	Recorder    *recorder.Recorder
	Renderer    render.Renderer
	ClientSvc   clientdomain.Service
	SettingsSvc settingsdomain.Service
	Metrics     *metrics.InvoiceMetrics `optional:"true"`
}

type Service struct {
	store       domain.Store
	log         *zap.Logger
	clock       clock.Clock
	recorder    *recorder.Recorder
	renderer    render.Renderer
	clientSvc   clientdomain.Service
	settingsSvc settingsdomain.Service
	metrics     *metrics.InvoiceMetrics
	tracer      trace.Tracer
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	rec := p.Recorder
	if rec == nil {
		rec = recorder.New(c)
	}
	return &Service{
		store:       p.Store,
		log:         p.Log.Named("invoice.service"),
		clock:       c,
		recorder:    rec,
		renderer:    p.Renderer,
		clientSvc:   p.ClientSvc,
		settingsSvc: p.SettingsSvc,
		metrics:     p.Metrics,
		tracer:      tracing.Tracer("invoice.service"),
	}
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	filter := domain.ListFilter{UserID: userID}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidClient
		}
		filter.ClientID = &clientID
	}
	var wantStatus domain.Status
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
		wantStatus = status
	}

	// The status filter is applied after the overdue refresh so that
	// ?status=overdue sees invoices that only just became overdue.
	invoices, err := s.store.ListInvoices(ctx, filter)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}
	marked, err := s.refresh(ctx, userID, invoices)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if wantStatus != "" && inv.Status != wantStatus {
			continue
		}
		out = append(out, inv)
	}
	return domain.ListInvoiceResponse{Invoices: out, Overdue: marked}, nil
}

// RefreshOverdue persists the overdue status of every invoice of the caller,
// or of every user when the context carries none.
func (s *Service) RefreshOverdue(ctx context.Context) (int64, error) {
	userID := usercontext.UserIDFromContext(ctx)
	invoices, err := s.store.ListInvoices(ctx, domain.ListFilter{UserID: userID})
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, userID, invoices)
}

func (s *Service) refresh(ctx context.Context, userID string, invoices []domain.Invoice) (int64, error) {
	changed := lifecycle.Refresh(invoices, s.clock.Now())
	if len(changed) == 0 {
		return 0, nil
	}
	marked, err := s.store.MarkOverdue(ctx, userID, changed)
	if err != nil {
		return 0, err
	}
	s.metrics.AddOverdueMarked(marked)
	if marked > 0 {
		s.log.Info("invoices marked overdue", zap.String("user_id", userID), zap.Int64("count", marked))
	}
	return marked, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.InvoiceDetail, error) {
	userID, invoiceID, err := s.scope(ctx, id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	inv, err := s.store.FetchInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return s.detail(ctx, *inv)
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.CreateInvoiceResponse, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return domain.CreateInvoiceResponse{}, domain.ErrInvalidInvoiceNumber
	}
	issueDate, err := parseDate(req.IssueDate, domain.ErrInvalidIssueDate)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	dueDate, err := parseDate(req.DueDate, domain.ErrInvalidDueDate)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	if dueDate.Before(issueDate) {
		return domain.CreateInvoiceResponse{}, domain.ErrInvalidDueDate
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	engagement, err := parseEngagement(req.EngagementType)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	clientID, err := s.resolveClient(ctx, req.ClientID)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	items, err := itemRows(req.Items)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	milestones, err := milestoneRows(req.Milestones)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	if anyNegative(req.Subtotal, req.Tax, req.Total, req.TaxPercentage) {
		return domain.CreateInvoiceResponse{}, domain.ErrInvalidAmount
	}

	inv := domain.Invoice{
		UserID:         userID,
		InvoiceNumber:  number,
		ClientID:       clientID,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Subtotal:       money.RoundMinor(req.Subtotal),
		Tax:            money.RoundMinor(req.Tax),
		Total:          money.RoundMinor(req.Total),
		TaxPercentage:  req.TaxPercentage,
		Notes:          strings.TrimSpace(req.Notes),
		Currency:       currency,
		EngagementType: engagement,
		Status:         domain.StatusDraft,
	}
	if inv.Total == 0 && (len(items) > 0 || len(milestones) > 0) {
		totals := domain.RecomputeTotals(recordDetails(inv, items, milestones))
		inv.Subtotal, inv.Tax, inv.Total = totals.Subtotal, totals.Tax, totals.Total
	}

	result, err := s.store.CreateInvoice(ctx, &inv, items, milestones)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	s.log.Info("invoice saved",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("invoice_number", number),
		zap.Bool("replaced", result.Replaced),
	)

	detail, err := s.detail(ctx, result.Invoice)
	if err != nil {
		return domain.CreateInvoiceResponse{}, err
	}
	return domain.CreateInvoiceResponse{InvoiceDetail: detail, Replaced: result.Replaced}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.InvoiceDetail, error) {
	userID, invoiceID, err := s.scope(ctx, req.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	var patch domain.InvoicePatch
	if req.ClientID != nil {
		clientID, err := s.resolveClient(ctx, *req.ClientID)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.ClientID = clientID
	}
	if req.IssueDate != nil {
		issueDate, err := parseDate(*req.IssueDate, domain.ErrInvalidIssueDate)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.IssueDate = &issueDate
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate, domain.ErrInvalidDueDate)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.DueDate = &dueDate
	}
	for _, amount := range []*float64{req.Subtotal, req.Tax, req.Total, req.TaxPercentage} {
		if amount != nil && *amount < 0 {
			return domain.InvoiceDetail{}, domain.ErrInvalidAmount
		}
	}
	patch.Subtotal = roundedPtr(req.Subtotal)
	patch.Tax = roundedPtr(req.Tax)
	patch.Total = roundedPtr(req.Total)
	patch.TaxPercentage = req.TaxPercentage
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		patch.Notes = &notes
	}
	if req.Currency != nil {
		currency, err := parseCurrency(*req.Currency)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.Currency = &currency
	}
	if req.EngagementType != nil {
		engagement, err := parseEngagement(*req.EngagementType)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.EngagementType = &engagement
	}
	if req.Items != nil {
		items, err := itemRows(*req.Items)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.Items = &items
	}
	if req.Milestones != nil {
		milestones, err := milestoneRows(*req.Milestones)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		patch.Milestones = &milestones
	}

	if patch.IssueDate != nil || patch.DueDate != nil {
		current, err := s.store.FetchInvoice(ctx, userID, invoiceID)
		if err != nil {
			return domain.InvoiceDetail{}, err
		}
		issue, due := current.IssueDate, current.DueDate
		if patch.IssueDate != nil {
			issue = *patch.IssueDate
		}
		if patch.DueDate != nil {
			due = *patch.DueDate
		}
		if due.Before(issue) {
			return domain.InvoiceDetail{}, domain.ErrInvalidDueDate
		}
	}

	updated, err := s.store.UpdateInvoice(ctx, userID, invoiceID, req.Version, patch)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return s.detail(ctx, *updated)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, invoiceID, err := s.scope(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInvoice(ctx, userID, invoiceID); err != nil {
		return err
	}
	s.log.Info("invoice deleted", zap.String("invoice_id", invoiceID.String()))
	return nil
}

// Send marks a draft as sent. No email is delivered.
func (s *Service) Send(ctx context.Context, id string) (domain.Invoice, error) {
	userID, invoiceID, err := s.scope(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	current, err := s.store.FetchInvoice(ctx, userID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := lifecycle.Transition(current.Status, domain.StatusSent); err != nil {
		return domain.Invoice{}, err
	}
	sent := domain.StatusSent
	updated, err := s.store.UpdateInvoice(ctx, userID, invoiceID, current.Version, domain.InvoicePatch{Status: &sent})
	if err != nil {
		return domain.Invoice{}, err
	}
	return *updated, nil
}

func (s *Service) scope(ctx context.Context, id string) (string, snowflake.ID, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return "", 0, err
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return "", 0, domain.ErrInvalidInvoiceID
	}
	return userID, invoiceID, nil
}

func (s *Service) detail(ctx context.Context, inv domain.Invoice) (domain.InvoiceDetail, error) {
	items, err := s.store.FetchItems(ctx, inv.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	milestones, err := s.store.FetchMilestones(ctx, inv.ID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if items == nil {
		items = []domain.InvoiceItem{}
	}
	if milestones == nil {
		milestones = []domain.InvoiceMilestone{}
	}
	return domain.InvoiceDetail{Invoice: inv, Items: items, Milestones: milestones}, nil
}

// resolveClient checks that the client belongs to the caller. A blank id
// means no client.
func (s *Service) resolveClient(ctx context.Context, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	c, err := s.clientSvc.GetByID(ctx, raw)
	if err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) || errors.Is(err, clientdomain.ErrInvalidID) {
			return nil, domain.ErrInvalidClient
		}
		return nil, err
	}
	id := c.ID
	return &id, nil
}

func parseDate(raw string, invalid error) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, invalid
	}
	return lifecycle.DateOnly(t), nil
}

func parseCurrency(raw string) (money.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return money.DefaultCurrency, nil
	}
	currency, ok := money.ParseCurrency(raw)
	if !ok {
		return "", domain.ErrInvalidCurrency
	}
	return currency, nil
}

func parseEngagement(raw string) (domain.EngagementType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return domain.EngagementService, nil
	}
	engagement, ok := domain.ParseEngagementType(raw)
	if !ok {
		return "", domain.ErrInvalidEngagementType
	}
	return engagement, nil
}

func itemRows(reqs []domain.ItemRequest) ([]domain.InvoiceItem, error) {
	rows := make([]domain.InvoiceItem, 0, len(reqs))
	for _, req := range reqs {
		if anyNegative(req.Quantity, req.Rate, req.Amount) {
			return nil, domain.ErrInvalidAmount
		}
		amount := req.Amount
		if amount == 0 {
			amount = money.Multiply(req.Quantity, req.Rate)
		}
		rows = append(rows, domain.InvoiceItem{
			Description: strings.TrimSpace(req.Description),
			Quantity:    req.Quantity,
			Rate:        money.RoundMinor(req.Rate),
			Amount:      money.RoundMinor(amount),
		})
	}
	return rows, nil
}

func milestoneRows(reqs []domain.MilestoneRequest) ([]domain.InvoiceMilestone, error) {
	rows := make([]domain.InvoiceMilestone, 0, len(reqs))
	for _, req := range reqs {
		if req.Amount < 0 {
			return nil, domain.ErrInvalidAmount
		}
		rows = append(rows, domain.InvoiceMilestone{
			Name:   strings.TrimSpace(req.Name),
			Amount: money.RoundMinor(req.Amount),
		})
	}
	return rows, nil
}

func anyNegative(values ...float64) bool {
	for _, v := range values {
		if v < 0 {
			return true
		}
	}
	return false
}

func roundedPtr(value *float64) *float64 {
	if value == nil {
		return nil
	}
	rounded := money.RoundMinor(*value)
	return &rounded
}
