package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/events"
	"github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/lifecycle"
	"github.com/smallbiznis/invoicegen/internal/money"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// contentColumns are the invoice columns an upsert replaces. Status and
// payment columns survive a replacement along with the payment history.
var contentColumns = []string{
	"client_id",
	"issue_date",
	"due_date",
	"subtotal",
	"tax",
	"total",
	"tax_percentage",
	"notes",
	"currency",
	"engagement_type",
	"version",
	"updated_at",
}

type Params struct {
	fx.In

	DB     *gorm.DB
	GenID  *snowflake.Node
	Outbox *events.Outbox
}

type repo struct {
	db     *gorm.DB
	genID  *snowflake.Node
	outbox *events.Outbox
}

func Provide(p Params) domain.Store {
	return New(p.DB, p.GenID, p.Outbox)
}

func New(db *gorm.DB, genID *snowflake.Node, outbox *events.Outbox) domain.Store {
	return &repo{db: db, genID: genID, outbox: outbox}
}

func (r *repo) FetchInvoice(ctx context.Context, userID string, id snowflake.ID) (*domain.Invoice, error) {
	inv, err := findInvoice(r.db.WithContext(ctx), userID, id)
	return inv, domain.WrapStoreError("fetch invoice", err)
}

func (r *repo) FetchItems(ctx context.Context, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, domain.WrapStoreError("fetch items", err)
	}
	return items, nil
}

func (r *repo) FetchMilestones(ctx context.Context, invoiceID snowflake.ID) ([]domain.InvoiceMilestone, error) {
	var milestones []domain.InvoiceMilestone
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC, id ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, domain.WrapStoreError("fetch milestones", err)
	}
	return milestones, nil
}

func (r *repo) ListInvoices(ctx context.Context, filter domain.ListFilter) ([]domain.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	var invoices []domain.Invoice
	if err := query.Order("issue_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, domain.WrapStoreError("list invoices", err)
	}
	return invoices, nil
}

func (r *repo) CreateInvoice(ctx context.Context, invoice *domain.Invoice, items []domain.InvoiceItem, milestones []domain.InvoiceMilestone) (domain.UpsertResult, error) {
	var result domain.UpsertResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Invoice
		found := lockForUpdate(tx).
			Where("user_id = ? AND invoice_number = ?", invoice.UserID, invoice.InvoiceNumber).
			Limit(1).
			Find(&existing)
		if found.Error != nil {
			return found.Error
		}

		now := time.Now().UTC()
		invoice.UpdatedAt = now
		eventType := events.EventInvoiceCreated

		if found.RowsAffected > 0 {
			if err := guardPaid(&existing, &invoice.Total, &invoice.Currency); err != nil {
				return err
			}
			invoice.ID = existing.ID
			invoice.Version = existing.Version + 1
			invoice.CreatedAt = existing.CreatedAt
			invoice.Status = existing.Status
			invoice.PaymentDate = existing.PaymentDate
			invoice.PaymentMethod = existing.PaymentMethod
			invoice.PaymentReference = existing.PaymentReference
			invoice.IsPartiallyPaid = existing.IsPartiallyPaid
			invoice.PartiallyPaidAmount = existing.PartiallyPaidAmount

			update := tx.Model(&domain.Invoice{}).
				Where("id = ? AND version = ?", existing.ID, existing.Version).
				Select(contentColumns).
				Updates(invoice)
			if update.Error != nil {
				return update.Error
			}
			if update.RowsAffected == 0 {
				return domain.ErrVersionConflict
			}
			if err := r.deleteCollections(tx, existing.ID); err != nil {
				return err
			}
			result.Replaced = true
			eventType = events.EventInvoiceUpdated
		} else {
			invoice.ID = r.genID.Generate()
			invoice.Version = 1
			invoice.CreatedAt = now
			if invoice.Status == "" {
				invoice.Status = domain.StatusDraft
			}
			if err := tx.Create(invoice).Error; err != nil {
				return err
			}
		}

		if err := r.insertCollections(tx, invoice.ID, items, milestones); err != nil {
			return err
		}
		if err := r.publish(ctx, tx, eventType, invoice); err != nil {
			return err
		}
		result.Invoice = *invoice
		return nil
	})
	if err != nil {
		return domain.UpsertResult{}, domain.WrapStoreError("create invoice", err)
	}
	return result, nil
}

func (r *repo) UpdateInvoice(ctx context.Context, userID string, id snowflake.ID, expectedVersion int64, patch domain.InvoicePatch) (*domain.Invoice, error) {
	var updated *domain.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findInvoice(lockForUpdate(tx), userID, id)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		if patch.IsEmpty() {
			updated = current
			return nil
		}
		if err := guardPaid(current, patch.Total, patch.Currency); err != nil {
			return err
		}

		cols := patch.Columns()
		cols["version"] = current.Version + 1
		cols["updated_at"] = time.Now().UTC()
		if err := bumpVersion(tx, current, cols); err != nil {
			return err
		}

		if patch.Items != nil || patch.Milestones != nil {
			var items []domain.InvoiceItem
			var milestones []domain.InvoiceMilestone
			if patch.Items != nil {
				items = *patch.Items
				if err := tx.Where("invoice_id = ?", id).Delete(&domain.InvoiceItem{}).Error; err != nil {
					return err
				}
			}
			if patch.Milestones != nil {
				milestones = *patch.Milestones
				if err := tx.Where("invoice_id = ?", id).Delete(&domain.InvoiceMilestone{}).Error; err != nil {
					return err
				}
			}
			if err := r.insertCollections(tx, id, items, milestones); err != nil {
				return err
			}
		}

		updated, err = findInvoice(tx, userID, id)
		if err != nil {
			return err
		}
		eventType := events.EventInvoiceUpdated
		if patch.Status != nil && *patch.Status == domain.StatusSent {
			eventType = events.EventInvoiceSent
		}
		return r.publish(ctx, tx, eventType, updated)
	})
	if err != nil {
		return nil, domain.WrapStoreError("update invoice", err)
	}
	return updated, nil
}

func (r *repo) DeleteInvoice(ctx context.Context, userID string, id snowflake.ID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findInvoice(lockForUpdate(tx), userID, id)
		if err != nil {
			return err
		}
		if err := r.deleteCollections(tx, id); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Invoice{}).Error; err != nil {
			return err
		}
		return r.publish(ctx, tx, events.EventInvoiceDeleted, current)
	})
	return domain.WrapStoreError("delete invoice", err)
}

func (r *repo) ApplyPayment(ctx context.Context, userID string, id snowflake.ID, expectedVersion int64, updates domain.PaymentUpdates, payment *domain.Payment) (*domain.Invoice, error) {
	var updated *domain.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findInvoice(lockForUpdate(tx), userID, id)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		if err := lifecycle.Transition(current.Status, updates.Status); err != nil {
			return err
		}

		now := time.Now().UTC()
		cols := updates.Columns()
		cols["version"] = current.Version + 1
		cols["updated_at"] = now
		if err := bumpVersion(tx, current, cols); err != nil {
			return err
		}

		if payment != nil {
			if payment.ID == 0 {
				payment.ID = r.genID.Generate()
			}
			payment.InvoiceID = id
			payment.UserID = userID
			payment.CreatedAt = now
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
		}

		updated, err = findInvoice(tx, userID, id)
		if err != nil {
			return err
		}

		payload := events.PaymentPayload{InvoicePayload: invoicePayload(updated)}
		if payment != nil {
			payload.PaymentID = payment.ID.String()
			payload.Amount = payment.Amount
			payload.Method = payment.Method
			payload.IsPartial = payment.IsPartial
		}
		return r.outbox.PublishTx(ctx, tx, events.Event{
			UserID:    userID,
			Type:      events.EventInvoicePaymentRecorded,
			Payload:   payload.ToMap(),
			DedupeKey: events.VersionKey(events.EventInvoicePaymentRecorded, updated.ID, updated.Version),
		})
	})
	if err != nil {
		return nil, domain.WrapStoreError("apply payment", err)
	}
	return updated, nil
}

func (r *repo) ListPayments(ctx context.Context, userID string, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND invoice_id = ?", userID, invoiceID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, domain.WrapStoreError("list payments", err)
	}
	return payments, nil
}

// MarkOverdue moves the given invoices to overdue when they are still sent or
// partially paid. An empty userID matches every user.
func (r *repo) MarkOverdue(ctx context.Context, userID string, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var marked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("id IN ? AND status IN ?", ids, []domain.Status{domain.StatusSent, domain.StatusPartiallyPaid})
		if userID != "" {
			query = query.Where("user_id = ?", userID)
		}
		var candidates []domain.Invoice
		if err := query.Find(&candidates).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := range candidates {
			inv := &candidates[i]
			res := tx.Model(&domain.Invoice{}).
				Where("id = ? AND version = ?", inv.ID, inv.Version).
				Updates(map[string]any{
					"status":     domain.StatusOverdue,
					"version":    inv.Version + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			inv.Status = domain.StatusOverdue
			inv.Version++
			if err := r.publish(ctx, tx, events.EventInvoiceOverdue, inv); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, domain.WrapStoreError("mark overdue", err)
	}
	return marked, nil
}

func (r *repo) insertCollections(tx *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem, milestones []domain.InvoiceMilestone) error {
	now := time.Now().UTC()
	if len(items) > 0 {
		rows := make([]domain.InvoiceItem, len(items))
		for i, item := range items {
			item.ID = r.genID.Generate()
			item.InvoiceID = invoiceID
			item.Position = i
			item.CreatedAt = now
			rows[i] = item
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(milestones) > 0 {
		rows := make([]domain.InvoiceMilestone, len(milestones))
		for i, m := range milestones {
			m.ID = r.genID.Generate()
			m.InvoiceID = invoiceID
			m.Position = i
			m.CreatedAt = now
			rows[i] = m
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) deleteCollections(tx *gorm.DB, invoiceID snowflake.ID) error {
	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&domain.InvoiceItem{}).Error; err != nil {
		return err
	}
	return tx.Where("invoice_id = ?", invoiceID).Delete(&domain.InvoiceMilestone{}).Error
}

func (r *repo) publish(ctx context.Context, tx *gorm.DB, eventType string, inv *domain.Invoice) error {
	return r.outbox.PublishTx(ctx, tx, events.Event{
		UserID:    inv.UserID,
		Type:      eventType,
		Payload:   invoicePayload(inv).ToMap(),
		DedupeKey: events.VersionKey(eventType, inv.ID, inv.Version),
	})
}

func invoicePayload(inv *domain.Invoice) events.InvoicePayload {
	return events.InvoicePayload{
		InvoiceID:     inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
		Total:         inv.Total,
		Currency:      string(inv.Currency),
		Version:       inv.Version,
	}
}

// guardPaid rejects a total or currency change that would contradict money
// already recorded against current. A nil total or currency is unchanged.
func guardPaid(current *domain.Invoice, total *float64, currency *money.Currency) error {
	paid := current.Status == domain.StatusPaid || current.PartiallyPaidAmount != nil
	if !paid {
		return nil
	}
	if currency != nil && *currency != "" && *currency != current.Currency {
		return domain.ErrCurrencyLocked
	}
	if total == nil {
		return nil
	}
	next := money.Decimal(*total)
	if current.Status == domain.StatusPaid {
		if next.LessThan(money.Decimal(current.Total)) {
			return domain.ErrTotalBelowPaid
		}
		return nil
	}
	if next.LessThanOrEqual(money.Decimal(*current.PartiallyPaidAmount)) {
		return domain.ErrTotalBelowPaid
	}
	return nil
}

// bumpVersion applies cols only if the row still carries the version read
// under lock. Dialects without row locks rely on this check alone.
func bumpVersion(tx *gorm.DB, current *domain.Invoice, cols map[string]any) error {
	res := tx.Model(&domain.Invoice{}).
		Where("id = ? AND version = ?", current.ID, current.Version).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func findInvoice(db *gorm.DB, userID string, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	query := db.Where("id = ?", id)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	res := query.Limit(1).Find(&inv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
