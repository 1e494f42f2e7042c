package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOutboxUnavailable  = errors.New("outbox_unavailable")
	ErrMissingTransaction = errors.New("missing_transaction")
	ErrInvalidUserID      = errors.New("invalid_user_id")
	ErrMissingEventType   = errors.New("missing_event_type")
)

const defaultPendingLimit = 100

// Event is an invoice change waiting to be written to the outbox.
type Event struct {
	UserID    string
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox stores invoice events in invoice_events. Writers publish inside
// the transaction that made the change; a relay drains Pending and marks
// what it delivered.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish writes outside any transaction.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	if o == nil {
		return ErrOutboxUnavailable
	}
	return o.insert(ctx, o.db, event)
}

// PublishTx writes within tx, so the event commits or rolls back with the
// invoice change.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return ErrMissingTransaction
	}
	return o.insert(ctx, tx, event)
}

// Pending lists undelivered events oldest first. An empty userID lists
// every user's events.
func (o *Outbox) Pending(ctx context.Context, userID string, limit int) ([]Record, error) {
	if o == nil || o.db == nil {
		return nil, ErrOutboxUnavailable
	}
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	q := o.db.WithContext(ctx).Where("published = ?", false)
	if userID = strings.TrimSpace(userID); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var records []Record
	err := q.Order("created_at ASC").Order("id ASC").Limit(limit).Find(&records).Error
	return records, err
}

// MarkPublished flags delivered events and reports how many changed.
func (o *Outbox) MarkPublished(ctx context.Context, ids []snowflake.ID) (int64, error) {
	if o == nil || o.db == nil {
		return 0, ErrOutboxUnavailable
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := o.db.WithContext(ctx).Model(&Record{}).
		Where("id IN ? AND published = ?", ids, false).
		Update("published", true)
	return res.RowsAffected, res.Error
}

// insert skips events whose dedupe key was already stored for the user.
func (o *Outbox) insert(ctx context.Context, db *gorm.DB, event Event) error {
	if db == nil || o.genID == nil {
		return ErrOutboxUnavailable
	}
	rec := Record{
		ID:        o.genID.Generate(),
		UserID:    strings.TrimSpace(event.UserID),
		EventType: strings.TrimSpace(event.Type),
		Payload:   datatypes.JSONMap{},
		CreatedAt: time.Now().UTC(),
	}
	if rec.UserID == "" {
		return ErrInvalidUserID
	}
	if rec.EventType == "" {
		return ErrMissingEventType
	}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) != "" {
			rec.Payload[key] = value
		}
	}
	if key := strings.TrimSpace(event.DedupeKey); key != "" {
		rec.DedupeKey = &key
	}

	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&rec).Error
}
