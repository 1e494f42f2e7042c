// Package migration creates and updates the database schema.
package migration

import (
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	"github.com/smallbiznis/invoicegen/internal/events"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every persisted model.
func Models() []any {
	return []any{
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.InvoiceMilestone{},
		&invoicedomain.Payment{},
		&settingsdomain.CurrencySettings{},
		&settingsdomain.BusinessProfile{},
		&settingsdomain.BankAccount{},
		&events.Record{},
	}
}

// Run brings the schema up to date.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

var Module = fx.Module("migration",
	fx.Invoke(func(db *gorm.DB, log *zap.Logger) error {
		if err := Run(db); err != nil {
			return err
		}
		log.Named("migration").Info("schema migrated")
		return nil
	}),
)
