// Package seed creates a ready-to-use workspace for local development.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"gorm.io/gorm"
)

const (
	demoBusinessName = "Demo Studio"
	demoAddress      = "12 MG Road, Bengaluru, Karnataka 560001"
	demoClientName   = "Acme Technologies Pvt Ltd"
	demoClientEmail  = "accounts@acme.example"
)

// EnsureDemoWorkspace seeds settings and one client for userID. Existing
// rows are left as they are, so the call is safe to repeat.
func EnsureDemoWorkspace(ctx context.Context, db *gorm.DB, node *snowflake.Node, userID string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return invoicedomain.ErrInvalidUser
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var currency settingsdomain.CurrencySettings
		err := tx.Where("user_id = ?", userID).First(&currency).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			currency = settingsdomain.DefaultCurrencySettings(userID)
			currency.UpdatedAt = now
			err = tx.Create(&currency).Error
		}
		if err != nil {
			return err
		}

		var profile settingsdomain.BusinessProfile
		err = tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = settingsdomain.BusinessProfile{
				UserID:         userID,
				BusinessName:   demoBusinessName,
				Address:        demoAddress,
				PrimaryColor:   invoicedomain.DefaultPrimaryColor,
				SecondaryColor: invoicedomain.DefaultSecondaryColor,
				FooterText:     invoicedomain.DefaultFooterText,
				UpdatedAt:      now,
			}
			err = tx.Create(&profile).Error
		}
		if err != nil {
			return err
		}

		var account settingsdomain.BankAccount
		err = tx.Where("user_id = ?", userID).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			account = settingsdomain.BankAccount{
				ID:            node.Generate(),
				UserID:        userID,
				AccountHolder: demoBusinessName,
				AccountNumber: "000111222333",
				IFSCCode:      "HDFC0000001",
				BankName:      "HDFC Bank",
				Branch:        "MG Road",
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			err = tx.Create(&account).Error
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&clientdomain.Client{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&clientdomain.Client{
			ID:             node.Generate(),
			UserID:         userID,
			Name:           demoClientName,
			BillingAddress: "4th Floor, Tech Park, Pune 411014",
			Email:          demoClientEmail,
			CreatedAt:      now,
			UpdatedAt:      now,
		}).Error
	})
}
