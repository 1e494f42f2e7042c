package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/money"
)

// DefaultUSDToINRRate applies until the user saves their own rate.
const DefaultUSDToINRRate = 83.0

// CurrencySettings is the per-user reporting currency and conversion rate.
// Payment recording never reads it.
type CurrencySettings struct {
	UserID            string         `gorm:"primaryKey;type:text" json:"user_id"`
	PreferredCurrency money.Currency `gorm:"type:text;not null;default:'INR'" json:"preferred_currency"`
	USDToINRRate      float64        `gorm:"column:usd_to_inr_rate;type:numeric(14,4);not null" json:"usd_to_inr_rate"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CurrencySettings) TableName() string { return "currency_settings" }

// DefaultCurrencySettings is returned for users without a stored record.
func DefaultCurrencySettings(userID string) CurrencySettings {
	return CurrencySettings{
		UserID:            userID,
		PreferredCurrency: money.DefaultCurrency,
		USDToINRRate:      DefaultUSDToINRRate,
	}
}

// BusinessProfile holds issuer details and invoice branding.
type BusinessProfile struct {
	UserID         string    `gorm:"primaryKey;type:text" json:"user_id"`
	BusinessName   string    `gorm:"type:text" json:"business_name"`
	Address        string    `gorm:"type:text" json:"address"`
	PANNumber      string    `gorm:"type:text" json:"pan_number,omitempty"`
	Phone          string    `gorm:"type:text" json:"phone,omitempty"`
	LogoURL        string    `gorm:"type:text" json:"logo_url,omitempty"`
	PrimaryColor   string    `gorm:"type:text" json:"primary_color,omitempty"`
	SecondaryColor string    `gorm:"type:text" json:"secondary_color,omitempty"`
	FooterText     string    `gorm:"type:text" json:"footer_text,omitempty"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BusinessProfile) TableName() string { return "business_profiles" }

// Issuer returns the issuer section of an invoice preview. Blank fields are
// left for the normalizer to default.
func (p BusinessProfile) Issuer() invoicedomain.Issuer {
	return invoicedomain.Issuer{
		BusinessName:   p.BusinessName,
		Address:        p.Address,
		PANNumber:      p.PANNumber,
		Phone:          p.Phone,
		LogoURL:        p.LogoURL,
		PrimaryColor:   p.PrimaryColor,
		SecondaryColor: p.SecondaryColor,
		FooterText:     p.FooterText,
	}
}

// BankAccount is the payee account printed on invoices.
type BankAccount struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        string       `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	AccountHolder string       `gorm:"type:text;not null" json:"account_holder"`
	AccountNumber string       `gorm:"type:text;not null" json:"account_number"`
	IFSCCode      string       `gorm:"column:ifsc_code;type:text;not null" json:"ifsc_code"`
	BankName      string       `gorm:"type:text;not null" json:"bank_name"`
	Branch        string       `gorm:"type:text" json:"branch,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BankAccount) TableName() string { return "bank_accounts" }

func (b BankAccount) Banking() *invoicedomain.Banking {
	return &invoicedomain.Banking{
		AccountHolder: b.AccountHolder,
		AccountNumber: b.AccountNumber,
		IFSCCode:      b.IFSCCode,
		BankName:      b.BankName,
		Branch:        b.Branch,
	}
}
