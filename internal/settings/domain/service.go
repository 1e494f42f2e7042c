package domain

import (
	"context"
	"errors"
)

type UpdateCurrencyRequest struct {
	PreferredCurrency string  `json:"preferred_currency"`
	USDToINRRate      float64 `json:"usd_to_inr_rate"`
}

type UpdateBusinessRequest struct {
	BusinessName   string `json:"business_name"`
	Address        string `json:"address"`
	PANNumber      string `json:"pan_number"`
	Phone          string `json:"phone"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FooterText     string `json:"footer_text"`
}

type UpdateBankAccountRequest struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name"`
	Branch        string `json:"branch"`
}

// Service reads and writes the caller's settings. Getters return defaults
// when nothing is stored; BankAccount returns nil in that case.
type Service interface {
	Currency(ctx context.Context) (CurrencySettings, error)
	UpdateCurrency(ctx context.Context, req UpdateCurrencyRequest) (CurrencySettings, error)
	Business(ctx context.Context) (BusinessProfile, error)
	UpdateBusiness(ctx context.Context, req UpdateBusinessRequest) (BusinessProfile, error)
	BankAccount(ctx context.Context) (*BankAccount, error)
	UpdateBankAccount(ctx context.Context, req UpdateBankAccountRequest) (*BankAccount, error)
}

var (
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidRate        = errors.New("invalid_usd_to_inr_rate")
	ErrInvalidColor       = errors.New("invalid_color")
	ErrInvalidBankAccount = errors.New("invalid_bank_account")
	ErrInvalidIFSC        = errors.New("invalid_ifsc_code")
)
