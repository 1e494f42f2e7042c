package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/cache"
	"github.com/smallbiznis/invoicegen/internal/config"
	"github.com/smallbiznis/invoicegen/internal/migration"
	"github.com/smallbiznis/invoicegen/internal/money"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T, c cache.Cache[string, settingsdomain.CurrencySettings]) *Service {
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
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{SettingsCacheTTL: time.Minute},
		Cache: c,
	}).(*Service)
}

func TestCurrencyDefaultsAndUpdate(t *testing.T) {
	c := cache.NewTTLCache[string, settingsdomain.CurrencySettings](nil)
	svc := setupService(t, c)
	ctx := usercontext.WithUserID(context.Background(), "user-1")

	got, err := svc.Currency(ctx)
	if err != nil {
		t.Fatalf("currency: %v", err)
	}
	if got.PreferredCurrency != money.CurrencyINR || got.USDToINRRate != settingsdomain.DefaultUSDToINRRate {
		t.Fatalf("unexpected defaults %+v", got)
	}
	if _, ok := c.Get("user-1"); !ok {
		t.Fatalf("expected defaults to be cached")
	}

	updated, err := svc.UpdateCurrency(ctx, settingsdomain.UpdateCurrencyRequest{PreferredCurrency: "usd", USDToINRRate: 84.12345})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PreferredCurrency != money.CurrencyUSD || updated.USDToINRRate != 84.1235 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if _, ok := c.Get("user-1"); ok {
		t.Fatalf("expected cache entry to be invalidated")
	}

	if _, err := svc.UpdateCurrency(ctx, settingsdomain.UpdateCurrencyRequest{PreferredCurrency: "INR", USDToINRRate: 82}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	got, err = svc.Currency(ctx)
	if err != nil {
		t.Fatalf("currency: %v", err)
	}
	if got.PreferredCurrency != money.CurrencyINR || got.USDToINRRate != 82 {
		t.Fatalf("expected stored settings, got %+v", got)
	}
}

func TestUpdateCurrencyValidation(t *testing.T) {
	svc := setupService(t, nil)
	ctx := usercontext.WithUserID(context.Background(), "user-1")

	if _, err := svc.UpdateCurrency(ctx, settingsdomain.UpdateCurrencyRequest{PreferredCurrency: "EUR", USDToINRRate: 80}); !errors.Is(err, settingsdomain.ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
	if _, err := svc.UpdateCurrency(ctx, settingsdomain.UpdateCurrencyRequest{PreferredCurrency: "INR", USDToINRRate: 0}); !errors.Is(err, settingsdomain.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := svc.Currency(context.Background()); !errors.Is(err, usercontext.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestBusinessProfile(t *testing.T) {
	svc := setupService(t, nil)
	ctx := usercontext.WithUserID(context.Background(), "user-1")

	empty, err := svc.Business(ctx)
	if err != nil {
		t.Fatalf("business: %v", err)
	}
	if empty.UserID != "user-1" || empty.BusinessName != "" {
		t.Fatalf("expected empty profile, got %+v", empty)
	}

	if _, err := svc.UpdateBusiness(ctx, settingsdomain.UpdateBusinessRequest{PrimaryColor: "red"}); !errors.Is(err, settingsdomain.ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}

	if _, err := svc.UpdateBusiness(ctx, settingsdomain.UpdateBusinessRequest{BusinessName: " Acme Studio ", PANNumber: "abcde1234f", PrimaryColor: "#0f766e"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Business(ctx)
	if err != nil {
		t.Fatalf("business: %v", err)
	}
	if got.BusinessName != "Acme Studio" || got.PANNumber != "ABCDE1234F" || got.PrimaryColor != "#0f766e" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if got.Issuer().BusinessName != "Acme Studio" {
		t.Fatalf("expected issuer to carry business name")
	}
}

func TestBankAccount(t *testing.T) {
	svc := setupService(t, nil)
	ctx := usercontext.WithUserID(context.Background(), "user-1")

	account, err := svc.BankAccount(ctx)
	if err != nil {
		t.Fatalf("bank account: %v", err)
	}
	if account != nil {
		t.Fatalf("expected no account, got %+v", account)
	}

	req := settingsdomain.UpdateBankAccountRequest{
		AccountHolder: "Acme Studio",
		AccountNumber: "1234 5678 9012",
		IFSCCode:      "hdfc0001234",
		BankName:      "HDFC Bank",
	}
	first, err := svc.UpdateBankAccount(ctx, req)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.AccountNumber != "123456789012" || first.IFSCCode != "HDFC0001234" {
		t.Fatalf("unexpected account %+v", first)
	}

	req.Branch = "Andheri"
	second, err := svc.UpdateBankAccount(ctx, req)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if second.ID != first.ID || second.Branch != "Andheri" {
		t.Fatalf("expected in-place update, got %+v", second)
	}

	req.IFSCCode = "HDFC1234"
	if _, err := svc.UpdateBankAccount(ctx, req); !errors.Is(err, settingsdomain.ErrInvalidIFSC) {
		t.Fatalf("expected ErrInvalidIFSC, got %v", err)
	}
	req.IFSCCode = "HDFC0001234"
	req.AccountHolder = " "
	if _, err := svc.UpdateBankAccount(ctx, req); !errors.Is(err, settingsdomain.ErrInvalidBankAccount) {
		t.Fatalf("expected ErrInvalidBankAccount, got %v", err)
	}
}
