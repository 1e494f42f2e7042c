package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/cache"
	"github.com/smallbiznis/invoicegen/internal/config"
	"github.com/smallbiznis/invoicegen/internal/money"
	"github.com/smallbiznis/invoicegen/internal/observability/logger"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	ifscPattern     = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config                                        `optional:"true"`
	Cache cache.Cache[string, settingsdomain.CurrencySettings] `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cache    cache.Cache[string, settingsdomain.CurrencySettings]
	cacheTTL time.Duration
}

func NewService(p Params) settingsdomain.Service {
	c := p.Cache
	if c == nil {
		c = cache.NoopCache[string, settingsdomain.CurrencySettings]{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("settings.service"),
		genID:    p.GenID,
		cache:    c,
		cacheTTL: p.Cfg.SettingsCacheTTL,
	}
}

func (s *Service) Currency(ctx context.Context) (settingsdomain.CurrencySettings, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return settingsdomain.CurrencySettings{}, err
	}
	if cached, ok := s.cache.Get(userID); ok {
		return cached, nil
	}

	var row settingsdomain.CurrencySettings
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&row)
	if res.Error != nil {
		return settingsdomain.CurrencySettings{}, res.Error
	}
	if res.RowsAffected == 0 {
		row = settingsdomain.DefaultCurrencySettings(userID)
	}
	s.cache.Set(userID, row, s.cacheTTL)
	return row, nil
}

func (s *Service) UpdateCurrency(ctx context.Context, req settingsdomain.UpdateCurrencyRequest) (settingsdomain.CurrencySettings, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return settingsdomain.CurrencySettings{}, err
	}
	currency, ok := money.ParseCurrency(req.PreferredCurrency)
	if !ok {
		return settingsdomain.CurrencySettings{}, settingsdomain.ErrInvalidCurrency
	}
	if req.USDToINRRate <= 0 {
		return settingsdomain.CurrencySettings{}, settingsdomain.ErrInvalidRate
	}

	row := settingsdomain.CurrencySettings{
		UserID:            userID,
		PreferredCurrency: currency,
		USDToINRRate:      money.Round(req.USDToINRRate, 4),
		UpdatedAt:         time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"preferred_currency", "usd_to_inr_rate", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return settingsdomain.CurrencySettings{}, err
	}
	s.cache.Delete(userID)
	s.log.Info("currency settings updated",
		zap.String("user_id", userID),
		zap.String("preferred_currency", string(currency)),
	)
	return row, nil
}

func (s *Service) Business(ctx context.Context) (settingsdomain.BusinessProfile, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return settingsdomain.BusinessProfile{}, err
	}
	var row settingsdomain.BusinessProfile
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&row)
	if res.Error != nil {
		return settingsdomain.BusinessProfile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return settingsdomain.BusinessProfile{UserID: userID}, nil
	}
	return row, nil
}

func (s *Service) UpdateBusiness(ctx context.Context, req settingsdomain.UpdateBusinessRequest) (settingsdomain.BusinessProfile, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return settingsdomain.BusinessProfile{}, err
	}
	row := settingsdomain.BusinessProfile{
		UserID:         userID,
		BusinessName:   strings.TrimSpace(req.BusinessName),
		Address:        strings.TrimSpace(req.Address),
		PANNumber:      strings.ToUpper(strings.TrimSpace(req.PANNumber)),
		Phone:          strings.TrimSpace(req.Phone),
		LogoURL:        strings.TrimSpace(req.LogoURL),
		PrimaryColor:   strings.TrimSpace(req.PrimaryColor),
		SecondaryColor: strings.TrimSpace(req.SecondaryColor),
		FooterText:     strings.TrimSpace(req.FooterText),
		UpdatedAt:      time.Now().UTC(),
	}
	for _, color := range []string{row.PrimaryColor, row.SecondaryColor} {
		if color != "" && !hexColorPattern.MatchString(color) {
			return settingsdomain.BusinessProfile{}, settingsdomain.ErrInvalidColor
		}
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_name", "address", "pan_number", "phone", "logo_url",
			"primary_color", "secondary_color", "footer_text", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return settingsdomain.BusinessProfile{}, err
	}
	return row, nil
}

func (s *Service) BankAccount(ctx context.Context) (*settingsdomain.BankAccount, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.findBankAccount(ctx, s.db, userID)
}

func (s *Service) UpdateBankAccount(ctx context.Context, req settingsdomain.UpdateBankAccountRequest) (*settingsdomain.BankAccount, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	ifsc := strings.ToUpper(strings.TrimSpace(req.IFSCCode))
	if !ifscPattern.MatchString(ifsc) {
		return nil, settingsdomain.ErrInvalidIFSC
	}
	holder := strings.TrimSpace(req.AccountHolder)
	number := strings.ReplaceAll(strings.TrimSpace(req.AccountNumber), " ", "")
	bank := strings.TrimSpace(req.BankName)
	if holder == "" || number == "" || bank == "" {
		return nil, settingsdomain.ErrInvalidBankAccount
	}

	var saved *settingsdomain.BankAccount
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.findBankAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		isNew := current == nil
		if isNew {
			current = &settingsdomain.BankAccount{
				ID:        s.genID.Generate(),
				UserID:    userID,
				CreatedAt: now,
			}
		}
		current.AccountHolder = holder
		current.AccountNumber = number
		current.IFSCCode = ifsc
		current.BankName = bank
		current.Branch = strings.TrimSpace(req.Branch)
		current.UpdatedAt = now

		write := tx.Save
		if isNew {
			write = tx.Create
		}
		if err := write(current).Error; err != nil {
			return err
		}
		saved = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("bank account saved",
		zap.String("user_id", userID),
		zap.String("account_number", logger.MaskAccountNumber(saved.AccountNumber)),
		zap.String("ifsc_code", logger.MaskIFSC(saved.IFSCCode)),
	)
	return saved, nil
}

func (s *Service) findBankAccount(ctx context.Context, db *gorm.DB, userID string) (*settingsdomain.BankAccount, error) {
	var row settingsdomain.BankAccount
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
