package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) clientdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req clientdomain.CreateRequest) (*clientdomain.Client, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := clientdomain.Client{
		ID:             s.genID.Generate(),
		UserID:         userID,
		Name:           strings.TrimSpace(req.Name),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		BillingAddress: strings.TrimSpace(req.BillingAddress),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		GSTNumber:      strings.ToUpper(strings.TrimSpace(req.GSTNumber)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context, req clientdomain.ListRequest) ([]clientdomain.Client, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if name := strings.TrimSpace(req.Name); name != "" {
		like := "%" + strings.ToLower(name) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company_name) LIKE ?", like, like)
	}

	var clients []clientdomain.Client
	if err := query.Order("name ASC, id ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*clientdomain.Client, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	clientID, err := clientdomain.ParseID(id)
	if err != nil {
		return nil, clientdomain.ErrInvalidID
	}
	return s.find(ctx, s.db, userID, clientID)
}

func (s *Service) Update(ctx context.Context, req clientdomain.UpdateRequest) (*clientdomain.Client, error) {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	clientID, err := clientdomain.ParseID(req.ID)
	if err != nil {
		return nil, clientdomain.ErrInvalidID
	}

	var updated *clientdomain.Client
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.find(ctx, tx, userID, clientID)
		if err != nil {
			return err
		}
		apply(&current.Name, req.Name)
		apply(&current.CompanyName, req.CompanyName)
		apply(&current.BillingAddress, req.BillingAddress)
		apply(&current.Email, req.Email)
		apply(&current.Phone, req.Phone)
		apply(&current.GSTNumber, req.GSTNumber)
		current.GSTNumber = strings.ToUpper(current.GSTNumber)
		current.UpdatedAt = time.Now().UTC()
		if err := validate(*current); err != nil {
			return err
		}
		if err := tx.Save(current).Error; err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete refuses to remove clients still referenced by invoices.
func (s *Service) Delete(ctx context.Context, id string) error {
	userID, err := usercontext.RequireUserID(ctx)
	if err != nil {
		return err
	}
	clientID, err := clientdomain.ParseID(id)
	if err != nil {
		return clientdomain.ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, userID, clientID); err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("user_id = ? AND client_id = ?", userID, clientID).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return clientdomain.ErrClientHasInvoices
		}
		if err := tx.Where("id = ? AND user_id = ?", clientID, userID).Delete(&clientdomain.Client{}).Error; err != nil {
			return err
		}
		s.log.Info("client deleted", zap.String("client_id", clientID.String()))
		return nil
	})
}

func (s *Service) find(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*clientdomain.Client, error) {
	var c clientdomain.Client
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, clientdomain.ErrNotFound
	}
	return &c, nil
}

func validate(c clientdomain.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return clientdomain.ErrInvalidName
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return errors.Join(clientdomain.ErrInvalidEmail, err)
		}
	}
	return nil
}

func apply(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
