package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	Name           string `json:"name"`
	CompanyName    string `json:"company_name"`
	BillingAddress string `json:"billing_address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	GSTNumber      string `json:"gst_number"`
}

type UpdateRequest struct {
	ID             string  `json:"-"`
	Name           *string `json:"name"`
	CompanyName    *string `json:"company_name"`
	BillingAddress *string `json:"billing_address"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	GSTNumber      *string `json:"gst_number"`
}

type ListRequest struct {
	Name string `form:"name"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Client, error)
	List(ctx context.Context, req ListRequest) ([]Client, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	Update(ctx context.Context, req UpdateRequest) (*Client, error)
	Delete(ctx context.Context, id string) error
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID         = errors.New("invalid_client_id")
	ErrInvalidName       = errors.New("invalid_client_name")
	ErrInvalidEmail      = errors.New("invalid_client_email")
	ErrNotFound          = errors.New("client_not_found")
	ErrClientHasInvoices = errors.New("client_has_invoices")
)
