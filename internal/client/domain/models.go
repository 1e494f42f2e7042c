package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
)

// Client is a billed party owned by a user.
type Client struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID         string       `gorm:"type:text;not null;index" json:"user_id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	CompanyName    string       `gorm:"type:text" json:"company_name,omitempty"`
	BillingAddress string       `gorm:"type:text" json:"billing_address,omitempty"`
	Email          string       `gorm:"type:text" json:"email,omitempty"`
	Phone          string       `gorm:"type:text" json:"phone,omitempty"`
	GSTNumber      string       `gorm:"type:text" json:"gst_number,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }

// Preview returns the client section of an invoice preview.
func (c Client) Preview() invoicedomain.Client {
	return invoicedomain.Client{
		Name:           c.Name,
		CompanyName:    c.CompanyName,
		BillingAddress: c.BillingAddress,
		Email:          c.Email,
		Phone:          c.Phone,
		GSTNumber:      c.GSTNumber,
	}
}
