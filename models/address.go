package models

import (
	"time"

	"gorm.io/gorm"
)

// Address is a delivery address belonging to a user. At most one address per
// user is the default; see migrations/00001_single_default_address.sql.
type Address struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	AddressLine1 string         `gorm:"not null" json:"address_line1"`
	AddressLine2 *string        `json:"address_line2"`
	City         string         `gorm:"not null" json:"city"`
	State        string         `gorm:"not null" json:"state"`
	Country      string         `gorm:"not null;default:'India'" json:"country"`
	Pincode      string         `gorm:"not null;index" json:"pincode"`
	IsDefault    bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}
