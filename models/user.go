package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleCustomer   = "customer"
	RolePharmacist = "pharmacist"
)

// User represents a storefront user (customer or pharmacist)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsPharmacist reports whether the user may act on other users' prescriptions
func (u User) IsPharmacist() bool {
	return u.Role == RolePharmacist
}
