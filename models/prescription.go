package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Prescription statuses
const (
	PrescriptionPending   = "pending"
	PrescriptionVerified  = "verified"
	PrescriptionRejected  = "rejected"
	PrescriptionInvoiced  = "invoiced"
	PrescriptionFulfilled = "fulfilled"
)

// Prescription is an uploaded prescription document awaiting or past pharmacist review
type Prescription struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	User              User           `gorm:"foreignKey:UserID" json:"-"`
	// Storage key, never sent to clients
	FileURL           string         `gorm:"not null" json:"-"`
	// Computed authenticated proxy path
	FileAccessURL     string         `gorm:"-" json:"file_access_url,omitempty"`
	Status            string         `gorm:"not null;default:'pending';index" json:"status"`
	VerificationNotes *string        `json:"verification_notes"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Prescription model
func (Prescription) TableName() string {
	return "prescriptions"
}

// AccessPath returns the authenticated proxy path for the prescription file.
func (p Prescription) AccessPath() string {
	return fmt.Sprintf("/api/v1/prescriptions/%d/file", p.ID)
}
