package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment attempt statuses
const (
	AttemptCreated  = "created"
	AttemptVerified = "verified"
)

// PaymentAttempt records a gateway order created for an invoice. The verify
// step reads amount, address and delivery fee from here instead of trusting
// values echoed back by the client.
type PaymentAttempt struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	GatewayOrderID string            `gorm:"uniqueIndex;not null" json:"gateway_order_id"`
	UserID         uint              `gorm:"not null;index" json:"user_id"`
	InvoiceID      uint              `gorm:"not null;index" json:"invoice_id"`
	AddressID      uint              `gorm:"not null" json:"address_id"`
	Amount         int64             `gorm:"not null" json:"amount"`       // paise
	DeliveryFee    int64             `gorm:"not null" json:"delivery_fee"` // paise
	Currency       string            `gorm:"not null;default:'INR'" json:"currency"`
	Receipt        string            `gorm:"not null" json:"receipt"`
	Notes          datatypes.JSONMap `json:"notes"`
	Status         string            `gorm:"not null;default:'created'" json:"status"`
	PaymentID      *string           `json:"payment_id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

// Pending materialization statuses
const (
	MaterializationPending = "pending"
	MaterializationDone    = "done"
	MaterializationFailed  = "failed"
)

// PendingMaterialization is an outbox row written when a verified payment could
// not be turned into an order. The reconciler retries it until done or failed.
type PendingMaterialization struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InvoiceID      uint      `gorm:"not null;uniqueIndex" json:"invoice_id"`
	UserID         uint      `gorm:"not null" json:"user_id"`
	GatewayOrderID string    `gorm:"not null" json:"gateway_order_id"`
	PaymentID      string    `gorm:"not null" json:"payment_id"`
	AddressID      *uint     `json:"address_id"`
	DeliveryFee    int64     `gorm:"not null;default:0" json:"delivery_fee"`
	Status         string    `gorm:"not null;default:'pending'" json:"status"`
	Attempts       int       `gorm:"not null;default:0" json:"attempts"`
	LastError      string    `json:"last_error"`
	NextAttemptAt  time.Time `gorm:"not null" json:"next_attempt_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PendingMaterialization) TableName() string {
	return "pending_materializations"
}
