package models

import (
	"time"
)

// Prescription order statuses
const (
	OrderStatusProcessing = "processing"
	PaymentStatusPaid     = "paid"
)

// PrescriptionOrder is the order materialized from a paid invoice. InvoiceID is
// unique: one invoice yields at most one order, however many callbacks arrive.
type PrescriptionOrder struct {
	ID             uint                    `gorm:"primaryKey" json:"id"`
	OrderNumber    string                  `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID         uint                    `gorm:"not null;index" json:"user_id"`
	AddressID      uint                    `gorm:"not null" json:"address_id"`
	Address        Address                 `gorm:"foreignKey:AddressID" json:"address"`
	PrescriptionID uint                    `gorm:"not null;index" json:"prescription_id"`
	InvoiceID      uint                    `gorm:"not null;uniqueIndex" json:"invoice_id"`
	Status         string                  `gorm:"not null;default:'processing'" json:"status"`
	PaymentStatus  string                  `gorm:"not null" json:"payment_status"`
	PaymentID      string                  `gorm:"not null" json:"payment_id"`
	PaymentMethod  string                  `gorm:"not null" json:"payment_method"`
	Subtotal       int64                   `gorm:"not null" json:"subtotal"`     // paise
	DeliveryFee    int64                   `gorm:"not null" json:"delivery_fee"` // paise
	Discount       int64                   `gorm:"not null;default:0" json:"discount"`
	Total          int64                   `gorm:"not null" json:"total"` // paise
	Items          []PrescriptionOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func (PrescriptionOrder) TableName() string {
	return "prescription_orders"
}

// PrescriptionOrderItem is a snapshot of an invoice line taken when the order
// was placed. It carries no reference back to the invoice item.
type PrescriptionOrderItem struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OrderID            uint      `gorm:"not null;index" json:"order_id"`
	MedicationName     string    `gorm:"not null" json:"medication_name"`
	Strength           string    `json:"strength"`
	Form               string    `json:"form"`
	Quantity           int       `gorm:"not null" json:"quantity"`
	UnitPrice          int64     `gorm:"not null" json:"unit_price"`
	TotalPrice         int64     `gorm:"not null" json:"total_price"`
	IsSubstitute       bool      `gorm:"not null;default:false" json:"is_substitute"`
	OriginalMedication *string   `json:"original_medication"`
	DosageInstructions *string   `json:"dosage_instructions"`
	CreatedAt          time.Time `json:"created_at"`
}

func (PrescriptionOrderItem) TableName() string {
	return "prescription_order_items"
}

// SnapshotOf copies an invoice line into a new order line.
func SnapshotOf(orderID uint, it PrescriptionInvoiceItem) PrescriptionOrderItem {
	return PrescriptionOrderItem{
		OrderID:            orderID,
		MedicationName:     it.MedicationName,
		Strength:           it.Strength,
		Form:               it.Form,
		Quantity:           it.Quantity,
		UnitPrice:          it.UnitPrice,
		TotalPrice:         it.TotalPrice,
		IsSubstitute:       it.IsSubstitute,
		OriginalMedication: cloneString(it.OriginalMedication),
		DosageInstructions: cloneString(it.DosageInstructions),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
