package models

import (
	"fmt"
	"time"
)

// Invoice statuses. An invoice only ever moves forward: draft -> sent -> paid.
// A superseded invoice has been replaced by a newer one for the same prescription.
const (
	InvoiceDraft      = "draft"
	InvoiceSent       = "sent"
	InvoicePaid       = "paid"
	InvoiceSuperseded = "superseded"
)

var invoiceRank = map[string]int{
	InvoiceDraft: 0,
	InvoiceSent:  1,
	InvoicePaid:  2,
}

// PrescriptionInvoice is the pharmacist's priced response to a prescription
type PrescriptionInvoice struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	PrescriptionID uint                      `gorm:"not null;index" json:"prescription_id"`
	Status         string                    `gorm:"not null;default:'draft'" json:"status"`
	TotalAmount    int64                     `gorm:"not null;check:total_amount >= 0" json:"total_amount"` // paise
	Items          []PrescriptionInvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// TableName specifies the table name for the PrescriptionInvoice model
func (PrescriptionInvoice) TableName() string {
	return "prescription_invoices"
}

// CanTransitionTo reports whether moving from the current status to next keeps
// the invoice lifecycle monotonic. Paid invoices never change again.
func (inv PrescriptionInvoice) CanTransitionTo(next string) bool {
	if inv.Status == InvoicePaid {
		return false
	}
	if next == InvoiceSuperseded {
		return true
	}
	from, okFrom := invoiceRank[inv.Status]
	to, okTo := invoiceRank[next]
	return okFrom && okTo && to > from
}

// PrescriptionInvoiceItem is one priced medication line on an invoice
type PrescriptionInvoiceItem struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	InvoiceID          uint      `gorm:"not null;index" json:"invoice_id"`
	MedicationName     string    `gorm:"not null" json:"medication_name"`
	Strength           string    `json:"strength"`
	Form               string    `json:"form"`
	Quantity           int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice          int64     `gorm:"not null" json:"unit_price"`  // paise
	TotalPrice         int64     `gorm:"not null" json:"total_price"` // paise
	IsSubstitute       bool      `gorm:"not null;default:false" json:"is_substitute"`
	OriginalMedication *string   `json:"original_medication"`
	DosageInstructions *string   `json:"dosage_instructions"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName specifies the table name for the PrescriptionInvoiceItem model
func (PrescriptionInvoiceItem) TableName() string {
	return "prescription_invoice_items"
}

// Validate checks the line total against unit price and quantity.
func (it PrescriptionInvoiceItem) Validate() error {
	if it.Quantity <= 0 {
		return fmt.Errorf("item %q: quantity must be positive", it.MedicationName)
	}
	if it.UnitPrice*int64(it.Quantity) != it.TotalPrice {
		return fmt.Errorf("item %q: total_price %d does not equal unit_price %d x quantity %d",
			it.MedicationName, it.TotalPrice, it.UnitPrice, it.Quantity)
	}
	return nil
}
