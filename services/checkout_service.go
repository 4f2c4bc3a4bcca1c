package services

import (
	"context"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/utils"
	"gorm.io/gorm"
)

// CheckoutQuote is the payable breakdown for one invoice delivered to one address
type CheckoutQuote struct {
	Invoice      *models.PrescriptionInvoice `json:"invoice"`
	Address      *models.Address             `json:"address"`
	Delivery     *DeliveryQuote              `json:"delivery"`
	Subtotal     int64                       `json:"subtotal"` // paise
	Total        int64                       `json:"total"`    // paise
	TotalDisplay string                      `json:"total_display"`
}

// CanPay reports whether the quote may proceed to payment
func (q CheckoutQuote) CanPay() bool {
	return q.Delivery != nil && q.Delivery.IsServiceable && q.Invoice.Status == models.InvoiceSent
}

// CheckoutService prices the current invoice of a prescription for delivery
type CheckoutService struct {
	db       *gorm.DB
	delivery *DeliveryService
}

// NewCheckoutService creates a checkout service over db
func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{db: db, delivery: NewDeliveryService(db)}
}

// Quote resolves the current invoice, the delivery address and fee, and the
// payable total. Every call re-reads the zone tables for the chosen address.
func (s *CheckoutService) Quote(ctx context.Context, user models.User, prescriptionID uint, addressID *uint) (*CheckoutQuote, error) {
	db := s.db.WithContext(ctx)

	var prescription models.Prescription
	if err := db.Where("id = ? AND user_id = ?", prescriptionID, user.ID).First(&prescription).Error; err != nil {
		return nil, newError(ErrNotFound, "PRESCRIPTION_NOT_FOUND", "Prescription not found", err)
	}

	invoice, err := currentInvoice(db, prescription.ID)
	if err != nil {
		return nil, err
	}

	address, err := resolveAddress(db, user.ID, addressID)
	if err != nil {
		return nil, err
	}

	quote, err := s.delivery.Resolve(ctx, address.Pincode)
	if err != nil {
		return nil, err
	}

	total := invoice.TotalAmount + quote.DeliveryFee
	return &CheckoutQuote{
		Invoice:      invoice,
		Address:      address,
		Delivery:     quote,
		Subtotal:     invoice.TotalAmount,
		Total:        total,
		TotalDisplay: utils.FormatINR(total),
	}, nil
}
