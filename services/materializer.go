package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxOrderNumberAttempts bounds order number regeneration on collision
const maxOrderNumberAttempts = 5

// PaymentMethodGateway is recorded on orders paid through the payment gateway
const PaymentMethodGateway = "razorpay"

var errAlreadyMaterialized = errors.New("order already exists for invoice")

// MaterializeRequest carries a verified payment into the materializer
type MaterializeRequest struct {
	InvoiceID      uint
	UserID         uint
	GatewayOrderID string
	PaymentID      string
	AddressID      *uint
	DeliveryFee    int64 // paise
}

// MaterializeResult is the order for the invoice. AlreadyProcessed is set when
// the order existed before this call.
type MaterializeResult struct {
	Order            *models.PrescriptionOrder
	AlreadyProcessed bool
}

// OrderMaterializer turns a paid invoice into exactly one prescription order
type OrderMaterializer struct {
	db             *gorm.DB
	now            func() time.Time
	newOrderNumber func(time.Time) (string, error)
}

// NewOrderMaterializer creates a materializer over db
func NewOrderMaterializer(db *gorm.DB) *OrderMaterializer {
	return &OrderMaterializer{
		db:             db,
		now:            time.Now,
		newOrderNumber: utils.GenerateOrderNumber,
	}
}

// Materialize marks the invoice paid, creates the order with snapshot items and
// fulfils the prescription in one transaction. The unique index on
// prescription_orders.invoice_id makes concurrent or repeated calls for the same
// invoice converge on a single order.
func (m *OrderMaterializer) Materialize(ctx context.Context, req MaterializeRequest) (*MaterializeResult, error) {
	log := zap.L().With(
		zap.Uint("invoice_id", req.InvoiceID),
		zap.Uint("user_id", req.UserID),
		zap.String("gateway_order_id", req.GatewayOrderID),
	)

	var order models.PrescriptionOrder
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PrescriptionOrder{}).Where("invoice_id = ?", req.InvoiceID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing order: %w", err)
		}
		if existing > 0 {
			return errAlreadyMaterialized
		}

		var invoice models.PrescriptionInvoice
		err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			First(&invoice, req.InvoiceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "INVOICE_NOT_FOUND", "Invoice not found", err)
		}
		if err != nil {
			return fmt.Errorf("load invoice: %w", err)
		}

		var prescription models.Prescription
		if err := tx.First(&prescription, invoice.PrescriptionID).Error; err != nil {
			return newError(ErrNotFound, "PRESCRIPTION_NOT_FOUND", "Prescription not found", err)
		}
		if prescription.UserID != req.UserID {
			return newError(ErrNotFound, "INVOICE_NOT_FOUND", "Invoice not found", nil)
		}

		for _, item := range invoice.Items {
			if err := item.Validate(); err != nil {
				return newError(ErrValidation, "INVALID_INVOICE_ITEM", "Invoice contains an invalid line item", err)
			}
		}

		if invoice.Status != models.InvoicePaid {
			if !invoice.CanTransitionTo(models.InvoicePaid) {
				return newError(ErrConflict, "INVOICE_NOT_PAYABLE",
					fmt.Sprintf("Invoice in status %q cannot be marked paid", invoice.Status), nil)
			}
			if err := tx.Model(&invoice).Update("status", models.InvoicePaid).Error; err != nil {
				return fmt.Errorf("mark invoice paid: %w", err)
			}
		}

		address, err := resolveAddress(tx, req.UserID, req.AddressID)
		if err != nil {
			return err
		}

		order = models.PrescriptionOrder{
			UserID:         req.UserID,
			AddressID:      address.ID,
			PrescriptionID: prescription.ID,
			InvoiceID:      invoice.ID,
			Status:         models.OrderStatusProcessing,
			PaymentStatus:  models.PaymentStatusPaid,
			PaymentID:      req.PaymentID,
			PaymentMethod:  PaymentMethodGateway,
			Subtotal:       invoice.TotalAmount,
			DeliveryFee:    req.DeliveryFee,
			Total:          invoice.TotalAmount + req.DeliveryFee,
		}
		if err := m.insertOrder(tx, &order); err != nil {
			return err
		}

		if len(invoice.Items) > 0 {
			items := make([]models.PrescriptionOrderItem, 0, len(invoice.Items))
			for _, it := range invoice.Items {
				items = append(items, models.SnapshotOf(order.ID, it))
			}
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("create order items: %w", err)
			}
			order.Items = items
		}

		if err := tx.Model(&prescription).Update("status", models.PrescriptionFulfilled).Error; err != nil {
			return fmt.Errorf("mark prescription fulfilled: %w", err)
		}

		if req.GatewayOrderID != "" {
			err := tx.Model(&models.PaymentAttempt{}).
				Where("gateway_order_id = ?", req.GatewayOrderID).
				Updates(map[string]interface{}{"status": models.AttemptVerified, "payment_id": req.PaymentID}).Error
			if err != nil {
				return fmt.Errorf("mark payment attempt verified: %w", err)
			}
		}

		order.Address = *address
		return nil
	})

	if errors.Is(err, errAlreadyMaterialized) {
		existing, loadErr := m.orderForInvoice(ctx, req.InvoiceID)
		if loadErr != nil {
			return nil, loadErr
		}
		log.Info("order already materialized", zap.String("order_number", existing.OrderNumber))
		return &MaterializeResult{Order: existing, AlreadyProcessed: true}, nil
	}
	if err != nil {
		log.Error("order materialization failed", zap.Error(err))
		return nil, err
	}

	log.Info("order materialized",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total),
		zap.Int("items", len(order.Items)))
	return &MaterializeResult{Order: &order}, nil
}

// insertOrder assigns a fresh order number and inserts the order, retrying on
// number collisions. Each attempt runs in a savepoint so a failed insert does
// not abort the surrounding transaction.
func (m *OrderMaterializer) insertOrder(tx *gorm.DB, order *models.PrescriptionOrder) error {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := m.newOrderNumber(m.now())
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		order.ID = 0
		order.OrderNumber = number

		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit("Address", "Items").Create(order).Error
		})
		if err == nil {
			return nil
		}
		if !IsUniqueViolation(err) {
			return fmt.Errorf("create order: %w", err)
		}

		var count int64
		if cerr := tx.Model(&models.PrescriptionOrder{}).Where("invoice_id = ?", order.InvoiceID).Count(&count).Error; cerr != nil {
			return fmt.Errorf("check existing order: %w", cerr)
		}
		if count > 0 {
			return errAlreadyMaterialized
		}

		zap.L().Warn("order number collision, retrying",
			zap.String("order_number", number), zap.Int("attempt", attempt+1))
		lastErr = err
	}
	return newError(ErrConflict, "ORDER_NUMBER_EXHAUSTED", "Could not allocate a unique order number", lastErr)
}

func (m *OrderMaterializer) orderForInvoice(ctx context.Context, invoiceID uint) (*models.PrescriptionOrder, error) {
	var order models.PrescriptionOrder
	err := m.db.WithContext(ctx).
		Preload("Address", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("invoice_id = ?", invoiceID).
		First(&order).Error
	if err != nil {
		return nil, fmt.Errorf("load existing order: %w", err)
	}
	return &order, nil
}
