package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CurrencyINR is the only currency charged
const CurrencyINR = "INR"

// PaymentOrder is returned to the browser to open the gateway checkout
type PaymentOrder struct {
	KeyID          string         `json:"key_id"`
	GatewayOrderID string         `json:"gateway_order_id"`
	InvoiceID      uint           `json:"invoice_id"`
	AddressID      uint           `json:"address_id"`
	Amount         int64          `json:"amount"` // paise
	AmountDisplay  string         `json:"amount_display"`
	Currency       string         `json:"currency"`
	Receipt        string         `json:"receipt"`
	Delivery       *DeliveryQuote `json:"delivery"`
}

// PaymentCallback is what the browser posts after the gateway checkout completes
type PaymentCallback struct {
	GatewayPaymentID string            `json:"razorpay_payment_id" binding:"required"`
	GatewayOrderID   string            `json:"razorpay_order_id" binding:"required"`
	Signature        string            `json:"razorpay_signature" binding:"required"`
	InternalOrderID  string            `json:"order_id"`
	InvoiceID        *uint             `json:"invoice_id"`
	Notes            map[string]string `json:"notes"`
}

// errNoInvoiceReference means a callback has neither a recorded attempt nor an invoice_id
var errNoInvoiceReference = errors.New("no payment attempt or invoice_id for callback")

// Verification outcomes
const (
	VerifyOrderCreated     = "order_created"
	VerifyAlreadyProcessed = "already_processed"
	VerifyOrderPending     = "order_pending"
	VerifyInProgress       = "in_progress"
)

// VerifyResult reports a verified payment. Status says what happened to the order.
type VerifyResult struct {
	Verified bool                      `json:"verified"`
	Status   string                    `json:"status"`
	Order    *models.PrescriptionOrder `json:"order,omitempty"`
}

// PaymentService creates gateway orders and verifies payment callbacks
type PaymentService struct {
	db           *gorm.DB
	gateway      PaymentGateway
	locker       CallbackLocker
	secret       string
	materializer *OrderMaterializer
	delivery     *DeliveryService
	now          func() time.Time
}

// NewPaymentService wires the payment workflow for one request
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, locker CallbackLocker, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:           db,
		gateway:      gateway,
		locker:       locker,
		secret:       cfg.RazorpayKeySecret,
		materializer: NewOrderMaterializer(db),
		delivery:     NewDeliveryService(db),
		now:          time.Now,
	}
}

// CreateOrder prices the invoice for delivery, creates the gateway order and
// records the attempt. The amount is always computed server-side.
func (s *PaymentService) CreateOrder(ctx context.Context, user models.User, invoiceID uint, addressID *uint) (*PaymentOrder, error) {
	db := s.db.WithContext(ctx)

	invoice, err := s.invoiceForUser(db, user.ID, invoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case models.InvoicePaid:
		return nil, newError(ErrConflict, "INVOICE_ALREADY_PAID", "This invoice has already been paid", nil)
	case models.InvoiceSent:
	default:
		return nil, newError(ErrValidation, "INVOICE_NOT_PAYABLE", "This invoice is not ready for payment", nil)
	}

	address, err := resolveAddress(db, user.ID, addressID)
	if err != nil {
		return nil, err
	}

	quote, err := s.delivery.Resolve(ctx, address.Pincode)
	if err != nil {
		return nil, err
	}
	if !quote.IsServiceable {
		return nil, newError(ErrValidation, "NOT_SERVICEABLE", "Delivery is not available to this pincode", nil)
	}

	amount := invoice.TotalAmount + quote.DeliveryFee
	receipt := fmt.Sprintf("rx_%d_%d", invoice.ID, s.now().Unix())
	notes := map[string]string{
		"user_id":      strconv.FormatUint(uint64(user.ID), 10),
		"email":        user.Email,
		"invoice_id":   strconv.FormatUint(uint64(invoice.ID), 10),
		"address_id":   strconv.FormatUint(uint64(address.ID), 10),
		"delivery_fee": strconv.FormatInt(quote.DeliveryFee, 10),
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   amount,
		Currency: CurrencyINR,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		zap.L().Error("gateway order creation failed",
			zap.Uint("invoice_id", invoice.ID), zap.Int64("amount", amount), zap.Error(err))
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, newError(ErrGateway, "GATEWAY_ERROR", "Failed to create payment order", err)
	}

	noteMap := datatypes.JSONMap{}
	for k, v := range notes {
		noteMap[k] = v
	}
	attempt := models.PaymentAttempt{
		GatewayOrderID: gwOrder.ID,
		UserID:         user.ID,
		InvoiceID:      invoice.ID,
		AddressID:      address.ID,
		Amount:         amount,
		DeliveryFee:    quote.DeliveryFee,
		Currency:       CurrencyINR,
		Receipt:        receipt,
		Notes:          noteMap,
		Status:         models.AttemptCreated,
	}
	if err := db.Create(&attempt).Error; err != nil {
		zap.L().Error("failed to record payment attempt",
			zap.String("gateway_order_id", gwOrder.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to record payment attempt: %w", err)
	}

	zap.L().Info("payment order created",
		zap.Uint("invoice_id", invoice.ID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount", amount))

	return &PaymentOrder{
		KeyID:          s.gateway.KeyID(),
		GatewayOrderID: gwOrder.ID,
		InvoiceID:      invoice.ID,
		AddressID:      address.ID,
		Amount:         amount,
		AmountDisplay:  utils.FormatINR(amount),
		Currency:       CurrencyINR,
		Receipt:        receipt,
		Delivery:       quote,
	}, nil
}

// Verify checks the callback signature and materializes the order. Once the
// signature matches the payment is reported verified even if the order could
// not be created; that case is queued for the reconciler.
func (s *PaymentService) Verify(ctx context.Context, user models.User, cb PaymentCallback) (*VerifyResult, error) {
	log := zap.L().With(
		zap.Uint("user_id", user.ID),
		zap.String("gateway_order_id", cb.GatewayOrderID),
		zap.String("payment_id", cb.GatewayPaymentID),
	)

	if !VerifySignature(s.secret, cb.GatewayOrderID, cb.GatewayPaymentID, cb.Signature) {
		log.Warn("payment signature mismatch")
		return nil, newError(ErrPaymentVerification, "INVALID_SIGNATURE", "Payment verification failed", nil)
	}

	release, ok, err := s.locker.TryLock(ctx, cb.GatewayOrderID, CallbackLockTTL)
	if err != nil {
		// The unique invoice constraint still prevents duplicates
		log.Warn("payment lock unavailable, continuing without it", zap.Error(err))
	} else if !ok {
		log.Info("payment callback already in progress")
		return &VerifyResult{Verified: true, Status: VerifyInProgress}, nil
	} else {
		defer release()
	}

	req, err := s.materializeRequest(ctx, user, cb)
	if errors.Is(err, errNoInvoiceReference) {
		// Nothing identifies the invoice, so there is no outbox row to write
		log.Error("payment verified but no invoice can be linked to it")
		return &VerifyResult{Verified: true, Status: VerifyOrderPending}, nil
	}
	if err != nil {
		return nil, err
	}

	result, err := s.materializer.Materialize(ctx, req)
	if err != nil {
		log.Error("payment verified but order materialization failed", zap.Error(err))
		if rerr := RecordPendingMaterialization(ctx, s.db, req, err); rerr != nil {
			log.Error("failed to queue pending materialization", zap.Error(rerr))
		}
		return &VerifyResult{Verified: true, Status: VerifyOrderPending}, nil
	}

	status := VerifyOrderCreated
	if result.AlreadyProcessed {
		status = VerifyAlreadyProcessed
	}
	return &VerifyResult{Verified: true, Status: status, Order: result.Order}, nil
}

// materializeRequest prefers the recorded attempt. Callbacks for orders created
// before attempts were recorded fall back to the invoice id and notes.
func (s *PaymentService) materializeRequest(ctx context.Context, user models.User, cb PaymentCallback) (MaterializeRequest, error) {
	req := MaterializeRequest{
		UserID:         user.ID,
		GatewayOrderID: cb.GatewayOrderID,
		PaymentID:      cb.GatewayPaymentID,
	}

	var attempt models.PaymentAttempt
	err := s.db.WithContext(ctx).Where("gateway_order_id = ?", cb.GatewayOrderID).First(&attempt).Error
	switch {
	case err == nil:
		if attempt.UserID != user.ID {
			return req, newError(ErrNotFound, "PAYMENT_NOT_FOUND", "Payment not found", nil)
		}
		addressID := attempt.AddressID
		req.InvoiceID = attempt.InvoiceID
		req.AddressID = &addressID
		req.DeliveryFee = attempt.DeliveryFee
		return req, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return req, fmt.Errorf("failed to load payment attempt: %w", err)
	}

	if cb.InvoiceID == nil || *cb.InvoiceID == 0 {
		return req, errNoInvoiceReference
	}
	req.InvoiceID = *cb.InvoiceID
	if fee, err := strconv.ParseInt(cb.Notes["delivery_fee"], 10, 64); err == nil && fee >= 0 {
		req.DeliveryFee = fee
	}
	if id, err := strconv.ParseUint(cb.Notes["address_id"], 10, 64); err == nil && id > 0 {
		addressID := uint(id)
		req.AddressID = &addressID
	}
	return req, nil
}

func (s *PaymentService) invoiceForUser(db *gorm.DB, userID, invoiceID uint) (*models.PrescriptionInvoice, error) {
	var invoice models.PrescriptionInvoice
	err := db.Joins("JOIN prescriptions ON prescriptions.id = prescription_invoices.prescription_id").
		Where("prescription_invoices.id = ? AND prescriptions.user_id = ?", invoiceID, userID).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "INVOICE_NOT_FOUND", "Invoice not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &invoice, nil
}
