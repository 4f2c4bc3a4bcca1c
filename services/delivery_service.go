package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fallback used when neither a zone nor a defaults row exists
const (
	FallbackDeliveryFee  int64 = 4900 // paise
	FallbackDeliveryTime       = "3-5 Days"
	NotAvailable               = "Not Available"
)

// DeliveryQuote is the resolved delivery terms for one pincode
type DeliveryQuote struct {
	Pincode       string `json:"pincode"`
	IsServiceable bool   `json:"is_serviceable"`
	DeliveryFee   int64  `json:"delivery_fee"` // paise
	DeliveryTime  string `json:"delivery_time"`
}

// DeliveryService resolves delivery fee and time from the zone tables
type DeliveryService struct {
	db *gorm.DB
}

// NewDeliveryService creates a delivery resolver over db
func NewDeliveryService(db *gorm.DB) *DeliveryService {
	return &DeliveryService{db: db}
}

// Resolve applies, first match wins: exact zone, then defaults with blacklist,
// then the hard-coded fallback. Nothing is cached between calls.
func (s *DeliveryService) Resolve(ctx context.Context, pincode string) (*DeliveryQuote, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, newError(ErrValidation, "INVALID_PINCODE", "Pincode is required", nil)
	}

	db := s.db.WithContext(ctx)

	var zone models.DeliveryZone
	err := db.Where("pincode = ?", pincode).First(&zone).Error
	switch {
	case err == nil:
		if !zone.IsServiceable {
			return notServiceable(pincode), nil
		}
		return &DeliveryQuote{
			Pincode:       pincode,
			IsServiceable: true,
			DeliveryFee:   zone.DeliveryFee,
			DeliveryTime:  zone.DeliveryTime,
		}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, s.lookupFailed(pincode, err)
	}

	var defaults models.DeliveryZoneDefaults
	err = db.Order("id").First(&defaults).Error
	switch {
	case err == nil:
		if defaults.IsBlacklisted(pincode) {
			return notServiceable(pincode), nil
		}
		return &DeliveryQuote{
			Pincode:       pincode,
			IsServiceable: true,
			DeliveryFee:   defaults.DefaultDeliveryFee,
			DeliveryTime:  defaults.DefaultDeliveryTime,
		}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, s.lookupFailed(pincode, err)
	}

	return &DeliveryQuote{
		Pincode:       pincode,
		IsServiceable: true,
		DeliveryFee:   FallbackDeliveryFee,
		DeliveryTime:  FallbackDeliveryTime,
	}, nil
}

func (s *DeliveryService) lookupFailed(pincode string, err error) error {
	zap.L().Error("delivery lookup failed", zap.String("pincode", pincode), zap.Error(err))
	return newError(ErrStorage, "DELIVERY_LOOKUP_FAILED", "failed to calculate delivery fee", err)
}

func notServiceable(pincode string) *DeliveryQuote {
	return &DeliveryQuote{Pincode: pincode, DeliveryTime: NotAvailable}
}
