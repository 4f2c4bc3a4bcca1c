package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/utils"
	"gorm.io/gorm"
)

// OrderService reads materialized prescription orders
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates an order reader over db
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// ListForUser returns the user's prescription orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.PrescriptionOrder, error) {
	var orders []models.PrescriptionOrder
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByNumber loads one order by its public number. Customers only see their
// own orders; pharmacists see any.
func (s *OrderService) GetByNumber(ctx context.Context, user models.User, orderNumber string) (*models.PrescriptionOrder, error) {
	if !utils.IsOrderNumber(orderNumber) {
		return nil, newError(ErrNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	}

	q := s.db.WithContext(ctx).
		Preload("Address", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("order_number = ?", orderNumber)
	if !user.IsPharmacist() {
		q = q.Where("user_id = ?", user.ID)
	}

	var order models.PrescriptionOrder
	err := q.First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "ORDER_NOT_FOUND", "Order not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}
