package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewInput is a review submission
type ReviewInput struct {
	ProductID uint
	Rating    int
	Comment   string
	OrderID   *uint
}

// ReviewSummary is the public view of a product's reviews
type ReviewSummary struct {
	ProductID     uint            `json:"product_id"`
	Reviews       []models.Review `json:"reviews"`
	Count         int             `json:"count"`
	AverageRating float64         `json:"average_rating"`
}

// ReviewService keeps one review per user and product
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a review service over db
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Submit updates the user's existing review for the product in place, or
// inserts a new unapproved one with the verified-purchase flag resolved.
func (s *ReviewService) Submit(ctx context.Context, userID uint, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, newError(ErrValidation, "INVALID_RATING", "Rating must be between 1 and 5", nil)
	}
	in.Comment = strings.TrimSpace(in.Comment)

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "PRODUCT_NOT_FOUND", "Product not found", err)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	review, err := s.updateExisting(db, userID, in)
	if err != nil || review != nil {
		return review, err
	}

	verified, err := s.isVerifiedPurchase(db, userID, in.ProductID, in.OrderID)
	if err != nil {
		return nil, err
	}

	created := models.Review{
		ProductID:          in.ProductID,
		UserID:             userID,
		OrderID:            in.OrderID,
		Rating:             in.Rating,
		Comment:            in.Comment,
		IsVerifiedPurchase: verified,
		IsApproved:         false,
	}
	if err := db.Create(&created).Error; err != nil {
		if !IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create review: %w", err)
		}
		// Lost a race with a concurrent submit for the same pair
		review, uerr := s.updateExisting(db, userID, in)
		if uerr != nil {
			return nil, uerr
		}
		if review == nil {
			return nil, newError(ErrConflict, "REVIEW_CONFLICT", "Review could not be saved, please retry", err)
		}
		return review, nil
	}

	zap.L().Info("review submitted",
		zap.Uint("product_id", in.ProductID), zap.Uint("user_id", userID), zap.Bool("verified_purchase", verified))
	return &created, nil
}

// updateExisting returns nil, nil when the user has no review for the product
func (s *ReviewService) updateExisting(db *gorm.DB, userID uint, in ReviewInput) (*models.Review, error) {
	var review models.Review
	err := db.Where("product_id = ? AND user_id = ?", in.ProductID, userID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	review.Rating = in.Rating
	review.Comment = in.Comment
	if err := db.Model(&review).Select("rating", "comment", "updated_at").Updates(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &review, nil
}

func (s *ReviewService) isVerifiedPurchase(db *gorm.DB, userID, productID uint, orderID *uint) (bool, error) {
	q := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("orders.customer_id = ? AND order_items.product_id = ?", userID, productID)
	if orderID != nil {
		q = q.Where("orders.id = ?", *orderID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}

// ListApproved returns approved reviews newest first with their mean rating (0 if none)
func (s *ReviewService) ListApproved(ctx context.Context, productID uint) (*ReviewSummary, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	summary := &ReviewSummary{ProductID: productID, Reviews: reviews, Count: len(reviews)}
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		summary.AverageRating = float64(sum) / float64(len(reviews))
	}
	return summary, nil
}

// Approve publishes a review
func (s *ReviewService) Approve(ctx context.Context, reviewID uint) (*models.Review, error) {
	var review models.Review
	db := s.db.WithContext(ctx)
	if err := db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "REVIEW_NOT_FOUND", "Review not found", err)
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review.IsApproved {
		return &review, nil
	}
	if err := db.Model(&review).Update("is_approved", true).Error; err != nil {
		return nil, fmt.Errorf("failed to approve review: %w", err)
	}
	review.IsApproved = true
	return &review, nil
}
