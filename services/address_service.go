package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"gorm.io/gorm"
)

// AddressService manages a user's delivery addresses
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates an address service over db
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// Create adds an address. The user's first address becomes the default; a new
// default clears the previous one in the same transaction.
func (s *AddressService) Create(ctx context.Context, address *models.Address) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", address.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		if err := tx.Create(address).Error; err != nil {
			if IsUniqueViolation(err) {
				return newError(ErrConflict, "DEFAULT_ADDRESS_CONFLICT", "Another default address was set concurrently", err)
			}
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
}

// List returns the user's addresses, default first
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// SetDefault makes addressID the user's only default address
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) (*models.Address, error) {
	var address models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "ADDRESS_NOT_FOUND", "Address not found", err)
			}
			return fmt.Errorf("failed to load address: %w", err)
		}
		if address.IsDefault {
			return nil
		}
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		address.IsDefault = true
		if err := tx.Model(&address).Update("is_default", true).Error; err != nil {
			if IsUniqueViolation(err) {
				return newError(ErrConflict, "DEFAULT_ADDRESS_CONFLICT", "Another default address was set concurrently", err)
			}
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Resolve picks the delivery address for userID: the explicit address when given
// and owned by the user, else the default, else any address.
func (s *AddressService) Resolve(ctx context.Context, userID uint, explicitID *uint) (*models.Address, error) {
	return resolveAddress(s.db.WithContext(ctx), userID, explicitID)
}

func resolveAddress(db *gorm.DB, userID uint, explicitID *uint) (*models.Address, error) {
	var address models.Address
	if explicitID != nil && *explicitID != 0 {
		err := db.Where("id = ? AND user_id = ?", *explicitID, userID).First(&address).Error
		if err == nil {
			return &address, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load address: %w", err)
		}
	}

	err := db.Where("user_id = ?", userID).Order("is_default DESC, id").First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNoAddress, "NO_ADDRESS", "Please add a delivery address", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return &address, nil
}

func clearDefault(tx *gorm.DB, userID uint) error {
	err := tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
