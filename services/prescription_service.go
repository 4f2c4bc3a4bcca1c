package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PrescriptionService handles prescription intake and access
type PrescriptionService struct {
	db        *gorm.DB
	storage   ObjectStorage
	maxUpload int64
	now       func() time.Time
}

// NewPrescriptionService builds the service for one request
func NewPrescriptionService(db *gorm.DB, storage ObjectStorage, cfg *config.Config) *PrescriptionService {
	return &PrescriptionService{
		db:        db,
		storage:   storage,
		maxUpload: cfg.MaxUploadBytes,
		now:       time.Now,
	}
}

// StoragePath returns the per-user object key: <userId>/<userId>-<epochMillis>.<ext>
func StoragePath(userID uint, at time.Time, ext string) string {
	return fmt.Sprintf("%d/%d-%d.%s", userID, userID, at.UnixMilli(), ext)
}

// Upload validates the file, stores it privately and records a pending prescription.
// Validation runs before any storage call. Storage is written before the row and
// the object is deleted again if the insert fails.
func (s *PrescriptionService) Upload(ctx context.Context, fileHeader *multipart.FileHeader, user models.User) (*models.Prescription, error) {
	info, err := utils.ValidatePrescriptionFile(fileHeader, s.maxUpload)
	if err != nil {
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			return nil, newError(ErrValidation, fileErr.Code, fileErr.Message, err)
		}
		return nil, newError(ErrValidation, "INVALID_FILE", "Could not read uploaded file", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, newError(ErrValidation, "INVALID_FILE", "Could not read uploaded file", err)
	}
	defer file.Close()

	key := StoragePath(user.ID, s.now(), info.Ext)
	if err := s.storage.PutObject(ctx, key, file, info.Size, info.ContentType); err != nil {
		zap.L().Error("prescription upload failed",
			zap.Uint("user_id", user.ID), zap.String("key", key), zap.Error(err))
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, newError(ErrStorage, "STORAGE_WRITE_FAILED", "Failed to store file", err)
	}

	prescription := models.Prescription{
		UserID:  user.ID,
		FileURL: key,
		Status:  models.PrescriptionPending,
	}
	if err := s.db.WithContext(ctx).Create(&prescription).Error; err != nil {
		if derr := s.storage.DeleteObject(ctx, key); derr != nil {
			zap.L().Error("failed to remove object after insert failure",
				zap.String("key", key), zap.Error(derr))
		}
		zap.L().Error("prescription row insert failed",
			zap.Uint("user_id", user.ID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	prescription.FileAccessURL = prescription.AccessPath()
	zap.L().Info("prescription uploaded",
		zap.Uint("prescription_id", prescription.ID), zap.Uint("user_id", user.ID))
	return &prescription, nil
}

// ListForUser returns the user's prescriptions, newest first
func (s *PrescriptionService) ListForUser(ctx context.Context, userID uint) ([]models.Prescription, error) {
	var prescriptions []models.Prescription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&prescriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	for i := range prescriptions {
		prescriptions[i].FileAccessURL = prescriptions[i].AccessPath()
	}
	return prescriptions, nil
}

// Get loads a prescription visible to user: their own, or any for a pharmacist.
// Other users' prescriptions are reported as not found.
func (s *PrescriptionService) Get(ctx context.Context, id uint, user models.User) (*models.Prescription, error) {
	var prescription models.Prescription
	err := s.db.WithContext(ctx).First(&prescription, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "PRESCRIPTION_NOT_FOUND", "Prescription not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prescription: %w", err)
	}
	if prescription.UserID != user.ID && !user.IsPharmacist() {
		return nil, newError(ErrNotFound, "PRESCRIPTION_NOT_FOUND", "Prescription not found", nil)
	}

	prescription.FileAccessURL = prescription.AccessPath()
	return &prescription, nil
}

// CurrentInvoice returns the newest non-superseded invoice for a prescription, with items
func (s *PrescriptionService) CurrentInvoice(ctx context.Context, prescriptionID uint) (*models.PrescriptionInvoice, error) {
	return currentInvoice(s.db.WithContext(ctx), prescriptionID)
}

// OpenFile streams the stored prescription file after an access check
func (s *PrescriptionService) OpenFile(ctx context.Context, id uint, user models.User) (*StoredObject, error) {
	prescription, err := s.Get(ctx, id, user)
	if err != nil {
		return nil, err
	}
	return s.storage.GetObject(ctx, prescription.FileURL)
}

func currentInvoice(db *gorm.DB, prescriptionID uint) (*models.PrescriptionInvoice, error) {
	var invoice models.PrescriptionInvoice
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Where("prescription_id = ? AND status <> ?", prescriptionID, models.InvoiceSuperseded).
		Order("created_at DESC, id DESC").
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "INVOICE_NOT_FOUND", "No invoice has been issued for this prescription yet", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &invoice, nil
}
