package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
	"go.uber.org/zap"
)

func storageOrUnavailable(c *gin.Context) (services.ObjectStorage, bool) {
	storage := services.GetStorage()
	if storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "File storage is not configured",
			},
		})
		return nil, false
	}
	return storage, true
}

func prescriptionService(storage services.ObjectStorage) *services.PrescriptionService {
	return services.NewPrescriptionService(config.GetDB(), storage, config.GetConfig())
}

// UploadPrescription handles POST /api/v1/prescriptions (multipart field "file")
func UploadPrescription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	storage, ok := storageOrUnavailable(c)
	if !ok {
		return
	}

	// Room for multipart framing on top of the file itself
	maxUpload := config.GetConfig().MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload+1<<20)

	// A missing part is reported by the service as MISSING_FILE
	fileHeader, err := c.FormFile("file")
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxUpload/(1024*1024)),
			},
		})
		return
	}

	prescription, err := prescriptionService(storage).Upload(c.Request.Context(), fileHeader, user)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, prescription)
}

// ListPrescriptions handles GET /api/v1/prescriptions
func ListPrescriptions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	prescriptions, err := prescriptionService(services.GetStorage()).ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, prescriptions)
}

// GetPrescription handles GET /api/v1/prescriptions/:id. The response carries
// the current invoice with its items, or null when none has been issued.
func GetPrescription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	svc := prescriptionService(services.GetStorage())
	prescription, err := svc.Get(c.Request.Context(), id, user)
	if err != nil {
		respondError(c, err)
		return
	}

	var invoice *models.PrescriptionInvoice
	invoice, err = svc.CurrentInvoice(c.Request.Context(), prescription.ID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"prescription": prescription,
		"invoice":      invoice,
	})
}

// GetPrescriptionFile handles GET /api/v1/prescriptions/:id/file. The bytes are
// streamed from the private bucket; the storage key never leaves the server.
func GetPrescriptionFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	storage, ok := storageOrUnavailable(c)
	if !ok {
		return
	}

	obj, err := prescriptionService(storage).OpenFile(c.Request.Context(), id, user)
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() {
		if cerr := obj.Body.Close(); cerr != nil {
			zap.L().Warn("failed to close prescription file", zap.Uint("prescription_id", id), zap.Error(cerr))
		}
	}()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = "attachment"
	}
	filename := fmt.Sprintf("prescription-%d", id)
	if m := mimetype.Lookup(strings.TrimSpace(strings.Split(contentType, ";")[0])); m != nil {
		filename += m.Extension()
	}

	ttl := int(config.GetConfig().FileCacheTTL.Seconds())
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control":          fmt.Sprintf("private, max-age=%d", ttl),
		"Content-Disposition":    fmt.Sprintf("%s; filename=%q", disposition, filename),
		"X-Content-Type-Options": "nosniff",
	})
}
