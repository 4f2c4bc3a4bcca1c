package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
	"go.uber.org/zap"
)

// ApproveReview handles PUT /api/v1/admin/reviews/:id/approve
func ApproveReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	review, err := services.NewReviewService(config.GetDB()).Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, review)
}

// RunReconcile handles POST /api/v1/admin/reconcile - one pass over paid
// invoices whose order could not be created at callback time
func RunReconcile(c *gin.Context) {
	cfg := config.GetConfig()
	report, err := services.NewReconciler(config.GetDB(), cfg.ReconcileMaxAttempts).RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	zap.L().Info("manual reconcile finished",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("retrying", report.Retrying),
		zap.Int("gave_up", report.GaveUp),
	)
	respondOK(c, http.StatusOK, report)
}
