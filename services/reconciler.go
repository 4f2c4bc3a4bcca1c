package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reconcileBatchSize caps rows claimed per RunOnce
const reconcileBatchSize = 50

// RecordPendingMaterialization writes (or refreshes) the outbox row for a
// verified payment whose order could not be created. A pending or failed row
// is re-queued with a fresh attempt budget; a done row is left untouched.
func RecordPendingMaterialization(ctx context.Context, db *gorm.DB, req MaterializeRequest, cause error) error {
	now := time.Now()
	row := models.PendingMaterialization{
		InvoiceID:      req.InvoiceID,
		UserID:         req.UserID,
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		AddressID:      req.AddressID,
		DeliveryFee:    req.DeliveryFee,
		Status:         models.MaterializationPending,
		LastError:      errorText(cause),
		NextAttemptAt:  now,
	}

	requeue := append(
		clause.AssignmentColumns([]string{"last_error", "payment_id", "gateway_order_id", "address_id", "delivery_fee", "updated_at"}),
		clause.Assignments(map[string]interface{}{
			"status":          models.MaterializationPending,
			"attempts":        0,
			"next_attempt_at": now,
		})...,
	)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "invoice_id"}},
		DoUpdates: requeue,
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: models.PendingMaterialization{}.TableName(), Name: "status"}, Value: models.MaterializationDone},
		}},
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record pending materialization: %w", err)
	}
	return nil
}

// ReconcileReport summarises one reconciler pass
type ReconcileReport struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Retrying  int `json:"retrying"`
	GaveUp    int `json:"gave_up"`
}

// Reconciler retries outbox rows until their order exists or attempts run out
type Reconciler struct {
	db           *gorm.DB
	materializer *OrderMaterializer
	maxAttempts  int
	now          func() time.Time
}

// NewReconciler creates a reconciler; maxAttempts below 1 is treated as 1
func NewReconciler(db *gorm.DB, maxAttempts int) *Reconciler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Reconciler{
		db:           db,
		materializer: NewOrderMaterializer(db),
		maxAttempts:  maxAttempts,
		now:          time.Now,
	}
}

// RunOnce processes every due pending row once
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	var rows []models.PendingMaterialization
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.MaterializationPending, r.now()).
		Order("next_attempt_at, id").
		Limit(reconcileBatchSize).
		Find(&rows).Error
	if err != nil {
		return report, fmt.Errorf("failed to load pending materializations: %w", err)
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		switch r.retry(ctx, &rows[i]) {
		case models.MaterializationDone:
			report.Succeeded++
		case models.MaterializationFailed:
			report.GaveUp++
		default:
			report.Retrying++
		}
	}

	if report.Processed > 0 {
		zap.L().Info("reconciler pass complete",
			zap.Int("processed", report.Processed),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("retrying", report.Retrying),
			zap.Int("gave_up", report.GaveUp))
	}
	return report, nil
}

func (r *Reconciler) retry(ctx context.Context, row *models.PendingMaterialization) string {
	log := zap.L().With(zap.Uint("invoice_id", row.InvoiceID), zap.Int("attempt", row.Attempts+1))

	_, err := r.materializer.Materialize(ctx, MaterializeRequest{
		InvoiceID:      row.InvoiceID,
		UserID:         row.UserID,
		GatewayOrderID: row.GatewayOrderID,
		PaymentID:      row.PaymentID,
		AddressID:      row.AddressID,
		DeliveryFee:    row.DeliveryFee,
	})

	updates := map[string]interface{}{"attempts": row.Attempts + 1}
	status := models.MaterializationPending
	switch {
	case err == nil:
		status = models.MaterializationDone
		updates["last_error"] = ""
	case row.Attempts+1 >= r.maxAttempts:
		status = models.MaterializationFailed
		updates["last_error"] = errorText(err)
		log.Error("giving up on order materialization", zap.Error(err))
	default:
		updates["last_error"] = errorText(err)
		updates["next_attempt_at"] = r.now().Add(backoff(row.Attempts + 1))
		log.Warn("order materialization retry failed", zap.Error(err))
	}
	updates["status"] = status

	if uerr := r.db.WithContext(ctx).Model(row).Updates(updates).Error; uerr != nil {
		log.Error("failed to update pending materialization", zap.Error(uerr))
	}
	return status
}

// Run calls RunOnce every interval until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zap.L().Info("reconciler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				zap.L().Error("reconciler pass failed", zap.Error(err))
			}
		}
	}
}

// backoff doubles from 30s and caps at one hour
func backoff(attempt int) time.Duration {
	d := 30 * time.Second
	for i := 1; i < attempt && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
