package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
)

// CreatePaymentOrderRequest represents the request body for starting a payment.
// The amount is never taken from the client.
type CreatePaymentOrderRequest struct {
	InvoiceID uint  `json:"invoice_id" binding:"required"`
	AddressID *uint `json:"address_id"`
}

func paymentService(c *gin.Context) (*services.PaymentService, bool) {
	gateway := services.GetGateway()
	if gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GATEWAY_UNAVAILABLE",
				"message": "Payments are not configured",
			},
		})
		return nil, false
	}
	return services.NewPaymentService(config.GetDB(), gateway, services.GetLocker(), config.GetConfig()), true
}

// CreatePaymentOrder handles POST /api/v1/payments/orders
func CreatePaymentOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	svc, ok := paymentService(c)
	if !ok {
		return
	}

	order, err := svc.CreateOrder(c.Request.Context(), user, req.InvoiceID, req.AddressID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

// VerifyPayment handles POST /api/v1/payments/verify. A verified payment is
// always a success response; the status field says whether the order exists
// yet. A concurrent callback for the same gateway order gets 202.
func VerifyPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var cb services.PaymentCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		respondValidation(c, err)
		return
	}

	svc, ok := paymentService(c)
	if !ok {
		return
	}

	result, err := svc.Verify(c.Request.Context(), user, cb)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Status == services.VerifyInProgress {
		status = http.StatusAccepted
	}
	respondOK(c, status, result)
}
