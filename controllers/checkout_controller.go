package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
)

// GetCheckout handles GET /api/v1/prescriptions/:id/checkout?address_id=
func GetCheckout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	addressID, ok := parseOptionalID(c.Query("address_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid address_id",
			},
		})
		return
	}

	quote, err := services.NewCheckoutService(config.GetDB()).Quote(c.Request.Context(), user, id, addressID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"invoice":       quote.Invoice,
		"address":       quote.Address,
		"delivery":      quote.Delivery,
		"subtotal":      quote.Subtotal,
		"total":         quote.Total,
		"total_display": quote.TotalDisplay,
		"can_pay":       quote.CanPay(),
	})
}

// GetDeliveryQuote handles GET /api/v1/delivery/:pincode
func GetDeliveryQuote(c *gin.Context) {
	quote, err := services.NewDeliveryService(config.GetDB()).Resolve(c.Request.Context(), c.Param("pincode"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, quote)
}
