package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
)

// ListPrescriptionOrders handles GET /api/v1/orders/prescriptions
func ListPrescriptionOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := services.NewOrderService(config.GetDB()).ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// GetPrescriptionOrder handles GET /api/v1/orders/prescriptions/:orderNumber.
// Customers can only see their own orders.
func GetPrescriptionOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).GetByNumber(c.Request.Context(), user, c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}
