package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
)

// CreateAddressRequest represents the request body for adding a delivery address
type CreateAddressRequest struct {
	AddressLine1 string  `json:"address_line1" binding:"required"`
	AddressLine2 *string `json:"address_line2"`
	City         string  `json:"city" binding:"required"`
	State        string  `json:"state" binding:"required"`
	Country      string  `json:"country"`
	Pincode      string  `json:"pincode" binding:"required,numeric,len=6"`
	IsDefault    bool    `json:"is_default"`
}

// CreateAddress handles POST /api/v1/addresses
func CreateAddress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	address := models.Address{
		UserID:       user.ID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		Country:      req.Country,
		Pincode:      req.Pincode,
		IsDefault:    req.IsDefault,
	}
	if address.Country == "" {
		address.Country = "India"
	}

	if err := services.NewAddressService(config.GetDB()).Create(c.Request.Context(), &address); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, address)
}

// ListAddresses handles GET /api/v1/addresses - default address first
func ListAddresses(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	addresses, err := services.NewAddressService(config.GetDB()).List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, addresses)
}

// SetDefaultAddress handles PUT /api/v1/addresses/:id/default
func SetDefaultAddress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	address, err := services.NewAddressService(config.GetDB()).SetDefault(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, address)
}
