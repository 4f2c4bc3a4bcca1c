package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
	"go.uber.org/zap"
)

// errorStatus maps service error kinds to HTTP statuses
var errorStatus = []struct {
	kind   error
	status int
}{
	{services.ErrAuth, http.StatusUnauthorized},
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrPaymentVerification, http.StatusBadRequest},
	{services.ErrNoAddress, http.StatusUnprocessableEntity},
	{services.ErrConflict, http.StatusConflict},
	{services.ErrStorage, http.StatusBadGateway},
	{services.ErrGateway, http.StatusBadGateway},
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Something went wrong"

	if e, ok := services.AsError(err); ok {
		for _, m := range errorStatus {
			if errors.Is(e.Kind, m.kind) {
				status = m.status
				break
			}
		}
		code = e.Code
		message = e.Message
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("code", code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Debug("request rejected", fields...)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// currentUser loads the profile for the authenticated Auth0 subject.
// It writes the error response itself and returns false on failure.
func currentUser(c *gin.Context) (models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return models.User{}, false
	}

	var user models.User
	if err := config.GetDB().WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return models.User{}, false
	}
	return user, true
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid " + param,
			},
		})
		return 0, false
	}
	return uint(id), true
}

func parseOptionalID(raw string) (*uint, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}
