package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewWorkflow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "critic", models.RoleCustomer)
	moderator := createTestUser(t, db, "moderator", models.RolePharmacist)
	product := models.Product{Name: "Vitamin D3", Slug: "vitamin-d3", Price: 29900, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	reviewsPath := "/products/" + itoa(product.ID) + "/reviews"

	router := setupTestRouter()
	router.POST("/products/:id/reviews", mockAuthMiddleware(user.Auth0ID, user.Role, "t"), SubmitReview)
	router.GET("/products/:id/reviews", ListProductReviews)

	w := doJSON(router, http.MethodPost, reviewsPath, gin.H{"rating": 3, "comment": "Fine"})
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	reviewID := decodeResponse(t, w)["data"].(map[string]interface{})["id"]

	w = doJSON(router, http.MethodPost, reviewsPath, gin.H{"rating": 5, "comment": "Much better now"})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, reviewID, second["id"], "second submission edits the first")
	assert.Equal(t, float64(5), second["rating"])

	var count int64
	db.Model(&models.Review{}).Where("product_id = ?", product.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	w = doJSON(router, http.MethodPost, reviewsPath, gin.H{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RATING", errorCode(t, w))

	// Unapproved reviews are hidden
	w = doJSON(router, http.MethodGet, reviewsPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeResponse(t, w)["data"].(map[string]interface{})["count"])

	admin := setupTestRouter()
	admin.PUT("/admin/reviews/:id/approve",
		mockAuthWithScope(moderator.Auth0ID, moderator.Role, "t", middleware.ScopeReviewModeration),
		middleware.RequireScope(middleware.ScopeReviewModeration),
		ApproveReview)
	w = doJSON(admin, http.MethodPut, "/admin/reviews/"+itoa(uint(reviewID.(float64)))+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	w = doJSON(router, http.MethodGet, reviewsPath, nil)
	summary := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["count"])
	assert.Equal(t, float64(5), summary["average_rating"])
	assert.NotContains(t, w.Body.String(), user.Email)
}

func TestSubmitReview_UnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "lost", models.RoleCustomer)

	router := setupTestRouter()
	router.POST("/products/:id/reviews", mockAuthMiddleware(user.Auth0ID, user.Role, "t"), SubmitReview)

	w := doJSON(router, http.MethodPost, "/products/404/reviews", gin.H{"rating": 4})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, w))

	w = doJSON(router, http.MethodPost, "/products/abc/reviews", gin.H{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}
