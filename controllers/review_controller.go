package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
)

// SubmitReviewRequest represents the request body for reviewing a product
type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" binding:"max=2000"`
	OrderID *uint  `json:"order_id"`
}

// SubmitReview handles POST /api/v1/products/:id/reviews. A second submission
// by the same user replaces their earlier review.
func SubmitReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	review, err := services.NewReviewService(config.GetDB()).Submit(c.Request.Context(), user.ID, services.ReviewInput{
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		OrderID:   req.OrderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, review)
}

// ListProductReviews handles GET /api/v1/products/:id/reviews - approved reviews only
func ListProductReviews(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := services.NewReviewService(config.GetDB()).ListApproved(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}
