// Package routes registers the API surface on a gin router group.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/controllers"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
)

// Register adds every /api/v1 route except health checks. auth guards the
// routes that need a signed-in user; main passes EnsureValidToken and tests
// pass a stub.
func Register(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	v1.GET("/delivery/:pincode", controllers.GetDeliveryQuote)
	v1.GET("/products/:id/reviews", controllers.ListProductReviews)

	authed := v1.Group("", auth)
	{
		authed.POST("/users", controllers.CreateUser)
		authed.GET("/users/me", controllers.GetMyProfile)
		authed.PUT("/users/me", controllers.UpdateMyProfile)

		authed.POST("/addresses", controllers.CreateAddress)
		authed.GET("/addresses", controllers.ListAddresses)
		authed.PUT("/addresses/:id/default", controllers.SetDefaultAddress)

		authed.POST("/prescriptions", controllers.UploadPrescription)
		authed.GET("/prescriptions", controllers.ListPrescriptions)
		authed.GET("/prescriptions/:id", controllers.GetPrescription)
		authed.GET("/prescriptions/:id/file", controllers.GetPrescriptionFile)
		authed.GET("/prescriptions/:id/checkout", controllers.GetCheckout)

		authed.POST("/payments/orders", controllers.CreatePaymentOrder)
		authed.POST("/payments/verify", controllers.VerifyPayment)

		authed.GET("/orders/prescriptions", controllers.ListPrescriptionOrders)
		authed.GET("/orders/prescriptions/:orderNumber", controllers.GetPrescriptionOrder)

		authed.POST("/products/:id/reviews", controllers.SubmitReview)

		admin := authed.Group("/admin")
		admin.PUT("/reviews/:id/approve", middleware.RequireScope(middleware.ScopeReviewModeration), controllers.ApproveReview)
		admin.POST("/reconcile", middleware.RequireScope(middleware.ScopeReconcile), controllers.RunReconcile)
	}
}
