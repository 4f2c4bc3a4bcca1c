package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
)

// Headers read by HeaderAuth. They only exist in tests.
const (
	HeaderUser  = "X-Test-User"
	HeaderRole  = "X-Test-Role"
	HeaderScope = "X-Test-Scope"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, role string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, role string, scopes []string) {
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", MockValidatedClaims(userID, "https://test.auth0.com/", role, scopes))
}

// HeaderAuth stands in for EnsureValidToken: the caller names the subject,
// role and scopes in test headers. Requests without HeaderUser get a 401.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUser)
		if userID == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, userID, c.GetHeader(HeaderRole), strings.Fields(c.GetHeader(HeaderScope)))
		c.Next()
	}
}
