package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		token := authHeader[7:] // Remove "Bearer " prefix

		userInfo, exists := userInfoMap[token]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	}))
}

// mockAuthMiddleware sets up the context exactly as EnsureValidToken does
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return mockAuthWithScope(auth0ID, role, accessToken, "")
}

func mockAuthWithScope(auth0ID, role, accessToken, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", &validator.ValidatedClaims{
			CustomClaims: &middleware.CustomClaims{Role: role, Scope: scope},
		})
		c.Next()
	}
}

func createTestUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   name + "@example.com",
		Role:    role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestAddress(t *testing.T, db *gorm.DB, userID uint, pincode string, isDefault bool) models.Address {
	t.Helper()
	address := models.Address{
		UserID:       userID,
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Country:      "India",
		Pincode:      pincode,
		IsDefault:    isDefault,
	}
	require.NoError(t, db.Create(&address).Error)
	return address
}

// createTestInvoice creates a prescription for userID with one invoice
// whose items total the sum of unit*qty.
func createTestInvoice(t *testing.T, db *gorm.DB, userID uint, status string, unitPrice int64, qty int) (models.Prescription, models.PrescriptionInvoice) {
	t.Helper()

	prescription := models.Prescription{
		UserID:  userID,
		FileURL: fmt.Sprintf("%d/1700000000000-%d.pdf", userID, userID),
		Status:  models.PrescriptionInvoiced,
	}
	require.NoError(t, db.Create(&prescription).Error)

	total := unitPrice * int64(qty)
	invoice := models.PrescriptionInvoice{
		PrescriptionID: prescription.ID,
		TotalAmount:    total,
		Status:         status,
		Items: []models.PrescriptionInvoiceItem{{
			MedicationName: "Amoxicillin",
			Strength:       "500mg",
			Form:           "capsule",
			Quantity:       qty,
			UnitPrice:      unitPrice,
			TotalPrice:     total,
		}},
	}
	require.NoError(t, db.Create(&invoice).Error)
	return prescription, invoice
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	errorData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "Response body: %s", w.Body.String())
	return errorData["code"].(string)
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
