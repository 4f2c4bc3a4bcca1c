package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressEndpoints(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "resident", models.RoleCustomer)
	other := createTestUser(t, db, "neighbour", models.RoleCustomer)
	foreign := createTestAddress(t, db, other.ID, "400001", true)

	router := setupTestRouter()
	auth := mockAuthMiddleware(user.Auth0ID, user.Role, "t")
	router.POST("/addresses", auth, CreateAddress)
	router.GET("/addresses", auth, ListAddresses)
	router.PUT("/addresses/:id/default", auth, SetDefaultAddress)

	w := doJSON(router, http.MethodPost, "/addresses", gin.H{
		"address_line1": "4 Residency Rd", "city": "Bengaluru", "state": "Karnataka", "pincode": "560025",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	first := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, first["is_default"])
	assert.Equal(t, "India", first["country"])

	w = doJSON(router, http.MethodPost, "/addresses", gin.H{
		"address_line1": "9 Brigade Rd", "city": "Bengaluru", "state": "Karnataka", "pincode": "560001",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, second["is_default"])

	w = doJSON(router, http.MethodPut, "/addresses/"+itoa(uint(second["id"].(float64)))+"/default", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/addresses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0].(map[string]interface{})["id"])
	assert.Equal(t, false, list[1].(map[string]interface{})["is_default"])

	w = doJSON(router, http.MethodPut, "/addresses/"+itoa(foreign.ID)+"/default", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/addresses", gin.H{
		"address_line1": "x", "city": "y", "state": "z", "pincode": "56A0",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}
