package controllers

import (
	"net/http"
	"testing"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCheckout(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "shopper", models.RoleCustomer)
	home := createTestAddress(t, db, user.ID, "999999", true)
	office := createTestAddress(t, db, user.ID, "560001", false)
	require.NoError(t, db.Create(&models.DeliveryZone{Pincode: "560001", DeliveryFee: 2900, DeliveryTime: "1-2 Days", IsServiceable: true}).Error)
	prescription, _ := createTestInvoice(t, db, user.ID, models.InvoiceSent, 25000, 2)

	router := setupTestRouter()
	router.GET("/prescriptions/:id/checkout", mockAuthMiddleware(user.Auth0ID, user.Role, "t"), GetCheckout)
	path := "/prescriptions/" + itoa(prescription.ID) + "/checkout"

	w := doJSON(router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(50000), data["subtotal"])
	assert.Equal(t, float64(54900), data["total"])
	assert.Equal(t, "₹549", data["total_display"])
	assert.Equal(t, true, data["can_pay"])
	assert.Equal(t, float64(home.ID), data["address"].(map[string]interface{})["id"])

	w = doJSON(router, http.MethodGet, path+"?address_id="+itoa(office.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(52900), data["total"])
	assert.Equal(t, "1-2 Days", data["delivery"].(map[string]interface{})["delivery_time"])

	w = doJSON(router, http.MethodGet, path+"?address_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDeliveryQuote(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.DeliveryZone{Pincode: "110001", DeliveryFee: 0, DeliveryTime: "Same Day", IsServiceable: true}).Error)

	router := setupTestRouter()
	router.GET("/delivery/:pincode", GetDeliveryQuote)

	w := doJSON(router, http.MethodGet, "/delivery/110001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["delivery_fee"])
	assert.Equal(t, true, data["is_serviceable"])

	w = doJSON(router, http.MethodGet, "/delivery/400001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4900), data["delivery_fee"])
	assert.Equal(t, "3-5 Days", data["delivery_time"])

	w = doJSON(router, http.MethodGet, "/delivery/%20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PINCODE", errorCode(t, w))
}
