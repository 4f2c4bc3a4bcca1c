package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutQuote_InvoicePlusFallbackFee(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "checkout", models.RoleCustomer)
	address := createAddress(t, db, user.ID, "999999", true)
	fx := createInvoice(t, db, user.ID, models.InvoiceSent, item("Amoxicillin", 2, 25000))

	quote, err := NewCheckoutService(db).Quote(context.Background(), user, fx.Prescription.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, fx.Invoice.ID, quote.Invoice.ID)
	assert.Equal(t, address.ID, quote.Address.ID)
	assert.Equal(t, int64(50000), quote.Subtotal)
	assert.Equal(t, int64(4900), quote.Delivery.DeliveryFee)
	assert.Equal(t, FallbackDeliveryTime, quote.Delivery.DeliveryTime)
	assert.Equal(t, int64(54900), quote.Total)
	assert.Equal(t, "₹549", quote.TotalDisplay)
	assert.True(t, quote.CanPay())
}

func TestCheckoutQuote_ExplicitAddressUsesItsZone(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "zoned", models.RoleCustomer)
	createAddress(t, db, user.ID, "110001", true)
	office := createAddress(t, db, user.ID, "560001", false)
	require.NoError(t, db.Create(&models.DeliveryZone{Pincode: "560001", DeliveryFee: 0, DeliveryTime: "Same Day", IsServiceable: true}).Error)
	fx := createInvoice(t, db, user.ID, models.InvoiceSent, item("Insulin", 1, 80000))

	quote, err := NewCheckoutService(db).Quote(context.Background(), user, fx.Prescription.ID, &office.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.Delivery.DeliveryFee)
	assert.Equal(t, "Same Day", quote.Delivery.DeliveryTime)
	assert.Equal(t, int64(80000), quote.Total)
}

func TestCheckoutQuote_NotPayable(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "blocked", models.RoleCustomer)
	createAddress(t, db, user.ID, "700001", true)
	require.NoError(t, db.Create(&models.DeliveryZone{Pincode: "700001", DeliveryTime: NotAvailable}).Error)
	fx := createInvoice(t, db, user.ID, models.InvoiceSent, item("Insulin", 1, 80000))

	quote, err := NewCheckoutService(db).Quote(context.Background(), user, fx.Prescription.ID, nil)
	require.NoError(t, err)
	assert.False(t, quote.Delivery.IsServiceable)
	assert.False(t, quote.CanPay())
}

func TestCheckoutQuote_Errors(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner", models.RoleCustomer)
	stranger := createUser(t, db, "other", models.RoleCustomer)
	createAddress(t, db, stranger.ID, "400001", true)
	fx := createInvoice(t, db, owner.ID, models.InvoiceSent, item("Insulin", 1, 80000))
	svc := NewCheckoutService(db)

	_, err := svc.Quote(context.Background(), stranger, fx.Prescription.ID, nil)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Quote(context.Background(), owner, fx.Prescription.ID, nil)
	assert.True(t, errors.Is(err, ErrNoAddress))
}
