package services

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
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
	require.NoError(t, err, "Failed to connect to test database")

	// Every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db, "sqlite3"), "Failed to migrate test database")
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) models.User {
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

func createAddress(t *testing.T, db *gorm.DB, userID uint, pincode string, isDefault bool) models.Address {
	t.Helper()
	address := models.Address{
		UserID:       userID,
		AddressLine1: fmt.Sprintf("%s Residency", pincode),
		City:         "Bengaluru",
		State:        "Karnataka",
		Country:      "India",
		Pincode:      pincode,
		IsDefault:    isDefault,
	}
	require.NoError(t, db.Create(&address).Error)
	return address
}

// invoiceFixture is a prescription with one invoice in the given status
type invoiceFixture struct {
	Prescription models.Prescription
	Invoice      models.PrescriptionInvoice
}

func createInvoice(t *testing.T, db *gorm.DB, userID uint, status string, items ...models.PrescriptionInvoiceItem) invoiceFixture {
	t.Helper()

	prescription := models.Prescription{
		UserID:  userID,
		FileURL: fmt.Sprintf("%d/%d-1700000000000.pdf", userID, userID),
		Status:  models.PrescriptionInvoiced,
	}
	require.NoError(t, db.Create(&prescription).Error)

	var total int64
	for _, it := range items {
		total += it.TotalPrice
	}
	invoice := models.PrescriptionInvoice{
		PrescriptionID: prescription.ID,
		Status:         status,
		TotalAmount:    total,
		Items:          items,
	}
	require.NoError(t, db.Create(&invoice).Error)

	return invoiceFixture{Prescription: prescription, Invoice: invoice}
}

func item(name string, qty int, unit int64) models.PrescriptionInvoiceItem {
	return models.PrescriptionInvoiceItem{
		MedicationName: name,
		Strength:       "500mg",
		Form:           "tablet",
		Quantity:       qty,
		UnitPrice:      unit,
		TotalPrice:     unit * int64(qty),
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.GoEnv = "test"
	cfg.RazorpayKeySecret = "test_secret"
	return cfg
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
