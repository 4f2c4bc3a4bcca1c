package integration

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// issueInvoice plays the pharmacist: it prices a prescription and sends the invoice
func issueInvoice(t *testing.T, db *gorm.DB, prescriptionID uint, items ...models.PrescriptionInvoiceItem) models.PrescriptionInvoice {
	t.Helper()
	var total int64
	for _, it := range items {
		total += it.TotalPrice
	}
	invoice := models.PrescriptionInvoice{
		PrescriptionID: prescriptionID,
		Status:         models.InvoiceSent,
		TotalAmount:    total,
		Items:          items,
	}
	require.NoError(t, db.Create(&invoice).Error)
	require.NoError(t, db.Model(&models.Prescription{}).Where("id = ?", prescriptionID).
		Update("status", models.PrescriptionInvoiced).Error)
	return invoice
}

func line(name string, qty int, unit int64) models.PrescriptionInvoiceItem {
	return models.PrescriptionInvoiceItem{
		MedicationName: name,
		Strength:       "500mg",
		Form:           "tablet",
		Quantity:       qty,
		UnitPrice:      unit,
		TotalPrice:     unit * int64(qty),
	}
}

func addAddress(t *testing.T, db *gorm.DB, userID uint, pincode string) models.Address {
	t.Helper()
	address := models.Address{
		UserID:       userID,
		AddressLine1: "221B Linking Rd",
		City:         "Mumbai",
		State:        "Maharashtra",
		Country:      "India",
		Pincode:      pincode,
		IsDefault:    true,
	}
	require.NoError(t, db.Create(&address).Error)
	return address
}
