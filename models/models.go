package models

// All returns every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Address{},
		&Prescription{},
		&PrescriptionInvoice{},
		&PrescriptionInvoiceItem{},
		&DeliveryZone{},
		&DeliveryZoneDefaults{},
		&PrescriptionOrder{},
		&PrescriptionOrderItem{},
		&PaymentAttempt{},
		&PendingMaterialization{},
		&Review{},
	}
}
