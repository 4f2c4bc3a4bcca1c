package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryZone is an exact-pincode delivery rule
type DeliveryZone struct {
	Pincode       string    `gorm:"primaryKey" json:"pincode"`
	IsServiceable bool      `gorm:"not null" json:"is_serviceable"`
	DeliveryFee   int64     `gorm:"not null;default:0" json:"delivery_fee"` // paise
	DeliveryTime  string    `gorm:"not null" json:"delivery_time"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (DeliveryZone) TableName() string {
	return "delivery_zones"
}

// DeliveryZoneDefaults is the single fallback row consulted when a pincode has no zone
type DeliveryZoneDefaults struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	DefaultDeliveryFee  int64                       `gorm:"not null" json:"default_delivery_fee"` // paise
	DefaultDeliveryTime string                      `gorm:"not null" json:"default_delivery_time"`
	BlacklistedPincodes datatypes.JSONSlice[string] `json:"blacklisted_pincodes"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

func (DeliveryZoneDefaults) TableName() string {
	return "delivery_zone_defaults"
}

// IsBlacklisted reports whether pincode is excluded from default delivery.
func (d DeliveryZoneDefaults) IsBlacklisted(pincode string) bool {
	for _, p := range d.BlacklistedPincodes {
		if p == pincode {
			return true
		}
	}
	return false
}
