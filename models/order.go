package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry. The catalog itself is managed elsewhere; reviews
// and verified-purchase checks only need its identity.
type Product struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `gorm:"not null" json:"name"`
	Slug                 string         `gorm:"uniqueIndex;not null" json:"slug"`
	Price                int64          `gorm:"not null;check:price >= 0" json:"price"` // paise
	RequiresPrescription bool           `gorm:"not null;default:false" json:"requires_prescription"`
	IsActive             bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// Order represents a catalog (non-prescription) order placed through the cart
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderNumber   string         `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID    uint           `gorm:"not null;index" json:"customer_id"` // foreign key to users table
	Customer      User           `gorm:"foreignKey:CustomerID" json:"-"`
	Status        string         `gorm:"not null;default:'pending'" json:"status"` // pending, processing, shipped, delivered, cancelled
	PaymentStatus string         `gorm:"not null;default:'pending'" json:"payment_status"`
	Total         int64          `gorm:"not null" json:"total"` // paise
	Items         []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product line of a catalog order
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // paise
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
