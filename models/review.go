package models

import "time"

// Review is a product review. (ProductID, UserID) is unique: a user edits their
// review rather than adding a second one.
type Review struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProductID          uint      `gorm:"not null;uniqueIndex:ux_reviews_product_user,priority:1" json:"product_id"`
	UserID             uint      `gorm:"not null;uniqueIndex:ux_reviews_product_user,priority:2" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID" json:"-"`
	OrderID            *uint     `json:"order_id"`
	Rating             int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment            string    `gorm:"type:text" json:"comment"`
	IsVerifiedPurchase bool      `gorm:"not null;default:false" json:"is_verified_purchase"`
	IsApproved         bool      `gorm:"not null;default:false;index" json:"is_approved"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}
