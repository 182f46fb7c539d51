package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DealStatus string

const (
	DealStatusActive  DealStatus = "active"
	DealStatusSoldOut DealStatus = "sold_out"
	DealStatusExpired DealStatus = "expired"
	DealStatusDeleted DealStatus = "deleted"
)

type Deal struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BusinessID         primitive.ObjectID `json:"business_id" bson:"business_id" validate:"required"`
	Title              string             `json:"title" bson:"title" validate:"required,min=3,max=120"`
	Description        string             `json:"description" bson:"description" validate:"max=2000"`
	OriginalPrice      float64            `json:"original_price" bson:"original_price" validate:"required,gt=0"`
	DiscountedPrice    float64            `json:"discounted_price" bson:"discounted_price" validate:"required,gt=0"`
	DiscountPercentage float64            `json:"discount_percentage" bson:"discount_percentage"`
	Category           string             `json:"category" bson:"category"`
	Tags               []string           `json:"tags" bson:"tags"`
	ImageURL           string             `json:"image_url" bson:"image_url"`
	StartsAt           time.Time          `json:"starts_at" bson:"starts_at" validate:"required"`
	ExpiresAt          time.Time          `json:"expires_at" bson:"expires_at" validate:"required"`
	IsFlashDeal        bool               `json:"is_flash_deal" bson:"is_flash_deal" default:"false"`
	VisibilityRadiusKm float64            `json:"visibility_radius_km" bson:"visibility_radius_km"`
	QuantityAvailable  *int               `json:"quantity_available" bson:"quantity_available"`
	QuantityRedeemed   int                `json:"quantity_redeemed" bson:"quantity_redeemed" default:"0"`
	MaxPerUser         int                `json:"max_per_user" bson:"max_per_user"`
	Status             DealStatus         `json:"status" bson:"status" default:"active"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsUnlimited reports whether the deal has no inventory cap.
func (d *Deal) IsUnlimited() bool {
	return d.QuantityAvailable == nil
}

// RemainingQuantity returns how many redemptions are left, or -1 for unlimited deals.
func (d *Deal) RemainingQuantity() int {
	if d.QuantityAvailable == nil {
		return -1
	}
	remaining := *d.QuantityAvailable - d.QuantityRedeemed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SavingsAmount is the per-redemption discount captured on receipts.
func (d *Deal) SavingsAmount() float64 {
	return d.OriginalPrice - d.DiscountedPrice
}

// ComputeDiscountPercentage recomputes the derived percentage from the price pair.
func (d *Deal) ComputeDiscountPercentage() float64 {
	if d.OriginalPrice <= 0 {
		return 0
	}
	return (d.OriginalPrice - d.DiscountedPrice) / d.OriginalPrice * 100
}

// DealWithDistance is a feed item: the deal plus per-caller annotations.
type DealWithDistance struct {
	Deal         *Deal     `json:"deal"`
	Business     *Business `json:"business"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	IsBookmarked bool      `json:"is_bookmarked"`
}
