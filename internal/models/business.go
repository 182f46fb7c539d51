package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BusinessStatus string

const (
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusSuspended BusinessStatus = "suspended"
	BusinessStatusClosed    BusinessStatus = "closed"
)

// GeoPoint is a plain lat/lng pair. Distances between points are computed
// with the haversine helpers in internal/utils.
type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
}

type Business struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID       primitive.ObjectID `json:"owner_id" bson:"owner_id" validate:"required"`
	Name          string             `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Description   string             `json:"description" bson:"description"`
	Category      string             `json:"category" bson:"category"`
	Location      GeoPoint           `json:"location" bson:"location" validate:"required"`
	Address       string             `json:"address" bson:"address"`
	City          string             `json:"city" bson:"city"`
	Phone         string             `json:"phone" bson:"phone"`
	LogoURL       string             `json:"logo_url" bson:"logo_url"`
	Status        BusinessStatus     `json:"status" bson:"status" default:"active"`
	FollowerCount int                `json:"follower_count" bson:"follower_count" default:"0"`
	DealCount     int                `json:"deal_count" bson:"deal_count" default:"0"`
	TotalRedeemed int                `json:"total_redeemed" bson:"total_redeemed" default:"0"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
