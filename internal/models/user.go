package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string
type UserStatus string

const (
	UserTypeConsumer      UserType = "consumer"
	UserTypeBusinessOwner UserType = "business_owner"
	UserTypeAdmin         UserType = "admin"

	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName       string             `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName        string             `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Email           string             `json:"email" bson:"email" validate:"required,email"`
	Password        string             `json:"-" bson:"password"`
	ProfilePicture  string             `json:"profile_picture" bson:"profile_picture"`
	UserType        UserType           `json:"user_type" bson:"user_type" validate:"required"`
	Status          UserStatus         `json:"status" bson:"status" default:"active"`
	DefaultLocation *GeoPoint          `json:"default_location" bson:"default_location"`
	DefaultRadiusKm float64            `json:"default_radius_km" bson:"default_radius_km"`
	LastActiveAt    *time.Time         `json:"last_active_at" bson:"last_active_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt       *time.Time         `json:"deleted_at" bson:"deleted_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasDefaultLocation reports whether the nearby feed can fall back to the
// user's stored location.
func (u *User) HasDefaultLocation() bool {
	return u.DefaultLocation != nil
}
