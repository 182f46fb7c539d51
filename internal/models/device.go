package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformWeb     DevicePlatform = "web"
)

// DeviceRegistration is a (user, token) pair used to address the push gateway.
// The pair is unique; re-registering an existing token is an upsert, not a
// conflict. Tokens reported invalid by the gateway are deactivated, never deleted.
type DeviceRegistration struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Token      string             `json:"token" bson:"token" validate:"required"`
	Platform   DevicePlatform     `json:"platform" bson:"platform" default:"android"`
	IsActive   bool               `json:"is_active" bson:"is_active" default:"true"`
	LastSeenAt time.Time          `json:"last_seen_at" bson:"last_seen_at"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
