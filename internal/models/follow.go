package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FollowStatus string

const (
	FollowStatusActive     FollowStatus = "active"
	FollowStatusMuted      FollowStatus = "muted"
	FollowStatusUnfollowed FollowStatus = "unfollowed"
)

type Follow struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	BusinessID       primitive.ObjectID `json:"business_id" bson:"business_id" validate:"required"`
	Status           FollowStatus       `json:"status" bson:"status" default:"active"`
	NotifyNewDeals   bool               `json:"notify_new_deals" bson:"notify_new_deals" default:"true"`
	NotifyFlashDeals bool               `json:"notify_flash_deals" bson:"notify_flash_deals" default:"true"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}
