package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string
type NotificationStatus string

const (
	NotificationTypeNewDeal   NotificationType = "new_deal"
	NotificationTypeFlashDeal NotificationType = "flash_deal"
	NotificationTypeBroadcast NotificationType = "broadcast"
	NotificationTypeGeneral   NotificationType = "general"

	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// Notification is the durable in-app record written for every dispatch target,
// independent of whether a push was delivered for it.
type Notification struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id" bson:"user_id" validate:"required"`
	Type      NotificationType       `json:"type" bson:"type" validate:"required"`
	Status    NotificationStatus     `json:"status" bson:"status" default:"unread"`
	Title     string                 `json:"title" bson:"title" validate:"required"`
	Message   string                 `json:"message" bson:"message" validate:"required"`
	Data      map[string]interface{} `json:"data" bson:"data"`
	ImageURL  string                 `json:"image_url" bson:"image_url"`
	DeepLink  string                 `json:"deep_link" bson:"deep_link"`
	ReadAt    *time.Time             `json:"read_at" bson:"read_at"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" bson:"updated_at"`
}
