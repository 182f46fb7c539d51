package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bookmark marks a deal a user saved for later. Feed reads resolve bookmark
// flags with one batched existence check per page.
type Bookmark struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	DealID    primitive.ObjectID `json:"deal_id" bson:"deal_id" validate:"required"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
