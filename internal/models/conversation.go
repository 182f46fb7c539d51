package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationStatus string
type MessageType string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusClosed ConversationStatus = "closed"

	MessageTypeText      MessageType = "text"
	MessageTypeBroadcast MessageType = "broadcast"
)

// Conversation is a direct admin-to-user thread. Broadcast delivery appends
// a message to the existing thread or creates one per recipient.
type Conversation struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants" validate:"required"`
	Status       ConversationStatus   `json:"status" bson:"status" default:"active"`
	LastMessage  *ConversationMessage `json:"last_message" bson:"last_message"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

type ConversationMessage struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID  `json:"conversation_id" bson:"conversation_id" validate:"required"`
	SenderID       primitive.ObjectID  `json:"sender_id" bson:"sender_id" validate:"required"`
	Type           MessageType         `json:"type" bson:"type" default:"text"`
	Content        string              `json:"content" bson:"content" validate:"required"`
	BroadcastID    *primitive.ObjectID `json:"broadcast_id,omitempty" bson:"broadcast_id,omitempty"`
	ReadAt         *time.Time          `json:"read_at" bson:"read_at"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
}
