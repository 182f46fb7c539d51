package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastStatus string
type BroadcastTarget string

const (
	BroadcastStatusScheduled BroadcastStatus = "scheduled"
	BroadcastStatusSending   BroadcastStatus = "sending"
	BroadcastStatusSent      BroadcastStatus = "sent"

	BroadcastTargetAll            BroadcastTarget = "all"
	BroadcastTargetNewUsers       BroadcastTarget = "new_users"
	BroadcastTargetActiveUsers    BroadcastTarget = "active_users"
	BroadcastTargetBusinessOwners BroadcastTarget = "business_owners"
	BroadcastTargetConsumers      BroadcastTarget = "consumers"
)

// DetectedLink is a URL found in a broadcast message body, with the byte
// position of its first occurrence.
type DetectedLink struct {
	URL      string `json:"url" bson:"url"`
	Position int    `json:"position" bson:"position"`
}

type BroadcastError struct {
	UserID primitive.ObjectID `json:"user_id" bson:"user_id"`
	Error  string             `json:"error" bson:"error"`
}

type Broadcast struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AdminID              primitive.ObjectID `json:"admin_id" bson:"admin_id" validate:"required"`
	Message              string             `json:"message" bson:"message" validate:"required"`
	TargetGroup          BroadcastTarget    `json:"target_group" bson:"target_group" validate:"required"`
	Status               BroadcastStatus    `json:"status" bson:"status" default:"scheduled"`
	UsersTargeted        int                `json:"users_targeted" bson:"users_targeted" default:"0"`
	MessagesSent         int                `json:"messages_sent" bson:"messages_sent" default:"0"`
	ConversationsCreated int                `json:"conversations_created" bson:"conversations_created" default:"0"`
	ErrorsCount          int                `json:"errors_count" bson:"errors_count" default:"0"`
	Errors               []BroadcastError   `json:"errors,omitempty" bson:"errors,omitempty"`
	DetectedLinks        []DetectedLink     `json:"detected_links,omitempty" bson:"detected_links,omitempty"`
	ScheduledAt          *time.Time         `json:"scheduled_at" bson:"scheduled_at"`
	SentAt               *time.Time         `json:"sent_at" bson:"sent_at"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

// LinkClick is append-only; click stats are aggregated on read, never
// denormalized onto the Broadcast row.
type LinkClick struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BroadcastID primitive.ObjectID `json:"broadcast_id" bson:"broadcast_id" validate:"required"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	URL         string             `json:"url" bson:"url" validate:"required"`
	ClickedAt   time.Time          `json:"clicked_at" bson:"clicked_at"`
}

// LinkClickStats is the read-side aggregation for one URL of a broadcast.
type LinkClickStats struct {
	URL            string `json:"url" bson:"_id"`
	TotalClicks    int64  `json:"total_clicks" bson:"total_clicks"`
	UniqueClickers int64  `json:"unique_clickers" bson:"unique_clickers"`
}
