package interfaces

import (
	"context"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationRepository interface {
	// FindOrCreateDirect returns the direct conversation between two users,
	// creating it when absent. The second return value reports creation.
	FindOrCreateDirect(ctx context.Context, senderID, recipientID primitive.ObjectID) (*models.Conversation, bool, error)

	AppendMessage(ctx context.Context, message *models.ConversationMessage) error
}
