package mongodb

import (
	"context"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type conversationRepository struct {
	collection *mongo.Collection
	messages   *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) interfaces.ConversationRepository {
	return &conversationRepository{
		collection: db.Collection("conversations"),
		messages:   db.Collection("conversation_messages"),
	}
}

func (r *conversationRepository) FindOrCreateDirect(ctx context.Context, senderID, recipientID primitive.ObjectID) (*models.Conversation, bool, error) {
	now := time.Now()

	filter := bson.M{
		"participants": bson.M{"$all": bson.A{senderID, recipientID}},
		"status":       models.ConversationStatusActive,
	}
	update := bson.M{
		"$set": bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"_id":          primitive.NewObjectID(),
			"participants": bson.A{senderID, recipientID},
			"status":       models.ConversationStatusActive,
			"created_at":   now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conversation models.Conversation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conversation)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find or create conversation: %w", err)
	}

	created := conversation.CreatedAt.Equal(now)

	return &conversation, created, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, message *models.ConversationMessage) error {
	message.ID = primitive.NewObjectID()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.Type == "" {
		message.Type = models.MessageTypeText
	}

	_, err := r.messages.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": message.ConversationID},
		bson.M{"$set": bson.M{"last_message": message, "updated_at": message.CreatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation last message: %w", err)
	}

	return nil
}
