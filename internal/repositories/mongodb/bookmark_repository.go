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
)

type bookmarkRepository struct {
	collection *mongo.Collection
}

func NewBookmarkRepository(db *mongo.Database) interfaces.BookmarkRepository {
	return &bookmarkRepository{
		collection: db.Collection("bookmarks"),
	}
}

func (r *bookmarkRepository) Add(ctx context.Context, bookmark *models.Bookmark) error {
	bookmark.ID = primitive.NewObjectID()
	bookmark.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, bookmark)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to add bookmark: %w", err)
	}

	return nil
}

func (r *bookmarkRepository) Remove(ctx context.Context, userID, dealID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "deal_id": dealID})
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// GetBookmarkedDealIDs answers "which of these deals has the user
// bookmarked" with one query over the page's deal ids.
func (r *bookmarkRepository) GetBookmarkedDealIDs(ctx context.Context, userID primitive.ObjectID, dealIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	bookmarked := make(map[primitive.ObjectID]bool, len(dealIDs))
	if len(dealIDs) == 0 {
		return bookmarked, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{
		"user_id": userID,
		"deal_id": bson.M{"$in": dealIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check bookmarks: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var bookmark models.Bookmark
		if err := cursor.Decode(&bookmark); err != nil {
			return nil, fmt.Errorf("failed to decode bookmark: %w", err)
		}
		bookmarked[bookmark.DealID] = true
	}

	return bookmarked, cursor.Err()
}
