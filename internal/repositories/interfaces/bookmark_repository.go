package interfaces

import (
	"context"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookmarkRepository interface {
	Add(ctx context.Context, bookmark *models.Bookmark) error
	Remove(ctx context.Context, userID, dealID primitive.ObjectID) error

	// GetBookmarkedDealIDs resolves bookmark flags for a feed page with one
	// batched existence check instead of a query per deal.
	GetBookmarkedDealIDs(ctx context.Context, userID primitive.ObjectID, dealIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}
