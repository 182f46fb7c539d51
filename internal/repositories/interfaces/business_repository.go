package interfaces

import (
	"context"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BusinessRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, business *models.Business) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Business, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Denormalized counters, updated as side effects of follow/redemption
	// events. Increments are atomic per row.
	IncrementFollowerCount(ctx context.Context, id primitive.ObjectID, delta int) error
	IncrementDealCount(ctx context.Context, id primitive.ObjectID, delta int) error
	IncrementTotalRedeemed(ctx context.Context, id primitive.ObjectID, delta int) error
}
