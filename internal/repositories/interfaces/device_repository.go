package interfaces

import (
	"context"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeviceRepository interface {
	// Upsert registers a device token. A duplicate (user, token) pair
	// refreshes the existing registration instead of failing.
	Upsert(ctx context.Context, device *models.DeviceRegistration) error

	GetActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]*models.DeviceRegistration, error)

	// DeactivateTokens flips is_active off in bulk for tokens the push
	// gateway reported invalid or unregistered. Rows are never deleted.
	DeactivateTokens(ctx context.Context, tokens []string) (int64, error)
}
