package interfaces

import (
	"context"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FollowRepository interface {
	Upsert(ctx context.Context, follow *models.Follow) error
	GetByUserAndBusiness(ctx context.Context, userID, businessID primitive.ObjectID) (*models.Follow, error)
	UpdateStatus(ctx context.Context, userID, businessID primitive.ObjectID, status models.FollowStatus) error

	// GetActiveBusinessIDs lists businesses the user follows with active
	// status; the following feed short-circuits on an empty result.
	GetActiveBusinessIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)

	// GetNotifiableFollowerIDs lists followers of a business whose follow is
	// active and whose notification flag for the deal kind is on.
	GetNotifiableFollowerIDs(ctx context.Context, businessID primitive.ObjectID, flashDeal bool) ([]primitive.ObjectID, error)

	// GetFollowerIDs lists every follower regardless of notification flags;
	// used to exclude existing followers from the nearby audience.
	GetFollowerIDs(ctx context.Context, businessID primitive.ObjectID) ([]primitive.ObjectID, error)
}
