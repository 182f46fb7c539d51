package interfaces

import (
	"context"
	"time"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserSegmentFilter selects a broadcast target segment with simple
// predicates; zero values mean "no constraint".
type UserSegmentFilter struct {
	UserType        models.UserType
	CreatedAfter    time.Time
	LastActiveAfter time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// GetUsersWithinBounds lists active users whose stored default location
	// falls inside a lat/lng bounding box. Callers apply the exact
	// great-circle predicate on the result.
	GetUsersWithinBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*models.User, error)

	// GetIDsBySegment resolves a broadcast segment to user ids.
	GetIDsBySegment(ctx context.Context, filter UserSegmentFilter) ([]primitive.ObjectID, error)
}
