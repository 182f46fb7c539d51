package interfaces

import (
	"context"

	"dealspot/internal/models"
	"dealspot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BroadcastRepository interface {
	Create(ctx context.Context, broadcast *models.Broadcast) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Broadcast, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Broadcast, int64, error)

	// Link engagement. Clicks are append-only and aggregated on read.
	RecordLinkClick(ctx context.Context, click *models.LinkClick) error
	GetLinkClickStats(ctx context.Context, broadcastID primitive.ObjectID) ([]*models.LinkClickStats, error)
}
