package interfaces

import (
	"context"

	"dealspot/internal/models"
	"dealspot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RedemptionRepository stores immutable audit rows. There is deliberately no
// update or delete operation.
type RedemptionRepository interface {
	Create(ctx context.Context, redemption *models.Redemption) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error)
	GetByDealID(ctx context.Context, dealID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error)
	CountByDealAndUser(ctx context.Context, dealID, userID primitive.ObjectID) (int64, error)
}
