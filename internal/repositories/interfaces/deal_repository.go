package interfaces

import (
	"context"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DealListFilter narrows active-deal queries for the feed engine.
type DealListFilter struct {
	BusinessIDs []primitive.ObjectID
	Category    string
	Now         time.Time
	// Limit caps unpaginated candidate queries (nearby feed filters by
	// distance in the service layer before paginating).
	Limit int64
}

// DealRepository is the only component allowed to mutate deal rows.
type DealRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Status transitions. TransitionStatus only applies when the deal is
	// currently in the expected status, so a terminal status can never be
	// overwritten by a stale caller.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.DealStatus) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error

	// RedeemOne performs the atomic conditional redemption increment: in a
	// single statement it increments quantity_redeemed only while the deal is
	// active with inventory remaining, and flips status to sold_out when the
	// increment exhausts the inventory. Returns the post-increment deal, or
	// ErrNoInventory when the condition did not match.
	RedeemOne(ctx context.Context, id primitive.ObjectID) (*models.Deal, error)

	// Feed queries
	ListActiveByBusinessIDs(ctx context.Context, filter DealListFilter, params *utils.PaginationParams) ([]*models.Deal, int64, error)
	ListActiveCandidates(ctx context.Context, filter DealListFilter) ([]*models.Deal, error)

	// Maintenance
	CountByBusinessID(ctx context.Context, businessID primitive.ObjectID) (int64, error)
}
