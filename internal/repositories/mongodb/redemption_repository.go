package mongodb

import (
	"context"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type redemptionRepository struct {
	collection *mongo.Collection
}

func NewRedemptionRepository(db *mongo.Database) interfaces.RedemptionRepository {
	return &redemptionRepository{
		collection: db.Collection("redemptions"),
	}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.Redemption) error {
	redemption.ID = primitive.NewObjectID()
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, redemption)
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

func (r *redemptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	return &redemption, nil
}

func (r *redemptionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	return r.list(ctx, bson.M{"user_id": userID}, params)
}

func (r *redemptionRepository) GetByDealID(ctx context.Context, dealID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	return r.list(ctx, bson.M{"deal_id": dealID}, params)
}

func (r *redemptionRepository) CountByDealAndUser(ctx context.Context, dealID, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"deal_id": dealID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return count, nil
}

func (r *redemptionRepository) list(ctx context.Context, query bson.M, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer cursor.Close(ctx)

	var redemptions []*models.Redemption
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode redemptions: %w", err)
	}

	return redemptions, total, nil
}
