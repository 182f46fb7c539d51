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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type followRepository struct {
	collection *mongo.Collection
}

func NewFollowRepository(db *mongo.Database) interfaces.FollowRepository {
	return &followRepository{
		collection: db.Collection("follows"),
	}
}

func (r *followRepository) Upsert(ctx context.Context, follow *models.Follow) error {
	now := time.Now()

	if follow.Status == "" {
		follow.Status = models.FollowStatusActive
	}

	update := bson.M{
		"$set": bson.M{
			"status":             follow.Status,
			"notify_new_deals":   follow.NotifyNewDeals,
			"notify_flash_deals": follow.NotifyFlashDeals,
			"updated_at":         now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    follow.UserID,
			"business_id": follow.BusinessID,
			"created_at": now,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": follow.UserID, "business_id": follow.BusinessID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert follow: %w", err)
	}

	return nil
}

func (r *followRepository) GetByUserAndBusiness(ctx context.Context, userID, businessID primitive.ObjectID) (*models.Follow, error) {
	var follow models.Follow
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "business_id": businessID}).Decode(&follow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get follow: %w", err)
	}

	return &follow, nil
}

func (r *followRepository) UpdateStatus(ctx context.Context, userID, businessID primitive.ObjectID, status models.FollowStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": userID, "business_id": businessID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update follow status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *followRepository) GetActiveBusinessIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.distinctObjectIDs(ctx, "business_id", bson.M{
		"user_id": userID,
		"status":  models.FollowStatusActive,
	})
}

func (r *followRepository) GetNotifiableFollowerIDs(ctx context.Context, businessID primitive.ObjectID, flashDeal bool) ([]primitive.ObjectID, error) {
	query := bson.M{
		"business_id": businessID,
		"status":      models.FollowStatusActive,
	}
	if flashDeal {
		query["notify_flash_deals"] = true
	} else {
		query["notify_new_deals"] = true
	}

	return r.distinctObjectIDs(ctx, "user_id", query)
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, businessID primitive.ObjectID) ([]primitive.ObjectID, error) {
	// Unfollowed relations are kept for flag history but are not followers.
	query := bson.M{
		"business_id": businessID,
		"status":      bson.M{"$ne": models.FollowStatusUnfollowed},
	}

	return r.distinctObjectIDs(ctx, "user_id", query)
}

func (r *followRepository) distinctObjectIDs(ctx context.Context, field string, query bson.M) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, field, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", field, err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		if id, ok := value.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
