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
)

type businessRepository struct {
	collection *mongo.Collection
}

func NewBusinessRepository(db *mongo.Database) interfaces.BusinessRepository {
	return &businessRepository{
		collection: db.Collection("businesses"),
	}
}

func (r *businessRepository) Create(ctx context.Context, business *models.Business) error {
	business.ID = primitive.NewObjectID()
	business.CreatedAt = time.Now()
	business.UpdatedAt = time.Now()

	if business.Status == "" {
		business.Status = models.BusinessStatusActive
	}

	_, err := r.collection.InsertOne(ctx, business)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

func (r *businessRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Business, error) {
	var business models.Business
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&business)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &business, nil
}

func (r *businessRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Business, error) {
	businesses := make(map[primitive.ObjectID]*models.Business, len(ids))
	if len(ids) == 0 {
		return businesses, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get businesses: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var business models.Business
		if err := cursor.Decode(&business); err != nil {
			return nil, fmt.Errorf("failed to decode business: %w", err)
		}
		businesses[business.ID] = &business
	}

	return businesses, cursor.Err()
}

func (r *businessRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *businessRepository) IncrementFollowerCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	return r.increment(ctx, id, "follower_count", delta)
}

func (r *businessRepository) IncrementDealCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	return r.increment(ctx, id, "deal_count", delta)
}

func (r *businessRepository) IncrementTotalRedeemed(ctx context.Context, id primitive.ObjectID, delta int) error {
	return r.increment(ctx, id, "total_redeemed", delta)
}

func (r *businessRepository) increment(ctx context.Context, id primitive.ObjectID, field string, delta int) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{field: delta},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}

	return nil
}
