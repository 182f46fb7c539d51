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

type deviceRepository struct {
	collection *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) interfaces.DeviceRepository {
	return &deviceRepository{
		collection: db.Collection("devices"),
	}
}

// Upsert keys on the unique (user_id, token) pair; re-registration refreshes
// the row and reactivates it.
func (r *deviceRepository) Upsert(ctx context.Context, device *models.DeviceRegistration) error {
	now := time.Now()

	if device.Platform == "" {
		device.Platform = models.DevicePlatformAndroid
	}

	update := bson.M{
		"$set": bson.M{
			"platform":     device.Platform,
			"is_active":    true,
			"last_seen_at": now,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    device.UserID,
			"token":      device.Token,
			"created_at": now,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": device.UserID, "token": device.Token},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	return nil
}

func (r *deviceRepository) GetActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]*models.DeviceRegistration, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{
		"user_id":   bson.M{"$in": userIDs},
		"is_active": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cursor.Close(ctx)

	var devices []*models.DeviceRegistration
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}

	return devices, nil
}

func (r *deviceRepository) DeactivateTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"token": bson.M{"$in": tokens}},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate tokens: %w", err)
	}

	return result.ModifiedCount, nil
}
