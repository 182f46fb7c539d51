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

type broadcastRepository struct {
	collection *mongo.Collection
	clicks     *mongo.Collection
}

func NewBroadcastRepository(db *mongo.Database) interfaces.BroadcastRepository {
	return &broadcastRepository{
		collection: db.Collection("broadcasts"),
		clicks:     db.Collection("link_clicks"),
	}
}

func (r *broadcastRepository) Create(ctx context.Context, broadcast *models.Broadcast) error {
	broadcast.ID = primitive.NewObjectID()
	broadcast.CreatedAt = time.Now()
	broadcast.UpdatedAt = time.Now()

	if broadcast.Status == "" {
		broadcast.Status = models.BroadcastStatusScheduled
	}

	_, err := r.collection.InsertOne(ctx, broadcast)
	if err != nil {
		return fmt.Errorf("failed to create broadcast: %w", err)
	}

	return nil
}

func (r *broadcastRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Broadcast, error) {
	var broadcast models.Broadcast
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&broadcast)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get broadcast: %w", err)
	}

	return &broadcast, nil
}

func (r *broadcastRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update broadcast: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *broadcastRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Broadcast, int64, error) {
	query := bson.M{}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count broadcasts: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var broadcasts []*models.Broadcast
	if err := cursor.All(ctx, &broadcasts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode broadcasts: %w", err)
	}

	return broadcasts, total, nil
}

func (r *broadcastRepository) RecordLinkClick(ctx context.Context, click *models.LinkClick) error {
	click.ID = primitive.NewObjectID()
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}

	_, err := r.clicks.InsertOne(ctx, click)
	if err != nil {
		return fmt.Errorf("failed to record link click: %w", err)
	}

	return nil
}

// GetLinkClickStats aggregates clicks per URL on read: total clicks and the
// number of distinct users who clicked.
func (r *broadcastRepository) GetLinkClickStats(ctx context.Context, broadcastID primitive.ObjectID) ([]*models.LinkClickStats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"broadcast_id": broadcastID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":          "$url",
			"total_clicks": bson.M{"$sum": 1},
			"users":        bson.M{"$addToSet": "$user_id"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"total_clicks":    1,
			"unique_clickers": bson.M{"$size": "$users"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"total_clicks": -1}}},
	}

	cursor, err := r.clicks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate link clicks: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []*models.LinkClickStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode link click stats: %w", err)
	}

	return stats, nil
}
