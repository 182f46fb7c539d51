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

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	users := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users[user.ID] = &user
	}

	return users, cursor.Err()
}

func (r *userRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// GetUsersWithinBounds pre-filters on a lat/lng bounding box; the caller
// applies the exact haversine predicate.
func (r *userRepository) GetUsersWithinBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status":               models.UserStatusActive,
		"default_location":     bson.M{"$ne": nil},
		"default_location.lat": bson.M{"$gte": minLat, "$lte": maxLat},
		"default_location.lng": bson.M{"$gte": minLng, "$lte": maxLng},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users within bounds: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}

func (r *userRepository) GetIDsBySegment(ctx context.Context, filter interfaces.UserSegmentFilter) ([]primitive.ObjectID, error) {
	query := bson.M{"status": models.UserStatusActive}

	if filter.UserType != "" {
		query["user_type"] = filter.UserType
	}
	if !filter.CreatedAfter.IsZero() {
		query["created_at"] = bson.M{"$gte": filter.CreatedAfter}
	}
	if !filter.LastActiveAfter.IsZero() {
		query["last_active_at"] = bson.M{"$gte": filter.LastActiveAfter}
	}

	values, err := r.collection.Distinct(ctx, "_id", query)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user segment: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		if id, ok := value.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
