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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type dealRepository struct {
	collection *mongo.Collection
}

func NewDealRepository(db *mongo.Database) interfaces.DealRepository {
	return &dealRepository{
		collection: db.Collection("deals"),
	}
}

func (r *dealRepository) Create(ctx context.Context, deal *models.Deal) error {
	deal.ID = primitive.NewObjectID()
	deal.CreatedAt = time.Now()
	deal.UpdatedAt = time.Now()

	if deal.Status == "" {
		deal.Status = models.DealStatusActive
	}
	if deal.DiscountPercentage == 0 {
		deal.DiscountPercentage = deal.ComputeDiscountPercentage()
	}

	_, err := r.collection.InsertOne(ctx, deal)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	return nil
}

func (r *dealRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	var deal models.Deal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&deal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return &deal, nil
}

func (r *dealRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// TransitionStatus moves a deal from one status to another only if it is
// still in the expected source status. Terminal statuses therefore cannot be
// overwritten by a racing caller.
func (r *dealRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.DealStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to transition deal status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *dealRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.DealStatusDeleted}},
		bson.M{"$set": bson.M{"status": models.DealStatusDeleted, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// RedeemOne is the no-oversell guarantee. The filter admits the row only
// while it is active with inventory remaining, and the pipeline update both
// increments the counter and flips status to sold_out when the increment
// reaches quantity_available, all in one statement against the row. Two
// concurrent callers can never both pass the inventory check.
func (r *dealRepository) RedeemOne(ctx context.Context, id primitive.ObjectID) (*models.Deal, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.DealStatusActive,
		"$or": bson.A{
			bson.M{"quantity_available": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$quantity_redeemed", "$quantity_available"}}},
		},
	}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"quantity_redeemed": bson.M{"$add": bson.A{"$quantity_redeemed", 1}},
			"status": bson.M{"$cond": bson.M{
				"if": bson.M{"$and": bson.A{
					bson.M{"$ne": bson.A{"$quantity_available", nil}},
					bson.M{"$gte": bson.A{
						bson.M{"$add": bson.A{"$quantity_redeemed", 1}},
						"$quantity_available",
					}},
				}},
				"then": models.DealStatusSoldOut,
				"else": "$status",
			}},
			"updated_at": "$$NOW",
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var deal models.Deal
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&deal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNoInventory
		}
		return nil, fmt.Errorf("failed to redeem deal: %w", err)
	}

	return &deal, nil
}

func (r *dealRepository) ListActiveByBusinessIDs(ctx context.Context, filter interfaces.DealListFilter, params *utils.PaginationParams) ([]*models.Deal, int64, error) {
	query := r.activeQuery(filter)
	query["business_id"] = bson.M{"$in": filter.BusinessIDs}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deals: %w", err)
	}
	defer cursor.Close(ctx)

	var deals []*models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, 0, fmt.Errorf("failed to decode deals: %w", err)
	}

	return deals, total, nil
}

// ListActiveCandidates returns newest-first active deals for the nearby feed;
// the service layer applies the distance predicate before paginating.
func (r *dealRepository) ListActiveCandidates(ctx context.Context, filter interfaces.DealListFilter) ([]*models.Deal, error) {
	query := r.activeQuery(filter)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list deal candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var deals []*models.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, fmt.Errorf("failed to decode deal candidates: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) CountByBusinessID(ctx context.Context, businessID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"business_id": businessID,
		"status":      bson.M{"$ne": models.DealStatusDeleted},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count business deals: %w", err)
	}
	return count, nil
}

func (r *dealRepository) activeQuery(filter interfaces.DealListFilter) bson.M {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	query := bson.M{
		"status":     models.DealStatusActive,
		"starts_at":  bson.M{"$lte": now},
		"expires_at": bson.M{"$gt": now},
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	return query
}
