package services

import (
	"context"
	"errors"
	"fmt"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"
	"dealspot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AudienceService computes the deduplicated set of users to notify about a
// deal: notifiable followers of the business plus nearby non-followers, never
// including the business owner. An empty audience is a normal outcome, not an
// error.
type AudienceService interface {
	Resolve(ctx context.Context, dealID primitive.ObjectID) ([]primitive.ObjectID, error)
	ResolveForDeal(ctx context.Context, deal *models.Deal, business *models.Business) ([]primitive.ObjectID, error)
}

type audienceService struct {
	dealRepo     interfaces.DealRepository
	businessRepo interfaces.BusinessRepository
	followRepo   interfaces.FollowRepository
	userRepo     interfaces.UserRepository
	logger       *logger.Logger
}

func NewAudienceService(
	dealRepo interfaces.DealRepository,
	businessRepo interfaces.BusinessRepository,
	followRepo interfaces.FollowRepository,
	userRepo interfaces.UserRepository,
	log *logger.Logger,
) AudienceService {
	return &audienceService{
		dealRepo:     dealRepo,
		businessRepo: businessRepo,
		followRepo:   followRepo,
		userRepo:     userRepo,
		logger:       log,
	}
}

func (s *audienceService) Resolve(ctx context.Context, dealID primitive.ObjectID) ([]primitive.ObjectID, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}

	business, err := s.businessRepo.GetByID(ctx, deal.BusinessID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to load business: %w", err)
	}

	return s.ResolveForDeal(ctx, deal, business)
}

func (s *audienceService) ResolveForDeal(ctx context.Context, deal *models.Deal, business *models.Business) ([]primitive.ObjectID, error) {
	followerIDs, err := s.followRepo.GetNotifiableFollowerIDs(ctx, business.ID, deal.IsFlashDeal)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifiable followers: %w", err)
	}

	audience := make(map[primitive.ObjectID]bool, len(followerIDs))
	for _, id := range followerIDs {
		audience[id] = true
	}

	nearbyIDs, err := s.nearbyNonFollowers(ctx, deal, business)
	if err != nil {
		// The follower half of the audience is still good; degrade instead
		// of dropping the whole dispatch.
		s.logger.WithError(err).WithDealID(deal.ID).Warn("Nearby audience lookup failed, notifying followers only")
	} else {
		for _, id := range nearbyIDs {
			audience[id] = true
		}
	}

	// Owners never hear about their own deals, follower or not.
	delete(audience, business.OwnerID)

	ids := make([]primitive.ObjectID, 0, len(audience))
	for id := range audience {
		ids = append(ids, id)
	}
	return ids, nil
}

// nearbyNonFollowers finds users whose stored default location falls within
// the deal's visibility radius of the business and who do not already follow
// it. Bounding-box prefilter in the store, exact haversine here.
func (s *audienceService) nearbyNonFollowers(ctx context.Context, deal *models.Deal, business *models.Business) ([]primitive.ObjectID, error) {
	radius := deal.VisibilityRadiusKm
	if radius <= 0 {
		radius = utils.DefaultDealRadius
	}
	if radius > utils.MaxDealRadius {
		radius = utils.MaxDealRadius
	}

	minLat, maxLat, minLng, maxLng := utils.BoundingBox(business.Location.Lat, business.Location.Lng, radius)
	users, err := s.userRepo.GetUsersWithinBounds(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("failed to load users within bounds: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	allFollowerIDs, err := s.followRepo.GetFollowerIDs(ctx, business.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load follower ids: %w", err)
	}
	follower := make(map[primitive.ObjectID]bool, len(allFollowerIDs))
	for _, id := range allFollowerIDs {
		follower[id] = true
	}

	ids := make([]primitive.ObjectID, 0, len(users))
	for _, user := range users {
		if follower[user.ID] || !user.HasDefaultLocation() {
			continue
		}
		if utils.IsWithinRadius(business.Location.Lat, business.Location.Lng, user.DefaultLocation.Lat, user.DefaultLocation.Lng, radius) {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}
