package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/internal/utils"
	"dealspot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// nearbyCandidateLimit caps how many newest active deals the nearby feed pulls
// before applying the exact distance predicate in memory.
const nearbyCandidateLimit = 500

// FeedPage is one paginated feed result.
type FeedPage struct {
	Items      []*models.DealWithDistance `json:"items"`
	Pagination *utils.PaginationMeta      `json:"pagination"`
}

type FeedService interface {
	// FollowingFeed lists active deals from businesses the user follows,
	// newest first. A user following nothing gets an empty page without a
	// catalog query. An optional caller location adds distance annotations.
	FollowingFeed(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams, location *models.GeoPoint) (*FeedPage, error)

	// NearbyFeed lists active deals whose business lies within radiusKm of
	// the location, newest first. A nil location falls back to the user's
	// stored default; without either the call fails with ErrLocationRequired.
	// radiusKm <= 0 selects the default radius.
	NearbyFeed(ctx context.Context, userID primitive.ObjectID, location *models.GeoPoint, radiusKm float64, params *utils.PaginationParams) (*FeedPage, error)
}

type feedService struct {
	dealRepo     interfaces.DealRepository
	followRepo   interfaces.FollowRepository
	businessRepo interfaces.BusinessRepository
	bookmarkRepo interfaces.BookmarkRepository
	userRepo     interfaces.UserRepository
	cacheService CacheService
	logger       *logger.Logger
}

func NewFeedService(
	dealRepo interfaces.DealRepository,
	followRepo interfaces.FollowRepository,
	businessRepo interfaces.BusinessRepository,
	bookmarkRepo interfaces.BookmarkRepository,
	userRepo interfaces.UserRepository,
	cacheService CacheService,
	log *logger.Logger,
) FeedService {
	return &feedService{
		dealRepo:     dealRepo,
		followRepo:   followRepo,
		businessRepo: businessRepo,
		bookmarkRepo: bookmarkRepo,
		userRepo:     userRepo,
		cacheService: cacheService,
		logger:       log,
	}
}

func (s *feedService) FollowingFeed(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams, location *models.GeoPoint) (*FeedPage, error) {
	key := FollowingFeedKey(userID, params.Page, params.Limit)
	if location != nil {
		key = fmt.Sprintf("%s:%.4f:%.4f", key, location.Lat, location.Lng)
	}

	page := &FeedPage{}
	err := s.cacheService.Remember(ctx, key, utils.FeedCacheTTL, page, []string{FeedNamespace("following")}, func(ctx context.Context) (interface{}, error) {
		return s.buildFollowingFeed(ctx, userID, params, location)
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *feedService) buildFollowingFeed(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams, location *models.GeoPoint) (*FeedPage, error) {
	businessIDs, err := s.followRepo.GetActiveBusinessIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve followed businesses: %w", err)
	}

	// Following nothing is a normal state; skip the catalog entirely.
	if len(businessIDs) == 0 {
		return emptyFeedPage(params), nil
	}

	deals, total, err := s.dealRepo.ListActiveByBusinessIDs(ctx, interfaces.DealListFilter{
		BusinessIDs: businessIDs,
		Now:         time.Now(),
	}, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed deals: %w", err)
	}

	items, err := s.assembleFeedItems(ctx, userID, deals, location)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Items:      items,
		Pagination: utils.CreatePaginationMeta(params, total),
	}, nil
}

func (s *feedService) NearbyFeed(ctx context.Context, userID primitive.ObjectID, location *models.GeoPoint, radiusKm float64, params *utils.PaginationParams) (*FeedPage, error) {
	if location == nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if !user.HasDefaultLocation() {
			return nil, ErrLocationRequired
		}
		location = user.DefaultLocation
		if radiusKm <= 0 {
			radiusKm = user.DefaultRadiusKm
		}
	}

	if !utils.IsValidCoordinates(location.Lat, location.Lng) {
		return nil, NewInvalidStateError("invalid coordinates")
	}

	if radiusKm <= 0 {
		radiusKm = utils.DefaultNearbyRadius
	}
	if radiusKm > utils.MaxNearbyRadius {
		radiusKm = utils.MaxNearbyRadius
	}

	key := NearbyFeedKey(userID, location.Lat, location.Lng, radiusKm, params.Page, params.Limit)

	page := &FeedPage{}
	err := s.cacheService.Remember(ctx, key, utils.FeedCacheTTL, page, []string{FeedNamespace("nearby")}, func(ctx context.Context) (interface{}, error) {
		return s.buildNearbyFeed(ctx, userID, location, radiusKm, params)
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *feedService) buildNearbyFeed(ctx context.Context, userID primitive.ObjectID, location *models.GeoPoint, radiusKm float64, params *utils.PaginationParams) (*FeedPage, error) {
	candidates, err := s.dealRepo.ListActiveCandidates(ctx, interfaces.DealListFilter{
		Now:   time.Now(),
		Limit: nearbyCandidateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deal candidates: %w", err)
	}

	if len(candidates) == 0 {
		return emptyFeedPage(params), nil
	}

	businesses, err := s.loadBusinesses(ctx, candidates)
	if err != nil {
		return nil, err
	}

	// Exact predicate over the candidate window; candidates arrive newest
	// first from the store, so order is preserved.
	within := make([]*models.Deal, 0, len(candidates))
	for _, deal := range candidates {
		business, ok := businesses[deal.BusinessID]
		if !ok {
			continue
		}
		if utils.IsWithinRadius(location.Lat, location.Lng, business.Location.Lat, business.Location.Lng, radiusKm) {
			within = append(within, deal)
		}
	}

	total := int64(len(within))
	start := params.GetSkip()
	if start >= len(within) {
		return &FeedPage{
			Items:      []*models.DealWithDistance{},
			Pagination: utils.CreatePaginationMeta(params, total),
		}, nil
	}
	end := start + params.Limit
	if end > len(within) {
		end = len(within)
	}

	items, err := s.assembleFeedItems(ctx, userID, within[start:end], location)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Items:      items,
		Pagination: utils.CreatePaginationMeta(params, total),
	}, nil
}

// assembleFeedItems joins a page of deals with their businesses and the
// caller's bookmark flags, one batched query each, plus optional distance.
func (s *feedService) assembleFeedItems(ctx context.Context, userID primitive.ObjectID, deals []*models.Deal, location *models.GeoPoint) ([]*models.DealWithDistance, error) {
	if len(deals) == 0 {
		return []*models.DealWithDistance{}, nil
	}

	businesses, err := s.loadBusinesses(ctx, deals)
	if err != nil {
		return nil, err
	}

	dealIDs := make([]primitive.ObjectID, len(deals))
	for i, deal := range deals {
		dealIDs[i] = deal.ID
	}

	bookmarked, err := s.bookmarkRepo.GetBookmarkedDealIDs(ctx, userID, dealIDs)
	if err != nil {
		// Bookmark flags are cosmetic; a failed lookup must not break the feed.
		s.logger.WithError(err).WithUserID(userID).Warn("Bookmark lookup failed, serving feed without flags")
		bookmarked = map[primitive.ObjectID]bool{}
	}

	items := make([]*models.DealWithDistance, 0, len(deals))
	for _, deal := range deals {
		item := &models.DealWithDistance{
			Deal:         deal,
			Business:     businesses[deal.BusinessID],
			IsBookmarked: bookmarked[deal.ID],
		}
		if location != nil && item.Business != nil {
			distance := utils.RoundDistanceKm(utils.HaversineKm(location.Lat, location.Lng, item.Business.Location.Lat, item.Business.Location.Lng))
			item.DistanceKm = &distance
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *feedService) loadBusinesses(ctx context.Context, deals []*models.Deal) (map[primitive.ObjectID]*models.Business, error) {
	seen := make(map[primitive.ObjectID]bool, len(deals))
	ids := make([]primitive.ObjectID, 0, len(deals))
	for _, deal := range deals {
		if !seen[deal.BusinessID] {
			seen[deal.BusinessID] = true
			ids = append(ids, deal.BusinessID)
		}
	}

	businesses, err := s.businessRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load businesses: %w", err)
	}
	return businesses, nil
}

func emptyFeedPage(params *utils.PaginationParams) *FeedPage {
	return &FeedPage{
		Items:      []*models.DealWithDistance{},
		Pagination: utils.CreatePaginationMeta(params, 0),
	}
}
