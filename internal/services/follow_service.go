package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dealspot/internal/models"
	"dealspot/internal/repositories/interfaces"
	"dealspot/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowService maintains the social graph the feeds and the audience
// resolver read: follow relations with notification flags, and per-deal
// bookmarks. Business follower counters are denormalized side effects.
type FollowService interface {
	Follow(ctx context.Context, userID, businessID primitive.ObjectID) error
	Unfollow(ctx context.Context, userID, businessID primitive.ObjectID) error
	Mute(ctx context.Context, userID, businessID primitive.ObjectID) error
	UpdateNotificationFlags(ctx context.Context, userID, businessID primitive.ObjectID, notifyNewDeals, notifyFlashDeals bool) error

	Bookmark(ctx context.Context, userID, dealID primitive.ObjectID) error
	RemoveBookmark(ctx context.Context, userID, dealID primitive.ObjectID) error
}

type followService struct {
	followRepo   interfaces.FollowRepository
	businessRepo interfaces.BusinessRepository
	dealRepo     interfaces.DealRepository
	bookmarkRepo interfaces.BookmarkRepository
	cacheService CacheService
	logger       *logger.Logger
}

func NewFollowService(
	followRepo interfaces.FollowRepository,
	businessRepo interfaces.BusinessRepository,
	dealRepo interfaces.DealRepository,
	bookmarkRepo interfaces.BookmarkRepository,
	cacheService CacheService,
	log *logger.Logger,
) FollowService {
	return &followService{
		followRepo:   followRepo,
		businessRepo: businessRepo,
		dealRepo:     dealRepo,
		bookmarkRepo: bookmarkRepo,
		cacheService: cacheService,
		logger:       log,
	}
}

func (s *followService) Follow(ctx context.Context, userID, businessID primitive.ObjectID) error {
	if _, err := s.businessRepo.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("failed to load business: %w", err)
	}

	existing, err := s.followRepo.GetByUserAndBusiness(ctx, userID, businessID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to load follow: %w", err)
	}

	// Muted follows still count as followers; only a missing or unfollowed
	// relation bumps the counter.
	wasCounted := existing != nil && countsAsFollower(existing.Status)

	now := time.Now()
	follow := &models.Follow{
		UserID:           userID,
		BusinessID:       businessID,
		Status:           models.FollowStatusActive,
		NotifyNewDeals:   true,
		NotifyFlashDeals: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if existing != nil {
		follow.NotifyNewDeals = existing.NotifyNewDeals
		follow.NotifyFlashDeals = existing.NotifyFlashDeals
		follow.CreatedAt = existing.CreatedAt
	}

	if err := s.followRepo.Upsert(ctx, follow); err != nil {
		return fmt.Errorf("failed to save follow: %w", err)
	}

	if !wasCounted {
		if err := s.businessRepo.IncrementFollowerCount(ctx, businessID, 1); err != nil {
			s.logger.WithError(err).WithUserID(userID).Warn("Failed to update follower counter")
		}
	}

	s.cacheService.InvalidateNamespace(ctx, FeedNamespace("following"))
	return nil
}

func (s *followService) Unfollow(ctx context.Context, userID, businessID primitive.ObjectID) error {
	return s.setFollowStatus(ctx, userID, businessID, models.FollowStatusUnfollowed)
}

func (s *followService) Mute(ctx context.Context, userID, businessID primitive.ObjectID) error {
	return s.setFollowStatus(ctx, userID, businessID, models.FollowStatusMuted)
}

func (s *followService) setFollowStatus(ctx context.Context, userID, businessID primitive.ObjectID, status models.FollowStatus) error {
	existing, err := s.followRepo.GetByUserAndBusiness(ctx, userID, businessID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("failed to load follow: %w", err)
	}
	if existing.Status == status {
		return nil
	}

	if err := s.followRepo.UpdateStatus(ctx, userID, businessID, status); err != nil {
		return fmt.Errorf("failed to update follow status: %w", err)
	}

	if countsAsFollower(existing.Status) && status == models.FollowStatusUnfollowed {
		if err := s.businessRepo.IncrementFollowerCount(ctx, businessID, -1); err != nil {
			s.logger.WithError(err).WithUserID(userID).Warn("Failed to update follower counter")
		}
	}

	s.cacheService.InvalidateNamespace(ctx, FeedNamespace("following"))
	return nil
}

// countsAsFollower reports whether a follow status contributes to the
// business follower counter. Muting hides notifications, not the follow.
func countsAsFollower(status models.FollowStatus) bool {
	return status == models.FollowStatusActive || status == models.FollowStatusMuted
}

func (s *followService) UpdateNotificationFlags(ctx context.Context, userID, businessID primitive.ObjectID, notifyNewDeals, notifyFlashDeals bool) error {
	existing, err := s.followRepo.GetByUserAndBusiness(ctx, userID, businessID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("failed to load follow: %w", err)
	}

	existing.NotifyNewDeals = notifyNewDeals
	existing.NotifyFlashDeals = notifyFlashDeals
	existing.UpdatedAt = time.Now()

	if err := s.followRepo.Upsert(ctx, existing); err != nil {
		return fmt.Errorf("failed to save follow: %w", err)
	}
	return nil
}

func (s *followService) Bookmark(ctx context.Context, userID, dealID primitive.ObjectID) error {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrDealNotFound
		}
		return fmt.Errorf("failed to load deal: %w", err)
	}
	if deal.Status == models.DealStatusDeleted {
		return ErrDealNotFound
	}

	now := time.Now()
	err = s.bookmarkRepo.Add(ctx, &models.Bookmark{
		UserID:    userID,
		DealID:    dealID,
		CreatedAt: now,
	})
	if err != nil {
		// Bookmarking twice is a no-op, not a conflict.
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}

func (s *followService) RemoveBookmark(ctx context.Context, userID, dealID primitive.ObjectID) error {
	if err := s.bookmarkRepo.Remove(ctx, userID, dealID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}
