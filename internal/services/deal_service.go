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

type DealService interface {
	// Create validates price and date ordering, persists the deal, and
	// triggers the audience fan-out without awaiting it.
	Create(ctx context.Context, ownerID primitive.ObjectID, deal *models.Deal) (*models.Deal, error)

	GetByID(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error)

	// Update changes content fields only; counters and status belong to the
	// redemption path.
	Update(ctx context.Context, ownerID, dealID primitive.ObjectID, updates *DealUpdate) (*models.Deal, error)

	// Delete flips status to deleted; deal rows are never hard-deleted.
	Delete(ctx context.Context, ownerID, dealID primitive.ObjectID) error
}

// DealUpdate carries the owner-editable content fields. Nil means unchanged.
type DealUpdate struct {
	Title           *string
	Description     *string
	OriginalPrice   *float64
	DiscountedPrice *float64
	Category        *string
	Tags            []string
	ImageURL        *string
	ExpiresAt       *time.Time
}

type dealService struct {
	dealRepo        interfaces.DealRepository
	businessRepo    interfaces.BusinessRepository
	audience        AudienceService
	notifications   NotificationService
	cacheService    CacheService
	dispatchTimeout time.Duration
	logger          *logger.Logger
}

func NewDealService(
	dealRepo interfaces.DealRepository,
	businessRepo interfaces.BusinessRepository,
	audience AudienceService,
	notifications NotificationService,
	cacheService CacheService,
	dispatchTimeout time.Duration,
	log *logger.Logger,
) DealService {
	if dispatchTimeout <= 0 {
		dispatchTimeout = utils.PushDispatchTimeout
	}
	return &dealService{
		dealRepo:        dealRepo,
		businessRepo:    businessRepo,
		audience:        audience,
		notifications:   notifications,
		cacheService:    cacheService,
		dispatchTimeout: dispatchTimeout,
		logger:          log,
	}
}

func (s *dealService) Create(ctx context.Context, ownerID primitive.ObjectID, deal *models.Deal) (*models.Deal, error) {
	business, err := s.businessRepo.GetByID(ctx, deal.BusinessID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to load business: %w", err)
	}
	if business.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	if err := validateDealPrices(deal.OriginalPrice, deal.DiscountedPrice); err != nil {
		return nil, err
	}
	if err := validateDealWindow(deal.StartsAt, deal.ExpiresAt); err != nil {
		return nil, err
	}
	if deal.QuantityAvailable != nil && *deal.QuantityAvailable < 1 {
		return nil, NewInvalidStateError("quantity_available must be at least 1")
	}

	now := time.Now()
	deal.Status = models.DealStatusActive
	deal.QuantityRedeemed = 0
	deal.DiscountPercentage = deal.ComputeDiscountPercentage()
	deal.CreatedAt = now
	deal.UpdatedAt = now

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	if err := s.businessRepo.IncrementDealCount(ctx, business.ID, 1); err != nil {
		s.logger.WithError(err).WithDealID(deal.ID).Warn("Failed to update business deal counter")
	}

	s.cacheService.InvalidateDeal(ctx, deal.ID, business.ID)
	s.logger.LogDealEvent(deal.ID, "created", map[string]interface{}{
		"business_id": business.ID.Hex(),
		"flash":       deal.IsFlashDeal,
	})

	// Fan-out happens off the request path; a down push gateway must never
	// fail deal creation.
	s.notifyAudience(deal, business)

	return deal, nil
}

func (s *dealService) notifyAudience(deal *models.Deal, business *models.Business) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Deal fan-out panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		targetIDs, err := s.audience.ResolveForDeal(ctx, deal, business)
		if err != nil {
			s.logger.WithError(err).WithDealID(deal.ID).Error("Audience resolution failed")
			return
		}
		if len(targetIDs) == 0 {
			return
		}

		notificationType := models.NotificationTypeNewDeal
		title := fmt.Sprintf("New deal from %s", business.Name)
		if deal.IsFlashDeal {
			notificationType = models.NotificationTypeFlashDeal
			title = fmt.Sprintf("Flash deal from %s", business.Name)
		}

		if _, err := s.notifications.Dispatch(ctx, targetIDs, &NotificationPayload{
			Type:     notificationType,
			Title:    title,
			Message:  deal.Title,
			ImageURL: deal.ImageURL,
			DeepLink: fmt.Sprintf("dealspot://deals/%s", deal.ID.Hex()),
			Data: map[string]string{
				"deal_id":     deal.ID.Hex(),
				"business_id": business.ID.Hex(),
			},
		}); err != nil {
			s.logger.WithError(err).WithDealID(deal.ID).Error("Deal fan-out failed")
		}
	}()
}

func (s *dealService) GetByID(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error) {
	if deal, ok := s.cacheService.GetCachedDeal(ctx, dealID); ok {
		return deal, nil
	}

	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}

	s.cacheService.CacheDeal(ctx, deal)
	return deal, nil
}

func (s *dealService) Update(ctx context.Context, ownerID, dealID primitive.ObjectID, update *DealUpdate) (*models.Deal, error) {
	deal, err := s.ownedDeal(ctx, ownerID, dealID)
	if err != nil {
		return nil, err
	}
	if deal.Status == models.DealStatusDeleted {
		return nil, NewInvalidStateError("deal is deleted")
	}

	updates := map[string]interface{}{}

	originalPrice := deal.OriginalPrice
	discountedPrice := deal.DiscountedPrice
	if update.OriginalPrice != nil {
		originalPrice = *update.OriginalPrice
		updates["original_price"] = originalPrice
	}
	if update.DiscountedPrice != nil {
		discountedPrice = *update.DiscountedPrice
		updates["discounted_price"] = discountedPrice
	}
	if update.OriginalPrice != nil || update.DiscountedPrice != nil {
		if err := validateDealPrices(originalPrice, discountedPrice); err != nil {
			return nil, err
		}
		updates["discount_percentage"] = (originalPrice - discountedPrice) / originalPrice * 100
	}

	if update.ExpiresAt != nil {
		if err := validateDealWindow(deal.StartsAt, *update.ExpiresAt); err != nil {
			return nil, err
		}
		updates["expires_at"] = *update.ExpiresAt
	}

	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Category != nil {
		updates["category"] = *update.Category
	}
	if update.Tags != nil {
		updates["tags"] = update.Tags
	}
	if update.ImageURL != nil {
		updates["image_url"] = *update.ImageURL
	}

	if len(updates) == 0 {
		return deal, nil
	}
	updates["updated_at"] = time.Now()

	if err := s.dealRepo.Update(ctx, dealID, updates); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	s.cacheService.InvalidateDeal(ctx, dealID, deal.BusinessID)

	return s.dealRepo.GetByID(ctx, dealID)
}

func (s *dealService) Delete(ctx context.Context, ownerID, dealID primitive.ObjectID) error {
	deal, err := s.ownedDeal(ctx, ownerID, dealID)
	if err != nil {
		return err
	}
	if deal.Status == models.DealStatusDeleted {
		return nil
	}

	if err := s.dealRepo.SoftDelete(ctx, dealID); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	if err := s.businessRepo.IncrementDealCount(ctx, deal.BusinessID, -1); err != nil {
		s.logger.WithError(err).WithDealID(dealID).Warn("Failed to update business deal counter")
	}

	s.cacheService.InvalidateDeal(ctx, dealID, deal.BusinessID)
	s.logger.LogDealEvent(dealID, "deleted", nil)

	return nil
}

func (s *dealService) ownedDeal(ctx context.Context, ownerID, dealID primitive.ObjectID) (*models.Deal, error) {
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
	if business.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return deal, nil
}

func validateDealPrices(originalPrice, discountedPrice float64) error {
	if originalPrice <= 0 || discountedPrice <= 0 {
		return NewInvalidStateError("prices must be positive")
	}
	if discountedPrice >= originalPrice {
		return NewInvalidStateError("discounted price must be below original price")
	}
	return nil
}

func validateDealWindow(startsAt, expiresAt time.Time) error {
	if startsAt.IsZero() || expiresAt.IsZero() {
		return NewInvalidStateError("deal window is required")
	}
	if !startsAt.Before(expiresAt) {
		return NewInvalidStateError("starts_at must be before expires_at")
	}
	return nil
}
