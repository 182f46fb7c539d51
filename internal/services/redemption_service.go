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

// RedemptionResult pairs the human-readable code with the receipt snapshot.
type RedemptionResult struct {
	RedemptionCode string                    `json:"redemption_code"`
	Receipt        *models.RedemptionReceipt `json:"receipt"`
}

type RedemptionService interface {
	// Redeem applies a single redemption against a deal's inventory. The
	// inventory decrement is an atomic conditional update in the store, so
	// concurrent calls can never over-sell a bounded deal.
	Redeem(ctx context.Context, dealID, userID primitive.ObjectID) (*RedemptionResult, error)

	GetUserRedemptions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error)
	GetDealRedemptions(ctx context.Context, dealID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error)
}

type redemptionService struct {
	dealRepo       interfaces.DealRepository
	redemptionRepo interfaces.RedemptionRepository
	businessRepo   interfaces.BusinessRepository
	cacheService   CacheService
	logger         *logger.Logger
}

func NewRedemptionService(
	dealRepo interfaces.DealRepository,
	redemptionRepo interfaces.RedemptionRepository,
	businessRepo interfaces.BusinessRepository,
	cacheService CacheService,
	log *logger.Logger,
) RedemptionService {
	return &redemptionService{
		dealRepo:       dealRepo,
		redemptionRepo: redemptionRepo,
		businessRepo:   businessRepo,
		cacheService:   cacheService,
		logger:         log,
	}
}

func (s *redemptionService) Redeem(ctx context.Context, dealID, userID primitive.ObjectID) (*RedemptionResult, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}

	now := time.Now()

	// Preconditions, checked in order. Expiry and exhaustion perform a
	// corrective status flip before rejecting, so the row self-heals even on
	// a failed call.
	switch deal.Status {
	case models.DealStatusActive:
		// fall through to window checks
	case models.DealStatusSoldOut:
		return nil, NewInvalidStateError("deal is sold out")
	case models.DealStatusExpired:
		return nil, NewInvalidStateError("deal has expired")
	default:
		return nil, NewInvalidStateError("deal is not active")
	}

	if now.After(deal.ExpiresAt) {
		s.correctStatus(ctx, deal, models.DealStatusExpired)
		return nil, NewInvalidStateError("deal has expired")
	}

	if now.Before(deal.StartsAt) {
		return nil, NewInvalidStateError("deal has not started yet")
	}

	// The actual claim. RedeemOne increments the counter only while inventory
	// remains and flips status to sold_out in the same statement when the
	// increment exhausts it; a lost race surfaces as ErrNoInventory here.
	updated, err := s.dealRepo.RedeemOne(ctx, dealID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoInventory) {
			s.correctStatus(ctx, deal, models.DealStatusSoldOut)
			return nil, NewInvalidStateError("deal is sold out")
		}
		return nil, fmt.Errorf("failed to redeem deal: %w", err)
	}

	redemption := &models.Redemption{
		DealID:        updated.ID,
		UserID:        userID,
		BusinessID:    updated.BusinessID,
		Code:          utils.GenerateRedemptionCode(),
		OriginalPrice: updated.OriginalPrice,
		PaidPrice:     updated.DiscountedPrice,
		SavingsAmount: updated.SavingsAmount(),
		DealCategory:  updated.Category,
		RedeemedAt:    now,
	}

	if err := s.redemptionRepo.Create(ctx, redemption); err != nil {
		// The inventory slot is consumed but the receipt write failed. Log
		// loudly; the counter is the source of truth for no-oversell.
		s.logger.WithError(err).WithDealID(dealID).WithUserID(userID).Error("Redemption recorded against inventory but receipt write failed")
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	if err := s.businessRepo.IncrementTotalRedeemed(ctx, updated.BusinessID, 1); err != nil {
		s.logger.WithError(err).WithDealID(dealID).Warn("Failed to update business redemption counter")
	}

	s.cacheService.InvalidateDeal(ctx, updated.ID, updated.BusinessID)

	s.logger.LogDealEvent(dealID, "redeemed", map[string]interface{}{
		"user_id":   userID.Hex(),
		"remaining": updated.RemainingQuantity(),
		"status":    updated.Status,
	})

	return &RedemptionResult{
		RedemptionCode: redemption.Code,
		Receipt:        redemption.Receipt(),
	}, nil
}

// correctStatus flips an active deal to a derived terminal status as a side
// effect of a rejected redemption. Failures only get logged; the caller is
// already returning the rejection.
func (s *redemptionService) correctStatus(ctx context.Context, deal *models.Deal, to models.DealStatus) {
	if deal.Status != models.DealStatusActive {
		return
	}
	if to == models.DealStatusSoldOut && deal.IsUnlimited() {
		return
	}

	if err := s.dealRepo.TransitionStatus(ctx, deal.ID, models.DealStatusActive, to); err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.WithError(err).WithDealID(deal.ID).Warnf("Corrective transition to %s failed", to)
		}
		return
	}

	s.cacheService.InvalidateDeal(ctx, deal.ID, deal.BusinessID)
	s.logger.LogDealEvent(deal.ID, "status_corrected", map[string]interface{}{"to": to})
}

func (s *redemptionService) GetUserRedemptions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	return s.redemptionRepo.GetByUserID(ctx, userID, params)
}

func (s *redemptionService) GetDealRedemptions(ctx context.Context, dealID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Redemption, int64, error) {
	return s.redemptionRepo.GetByDealID(ctx, dealID, params)
}
