package handlers

import (
	"dealspot/internal/middleware"
	"dealspot/internal/models"
	"dealspot/internal/services"
	"dealspot/internal/utils"
	"dealspot/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DealHandler struct {
	dealService       services.DealService
	redemptionService services.RedemptionService
	followService     services.FollowService
}

func NewDealHandler(dealService services.DealService, redemptionService services.RedemptionService, followService services.FollowService) *DealHandler {
	return &DealHandler{
		dealService:       dealService,
		redemptionService: redemptionService,
		followService:     followService,
	}
}

// CreateDeal creates a deal for a business and triggers the audience fan-out
func (h *DealHandler) CreateDeal(c *gin.Context) {
	businessID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid business ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.DealCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if validationErrors := validators.ValidateStruct(&request); len(validationErrors) > 0 {
		details := make(map[string]string, len(validationErrors))
		for _, validationError := range validationErrors {
			details[validationError.Field] = validationError.Message
		}
		utils.ValidationErrorResponse(c, details)
		return
	}

	deal := &models.Deal{
		BusinessID:         businessID,
		Title:              request.Title,
		Description:        request.Description,
		OriginalPrice:      request.OriginalPrice,
		DiscountedPrice:    request.DiscountedPrice,
		Category:           request.Category,
		Tags:               request.Tags,
		ImageURL:           request.ImageURL,
		StartsAt:           request.StartsAt,
		ExpiresAt:          request.ExpiresAt,
		IsFlashDeal:        request.IsFlashDeal,
		VisibilityRadiusKm: request.VisibilityRadiusKm,
		QuantityAvailable:  request.QuantityAvailable,
		MaxPerUser:         request.MaxPerUser,
	}

	created, err := h.dealService.Create(c.Request.Context(), userID, deal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Deal created successfully", created)
}

// GetDeal retrieves a single deal
func (h *DealHandler) GetDeal(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	deal, err := h.dealService.GetByID(c.Request.Context(), dealID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Deal retrieved successfully", deal)
}

// UpdateDeal updates a deal's content fields (owner only)
func (h *DealHandler) UpdateDeal(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.DealUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if validationErrors := validators.ValidateStruct(&request); len(validationErrors) > 0 {
		details := make(map[string]string, len(validationErrors))
		for _, validationError := range validationErrors {
			details[validationError.Field] = validationError.Message
		}
		utils.ValidationErrorResponse(c, details)
		return
	}

	updated, err := h.dealService.Update(c.Request.Context(), userID, dealID, &services.DealUpdate{
		Title:           request.Title,
		Description:     request.Description,
		OriginalPrice:   request.OriginalPrice,
		DiscountedPrice: request.DiscountedPrice,
		Category:        request.Category,
		Tags:            request.Tags,
		ImageURL:        request.ImageURL,
		ExpiresAt:       request.ExpiresAt,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Deal updated successfully", updated)
}

// DeleteDeal soft-deletes a deal (owner only)
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.dealService.Delete(c.Request.Context(), userID, dealID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Deal deleted successfully", nil)
}

// RedeemDeal claims one redemption against a deal's inventory
func (h *DealHandler) RedeemDeal(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), dealID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Deal redeemed successfully", result)
}

// MyRedemptions lists the user's redemption history
func (h *DealHandler) MyRedemptions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	redemptions, total, err := h.redemptionService.GetUserRedemptions(c.Request.Context(), userID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Redemptions retrieved successfully", redemptions, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// BookmarkDeal saves a deal to the user's bookmarks
func (h *DealHandler) BookmarkDeal(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.followService.Bookmark(c.Request.Context(), userID, dealID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Deal bookmarked", nil)
}

// RemoveBookmark removes a deal from the user's bookmarks
func (h *DealHandler) RemoveBookmark(c *gin.Context) {
	dealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID")
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.followService.RemoveBookmark(c.Request.Context(), userID, dealID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Bookmark removed", nil)
}
