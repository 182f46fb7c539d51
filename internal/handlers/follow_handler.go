package handlers

import (
	"context"

	"dealspot/internal/middleware"
	"dealspot/internal/services"
	"dealspot/internal/utils"
	"dealspot/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FollowHandler struct {
	followService services.FollowService
}

func NewFollowHandler(followService services.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Follow starts following a business
func (h *FollowHandler) Follow(c *gin.Context) {
	h.withBusiness(c, h.followService.Follow, "Business followed")
}

// Unfollow stops following a business
func (h *FollowHandler) Unfollow(c *gin.Context) {
	h.withBusiness(c, h.followService.Unfollow, "Business unfollowed")
}

// Mute keeps the follow but silences its notifications
func (h *FollowHandler) Mute(c *gin.Context) {
	h.withBusiness(c, h.followService.Mute, "Business muted")
}

// UpdateNotificationFlags sets the per-follow notification preferences
func (h *FollowHandler) UpdateNotificationFlags(c *gin.Context) {
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

	var request validators.FollowUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	err = h.followService.UpdateNotificationFlags(c.Request.Context(), userID, businessID, request.NotifyNewDeals, request.NotifyFlashDeals)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Notification preferences updated", nil)
}

func (h *FollowHandler) withBusiness(c *gin.Context, operation func(ctx context.Context, userID, businessID primitive.ObjectID) error, message string) {
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

	if err := operation(c.Request.Context(), userID, businessID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, message, nil)
}
