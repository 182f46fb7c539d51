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

type BroadcastHandler struct {
	broadcastService services.BroadcastService
}

func NewBroadcastHandler(broadcastService services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{
		broadcastService: broadcastService,
	}
}

// SendBroadcast sends (or schedules) an admin broadcast to a user segment
func (h *BroadcastHandler) SendBroadcast(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request validators.BroadcastRequest
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

	broadcast, err := h.broadcastService.Send(c.Request.Context(), adminID, &services.BroadcastInput{
		Message:     request.Message,
		TargetGroup: models.BroadcastTarget(request.TargetGroup),
		ScheduledAt: request.ScheduledAt,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Broadcast created successfully", broadcast)
}

// TrackClick records one link click inside a broadcast message
func (h *BroadcastHandler) TrackClick(c *gin.Context) {
	broadcastID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid broadcast ID")
		return
	}

	var request validators.TrackClickRequest
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

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	if err := h.broadcastService.TrackClick(c.Request.Context(), broadcastID, userID, request.LinkURL); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Click recorded", nil)
}

// BroadcastStats returns a broadcast's delivery counts and link engagement
func (h *BroadcastHandler) BroadcastStats(c *gin.Context) {
	broadcastID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid broadcast ID")
		return
	}

	stats, err := h.broadcastService.Stats(c.Request.Context(), broadcastID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Broadcast stats retrieved successfully", stats)
}

// ListBroadcasts lists past broadcasts, newest first
func (h *BroadcastHandler) ListBroadcasts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	broadcasts, total, err := h.broadcastService.List(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Broadcasts retrieved successfully", broadcasts, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}
