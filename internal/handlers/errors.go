package handlers

import (
	"errors"
	"net/http"

	"dealspot/internal/services"
	"dealspot/internal/utils"

	"github.com/gin-gonic/gin"
)

var errInvalidLocation = errors.New("lat and lng must both be valid coordinates")

// handleServiceError maps the service error taxonomy to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDealNotFound):
		utils.NotFoundResponse(c, "Deal not found")
	case errors.Is(err, services.ErrBusinessNotFound):
		utils.NotFoundResponse(c, "Business not found")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "User not found")
	case errors.Is(err, services.ErrBroadcastNotFound):
		utils.NotFoundResponse(c, "Broadcast not found")
	case errors.Is(err, services.ErrNotificationNotFound):
		utils.NotFoundResponse(c, "Notification not found")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrLocationRequired):
		utils.ErrorResponse(c, http.StatusBadRequest, "LOCATION_REQUIRED", "A location is required: supply lat/lng or set a default location")
	case services.IsInvalidState(err):
		var invalidState *services.InvalidStateError
		errors.As(err, &invalidState)
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_STATE", invalidState.Reason)
	case services.IsConflict(err):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.InternalServerErrorResponse(c)
	}
}
