package handlers

import (
	"strconv"

	"dealspot/internal/middleware"
	"dealspot/internal/models"
	"dealspot/internal/services"
	"dealspot/internal/utils"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedService services.FeedService
}

func NewFeedHandler(feedService services.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// FollowingFeed lists active deals from businesses the user follows
func (h *FeedHandler) FollowingFeed(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	location, err := optionalLocation(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	page, err := h.feedService.FollowingFeed(c.Request.Context(), userID, params, location)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Feed retrieved successfully", page.Items, &utils.Meta{
		Pagination: page.Pagination,
	})
}

// NearbyFeed lists active deals within a radius of the caller's location
func (h *FeedHandler) NearbyFeed(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	location, err := optionalLocation(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	var radius float64
	if radiusStr := c.Query("radius"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			utils.BadRequestResponse(c, "Invalid radius")
			return
		}
	}

	page, err := h.feedService.NearbyFeed(c.Request.Context(), userID, location, radius, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Feed retrieved successfully", page.Items, &utils.Meta{
		Pagination: page.Pagination,
	})
}

// optionalLocation parses lat/lng query params; both absent means nil, one
// absent is an error.
func optionalLocation(c *gin.Context) (*models.GeoPoint, error) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errInvalidLocation
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errInvalidLocation
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errInvalidLocation
	}
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, errInvalidLocation
	}

	return &models.GeoPoint{Lat: lat, Lng: lng}, nil
}
