package routes

import (
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupFeedRoutes sets up the two consumer feeds
func SetupFeedRoutes(r *gin.RouterGroup, feedHandler *handlers.FeedHandler, jwtSecret string) {
	feed := r.Group("/feed")
	feed.Use(middleware.AuthRequired(jwtSecret))
	{
		feed.GET("/you-follow", feedHandler.FollowingFeed)
		feed.GET("/near-you", feedHandler.NearbyFeed)
	}
}
