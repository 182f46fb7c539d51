package routes

import (
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupFollowRoutes sets up the business follow graph
func SetupFollowRoutes(r *gin.RouterGroup, followHandler *handlers.FollowHandler, jwtSecret string) {
	businesses := r.Group("/businesses")
	businesses.Use(middleware.AuthRequired(jwtSecret))
	{
		businesses.POST("/:id/follow", followHandler.Follow)
		businesses.DELETE("/:id/follow", followHandler.Unfollow)
		businesses.PUT("/:id/mute", followHandler.Mute)
		businesses.PUT("/:id/notifications", followHandler.UpdateNotificationFlags)
	}
}
