package routes

import (
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBroadcastRoutes sets up admin broadcast messaging and analytics
func SetupBroadcastRoutes(r *gin.RouterGroup, broadcastHandler *handlers.BroadcastHandler, jwtSecret string) {
	admin := r.Group("/admin/messages")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/broadcast", broadcastHandler.SendBroadcast)
		admin.GET("/broadcasts", broadcastHandler.ListBroadcasts)
		admin.POST("/broadcasts/:id/track-click", broadcastHandler.TrackClick)
		admin.GET("/broadcasts/:id/stats", broadcastHandler.BroadcastStats)
	}
}
