package routes

import (
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupNotificationRoutes sets up notification history and device registration
func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *handlers.NotificationHandler, jwtSecret string) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthRequired(jwtSecret))
	{
		notifications.GET("/", notificationHandler.ListNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
	}

	devices := r.Group("/devices")
	devices.Use(middleware.AuthRequired(jwtSecret))
	{
		devices.POST("/", notificationHandler.RegisterDevice)
	}
}
