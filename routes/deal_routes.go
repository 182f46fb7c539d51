package routes

import (
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupDealRoutes sets up routes for deal lifecycle, redemption and bookmarks
func SetupDealRoutes(r *gin.RouterGroup, dealHandler *handlers.DealHandler, jwtSecret string) {
	deals := r.Group("/deals")
	deals.Use(middleware.AuthRequired(jwtSecret))
	{
		deals.GET("/:id", dealHandler.GetDeal)
		deals.POST("/:id/redeem", dealHandler.RedeemDeal)
		deals.POST("/:id/bookmark", dealHandler.BookmarkDeal)
		deals.DELETE("/:id/bookmark", dealHandler.RemoveBookmark)
	}

	// Owner-only deal mutations
	owner := r.Group("/deals")
	owner.Use(middleware.AuthRequired(jwtSecret), middleware.BusinessOwnerRequired())
	{
		// The id here is the business the deal belongs to.
		owner.POST("/:id", dealHandler.CreateDeal)
		owner.PUT("/:id", dealHandler.UpdateDeal)
		owner.DELETE("/:id", dealHandler.DeleteDeal)
	}

	redemptions := r.Group("/redemptions")
	redemptions.Use(middleware.AuthRequired(jwtSecret))
	{
		redemptions.GET("/", dealHandler.MyRedemptions)
	}
}
