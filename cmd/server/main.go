package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"dealspot/internal/config"
	"dealspot/internal/handlers"
	"dealspot/internal/middleware"
	"dealspot/internal/repositories/mongodb"
	"dealspot/internal/services"
	"dealspot/internal/utils"
	"dealspot/pkg/cache"
	"dealspot/pkg/database"
	"dealspot/pkg/logger"
	"dealspot/pkg/push"
	"dealspot/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     config.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	// Cache
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Push gateway; nil provider means durable notifications only
	var pushProvider push.PushProvider
	if cfg.Push.Enabled() {
		switch cfg.Push.Provider {
		case "fcm":
			pushProvider, err = push.NewFCMProvider(cfg.Push.FCM.Credentials)
		case "apns":
			pushProvider, err = push.NewAPNSProvider(
				cfg.Push.APNS.KeyFile,
				cfg.Push.APNS.KeyID,
				cfg.Push.APNS.TeamID,
				cfg.Push.APNS.BundleID,
				cfg.Push.APNS.Production,
			)
		}
		if err != nil {
			appLogger.Fatalf("Failed to initialize push provider: %v", err)
		}
		appLogger.WithField("provider", cfg.Push.Provider).Info("Push gateway configured")
	} else {
		appLogger.Warn("No push gateway configured, notifications will be in-app only")
	}

	// Repositories
	dealRepo := mongodb.NewDealRepository(db.Database)
	businessRepo := mongodb.NewBusinessRepository(db.Database)
	followRepo := mongodb.NewFollowRepository(db.Database)
	bookmarkRepo := mongodb.NewBookmarkRepository(db.Database)
	redemptionRepo := mongodb.NewRedemptionRepository(db.Database)
	deviceRepo := mongodb.NewDeviceRepository(db.Database)
	notificationRepo := mongodb.NewNotificationRepository(db.Database)
	userRepo := mongodb.NewUserRepository(db.Database)
	broadcastRepo := mongodb.NewBroadcastRepository(db.Database)
	conversationRepo := mongodb.NewConversationRepository(db.Database)

	// Services
	cacheService := services.NewCacheService(redisCache, appLogger)
	audienceService := services.NewAudienceService(dealRepo, businessRepo, followRepo, userRepo, appLogger)
	notificationService := services.NewNotificationService(notificationRepo, deviceRepo, pushProvider, cfg.Push.DispatchTimeout, appLogger)
	redemptionService := services.NewRedemptionService(dealRepo, redemptionRepo, businessRepo, cacheService, appLogger)
	dealService := services.NewDealService(dealRepo, businessRepo, audienceService, notificationService, cacheService, cfg.Push.DispatchTimeout, appLogger)
	feedService := services.NewFeedService(dealRepo, followRepo, businessRepo, bookmarkRepo, userRepo, cacheService, appLogger)
	followService := services.NewFollowService(followRepo, businessRepo, dealRepo, bookmarkRepo, cacheService, appLogger)
	broadcastService := services.NewBroadcastService(broadcastRepo, userRepo, conversationRepo, notificationService, appLogger)

	// Handlers
	dealHandler := handlers.NewDealHandler(dealService, redemptionService, followService)
	feedHandler := handlers.NewFeedHandler(feedService)
	followHandler := handlers.NewFollowHandler(followService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	broadcastHandler := handlers.NewBroadcastHandler(broadcastService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupDealRoutes(v1, dealHandler, cfg.Security.JWTSecret)
		routes.SetupFeedRoutes(v1, feedHandler, cfg.Security.JWTSecret)
		routes.SetupFollowRoutes(v1, followHandler, cfg.Security.JWTSecret)
		routes.SetupNotificationRoutes(v1, notificationHandler, cfg.Security.JWTSecret)
		routes.SetupBroadcastRoutes(v1, broadcastHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"
		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		cacheStatus := "up"
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			cacheStatus = "down"
		}
		c.JSON(status, gin.H{
			"status":   "ok",
			"version":  utils.AppVersion,
			"database": dbStatus,
			"cache":    cacheStatus,
		})
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	appLogger.WithField("addr", addr).Info("Starting server")
	if err := router.Run(addr); err != nil {
		appLogger.Fatalf("Server exited: %v", err)
	}
}
