package main

import (
	"log"
	"net/http"

	"tenanthub-backend/marketplace-service/handlers"
	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/cache"
	"tenanthub-backend/shared/utils/payment"
	"tenanthub-backend/shared/utils/permission"
	"tenanthub-backend/shared/utils/subscription"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {

	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Initialize Redis Cache Manager
	if err := cache.InitCacheManager(); err != nil {
		log.Printf("⚠️  Warning: Redis cache not available: %v", err)
		log.Println("🔄 Service will continue without caching...")
	}

	systemClock := clock.System()

	// Wire the subscription ledger over the database stores
	ledger := subscription.NewLedger(
		subscription.NewGormStore(database.DB),
		subscription.NewGormAppStore(database.DB),
		payment.NewClient(cfg.PaymentServiceURL),
		audit.NewRecorder(database.DB),
		systemClock,
		cfg.DefaultCurrency,
	)

	resolver := permission.NewResolver(
		permission.NewGormCatalog(database.DB),
		permission.NewGormGrantStore(database.DB),
	)

	handlers.Init(ledger, resolver, systemClock)

	router := gin.Default()

	// CORS for the frontend origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	authorized := router.Group("/", middleware.AuthMiddleware())

	// App Catalog Routes
	authorized.GET("/api/marketplace/apps", handlers.GetApps)
	authorized.POST("/api/marketplace/apps", handlers.CreateApp)
	authorized.GET("/api/marketplace/apps/:app_id", handlers.GetApp)
	authorized.PUT("/api/marketplace/apps/:app_id", handlers.UpdateApp)

	// Subscription Routes
	authorized.POST("/api/marketplace/apps/:app_id/subscribe", handlers.Subscribe)
	authorized.GET("/api/marketplace/apps/:app_id/subscription", handlers.GetSubscription)
	authorized.DELETE("/api/marketplace/apps/:app_id/subscription", handlers.CancelSubscription)
	authorized.PUT("/api/marketplace/apps/:app_id/subscription/auto-renew", handlers.SetAutoRenew)
	authorized.GET("/api/marketplace/apps/:app_id/subscription/check", handlers.CheckSubscription)
	authorized.POST("/api/marketplace/apps/:app_id/upgrade-quote", handlers.GetUpgradeQuote)
	authorized.GET("/api/marketplace/subscriptions", handlers.ListSubscriptions)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "marketplace",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := cfg.MarketplaceServicePort
	log.Printf("Marketplace Service starting on port %s...", port)
	router.Run(":" + port)
}
