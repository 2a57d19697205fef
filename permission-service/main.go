package main

import (
	"log"
	"net/http"

	"tenanthub-backend/permission-service/handlers"
	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/cache"
	"tenanthub-backend/shared/utils/permission"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {

	// Load configuration
	config.LoadConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Initialize Redis Cache Manager
	if err := cache.InitCacheManager(); err != nil {
		log.Printf("⚠️  Warning: Redis cache not available: %v", err)
		log.Println("🔄 Service will continue without caching...")
	} else {
		cacheManager := cache.GetCacheManager()
		if cacheManager != nil {
			if err := cacheManager.TestConnection(); err != nil {
				log.Printf("⚠️  Warning: Redis connection test failed: %v", err)
			}
		}
	}

	// Wire the grant service over the database stores
	granter := permission.NewGranter(
		permission.NewGormCatalog(database.DB),
		permission.NewGormGrantStore(database.DB),
		audit.NewRecorder(database.DB),
		clock.System(),
	)
	handlers.Init(granter)

	router := gin.Default()

	// CORS for the frontend origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.GetConfig().FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	authorized := router.Group("/", middleware.AuthMiddleware())

	// Permission Catalog Routes
	authorized.GET("/api/permissions", handlers.GetPermissions)
	authorized.GET("/api/permissions/:id", handlers.GetPermission)

	// Permission Check Routes
	authorized.POST("/api/permissions/check", handlers.CheckPermission)
	authorized.GET("/api/roles/:role_id/effective-permissions", handlers.GetEffectivePermissions)

	// Time-Window Grant Routes
	authorized.POST("/api/roles/:role_id/grants", handlers.CreateGrant)
	authorized.GET("/api/roles/:role_id/grants", handlers.ListGrants)
	authorized.DELETE("/api/grants/:id", handlers.RevokeGrant)

	// Audit Trail Routes
	authorized.GET("/api/audit-logs", handlers.GetAuditLogs)

	// Cache Management Routes
	authorized.GET("/api/permissions/cache/stats", handlers.GetCacheStats)
	authorized.POST("/api/permissions/cache/invalidate", handlers.InvalidateCatalogCache)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "permission",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := config.GetConfig().PermissionServicePort
	log.Printf("Permission Service starting on port %s...", port)
	router.Run(":" + port)
}
