package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenanthub-backend/shared/clients"
	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/payment"
	"tenanthub-backend/shared/utils/permission"
	"tenanthub-backend/shared/utils/subscription"

	"github.com/gin-gonic/gin"
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

	systemClock := clock.System()

	granter := permission.NewGranter(
		permission.NewGormCatalog(database.DB),
		permission.NewGormGrantStore(database.DB),
		audit.NewRecorder(database.DB),
		systemClock,
	)

	scheduler := subscription.NewScheduler(
		subscription.NewGormStore(database.DB),
		payment.NewClient(cfg.PaymentServiceURL),
		audit.NewRecorder(database.DB),
		granter,
		clients.NewNotificationClient(),
		cfg.DefaultCurrency,
		cfg.GetSchedulerBatchSize(),
		cfg.GetExpiryWarningDays(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic tick loop
	tickInterval := time.Duration(cfg.GetSchedulerTickMinutes()) * time.Minute
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		// Run once at startup so overdue work is not delayed by a full
		// interval after a restart.
		scheduler.Tick(ctx, systemClock.Now())

		for {
			select {
			case <-ctx.Done():
				log.Println("🔄 Scheduler loop stopping...")
				return
			case <-ticker.C:
				scheduler.Tick(ctx, systemClock.Now())
			}
		}
	}()

	router := gin.Default()

	// Manual tick for operations and tests. The instant defaults to now
	// and can be overridden to replay a past boundary.
	authorized := router.Group("/", middleware.AuthMiddleware())
	authorized.POST("/api/scheduler/tick", func(c *gin.Context) {
		asOf := systemClock.Now()
		if raw := c.Query("as_of"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid as_of, expected RFC3339"})
				return
			}
			asOf = parsed
		}

		stats := scheduler.Tick(c.Request.Context(), asOf)
		c.JSON(http.StatusOK, gin.H{"as_of": asOf, "stats": stats})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "scheduler",
		})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.SchedulerServicePort,
		Handler: router,
	}

	go func() {
		log.Printf("Scheduler Service starting on port %s (tick every %v)...", cfg.SchedulerServicePort, tickInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start scheduler service: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔄 Shutting down scheduler service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Scheduler service shutdown error: %v", err)
	}
}
