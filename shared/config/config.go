package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret      string
	JWTExpireHours string

	// Super Admin
	SuperAdminEmail    string
	SuperAdminPassword string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Payment gateway (opaque confirmation service)
	PaymentServiceURL string
	DefaultCurrency   string

	// Notification service
	NotificationServiceURL string

	// Scheduler
	SchedulerTickMinutes string
	ExpiryWarningDays    string
	SchedulerBatchSize   string

	// Service ports
	PermissionServicePort  string
	MarketplaceServicePort string
	SchedulerServicePort   string

	// Frontend URL (CORS)
	FrontendURL string
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "tenanthub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireHours: getEnv("JWT_EXPIRE_HOURS", "3"),

		// Super Admin
		SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", "admin@tenanthub.com"),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", "admin123"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Payment gateway
		PaymentServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:8010"),
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "USD"),

		// Notification service
		NotificationServiceURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:8004"),

		// Scheduler
		SchedulerTickMinutes: getEnv("SCHEDULER_TICK_MINUTES", "5"),
		ExpiryWarningDays:    getEnv("EXPIRY_WARNING_DAYS", "7"),
		SchedulerBatchSize:   getEnv("SCHEDULER_BATCH_SIZE", "500"),

		// Service ports
		PermissionServicePort:  getEnv("PERMISSION_SERVICE_PORT", "8002"),
		MarketplaceServicePort: getEnv("MARKETPLACE_SERVICE_PORT", "8003"),
		SchedulerServicePort:   getEnv("SCHEDULER_SERVICE_PORT", "8006"),

		// Frontend URL
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// GetJWTExpireHours returns the JWT expiration as integer hours
func (c *Config) GetJWTExpireHours() int {
	if value, err := strconv.Atoi(c.JWTExpireHours); err == nil && value > 0 {
		return value
	}
	return 3
}

// GetSchedulerTickMinutes returns the scheduler tick interval as integer
func (c *Config) GetSchedulerTickMinutes() int {
	if value, err := strconv.Atoi(c.SchedulerTickMinutes); err == nil && value > 0 {
		return value
	}
	return 5
}

// GetExpiryWarningDays returns the expiry warning window as integer
func (c *Config) GetExpiryWarningDays() int {
	if value, err := strconv.Atoi(c.ExpiryWarningDays); err == nil && value > 0 {
		return value
	}
	return 7
}

// GetSchedulerBatchSize returns the per-tick row limit as integer
func (c *Config) GetSchedulerBatchSize() int {
	if value, err := strconv.Atoi(c.SchedulerBatchSize); err == nil && value > 0 {
		return value
	}
	return 500
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
