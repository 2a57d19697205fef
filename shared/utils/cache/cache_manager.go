package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database/models"
	"tenanthub-backend/shared/database/models/billing"
)

// CacheManager caches slow-changing catalog data: the marketplace app
// list and the permission definition catalog. Effective permission sets
// and subscription state are never cached here; they are time-dependent
// and must always be resolved against the store.
type CacheManager struct {
	client *redis.Client
	ctx    context.Context
}

var (
	globalCacheManager *CacheManager
	AppCatalogTTL      = 5 * time.Minute
	PermissionTTL      = 1 * time.Hour
)

const (
	appListKey           = "catalog:apps"
	appKeyPrefix         = "catalog:app:"
	permissionCatalogKey = "catalog:permissions"
)

// InitCacheManager initializes the global cache manager
func InitCacheManager() error {
	cfg := config.GetConfig()

	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	globalCacheManager = &CacheManager{
		client: client,
		ctx:    ctx,
	}

	log.Printf("✅ Redis Cache Manager initialized successfully - %s:%s DB:%d",
		cfg.RedisHost, cfg.RedisPort, redisDB)

	return nil
}

// GetCacheManager returns the global cache manager instance
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		if err := InitCacheManager(); err != nil {
			log.Printf("❌ Failed to initialize cache manager: %v", err)
			return nil
		}
	}
	return globalCacheManager
}

// SetAppCatalog caches the active marketplace app list.
func (cm *CacheManager) SetAppCatalog(apps []billing.App) error {
	return cm.setJSON(appListKey, apps, AppCatalogTTL)
}

// GetAppCatalog retrieves the cached marketplace app list.
func (cm *CacheManager) GetAppCatalog() ([]billing.App, bool) {
	var apps []billing.App
	if !cm.getJSON(appListKey, &apps) {
		return nil, false
	}
	return apps, true
}

// SetApp caches a single marketplace app.
func (cm *CacheManager) SetApp(app *billing.App) error {
	return cm.setJSON(appKeyPrefix+app.ID.String(), app, AppCatalogTTL)
}

// GetApp retrieves a single cached marketplace app.
func (cm *CacheManager) GetApp(id string) (*billing.App, bool) {
	var app billing.App
	if !cm.getJSON(appKeyPrefix+id, &app) {
		return nil, false
	}
	return &app, true
}

// SetPermissionCatalog caches the permission definition list.
func (cm *CacheManager) SetPermissionCatalog(permissions []models.Permission) error {
	return cm.setJSON(permissionCatalogKey, permissions, PermissionTTL)
}

// GetPermissionCatalog retrieves the cached permission definitions.
func (cm *CacheManager) GetPermissionCatalog() ([]models.Permission, bool) {
	var permissions []models.Permission
	if !cm.getJSON(permissionCatalogKey, &permissions) {
		return nil, false
	}
	return permissions, true
}

// InvalidateAppCatalog drops the app list and every per-app entry.
// Called after any app create/update so readers never see a stale
// catalog for longer than one request.
func (cm *CacheManager) InvalidateAppCatalog() error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	if err := cm.client.Del(cm.ctx, appListKey).Err(); err != nil {
		return fmt.Errorf("failed to delete app list key: %v", err)
	}
	return cm.invalidateByPattern(appKeyPrefix + "*")
}

// InvalidatePermissionCatalog drops the cached permission definitions.
func (cm *CacheManager) InvalidatePermissionCatalog() error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	return cm.client.Del(cm.ctx, permissionCatalogKey).Err()
}

// InvalidateAll drops every catalog cache entry.
func (cm *CacheManager) InvalidateAll() error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	return cm.invalidateByPattern("catalog:*")
}

func (cm *CacheManager) setJSON(key string, value interface{}, ttl time.Duration) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	if err := cm.client.Set(cm.ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %v", err)
	}

	log.Printf("🔄 Catalog cached: %s (TTL: %v)", key, ttl)
	return nil
}

func (cm *CacheManager) getJSON(key string, target interface{}) bool {
	if cm == nil || cm.client == nil {
		return false
	}

	result, err := cm.client.Get(cm.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			log.Printf("🔍 Cache miss: %s", key)
			return false
		}
		log.Printf("❌ Cache error: %v", err)
		return false
	}

	if err := json.Unmarshal([]byte(result), target); err != nil {
		log.Printf("❌ Failed to unmarshal cache data: %v", err)
		return false
	}

	log.Printf("✅ Cache hit: %s", key)
	return true
}

// invalidateByPattern invalidates cache entries matching a pattern
func (cm *CacheManager) invalidateByPattern(pattern string) error {
	iter := cm.client.Scan(cm.ctx, 0, pattern, 0).Iterator()
	var keys []string

	for iter.Next(cm.ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %v", err)
	}

	if len(keys) > 0 {
		if err := cm.client.Del(cm.ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %v", err)
		}
		log.Printf("🗑️  Cache invalidated: %d keys matching pattern '%s'", len(keys), pattern)
	} else {
		log.Printf("🔍 No cache keys found for pattern: %s", pattern)
	}

	return nil
}

// GetCacheStats returns cache statistics
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	if cm == nil || cm.client == nil {
		return nil, fmt.Errorf("cache manager not initialized")
	}

	info, err := cm.client.Info(cm.ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %v", err)
	}

	iter := cm.client.Scan(cm.ctx, 0, "catalog:*", 0).Iterator()
	keyCount := 0
	for iter.Next(cm.ctx) {
		keyCount++
	}

	stats := map[string]interface{}{
		"total_catalog_keys":   keyCount,
		"redis_info":           info,
		"cache_manager_active": true,
	}

	return stats, nil
}

// TestConnection tests the Redis connection
func (cm *CacheManager) TestConnection() error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}

	testKey := "test:connection"
	testValue := "connection_test_ok"

	if err := cm.client.Set(cm.ctx, testKey, testValue, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set test value: %v", err)
	}

	result, err := cm.client.Get(cm.ctx, testKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get test value: %v", err)
	}

	if result != testValue {
		return fmt.Errorf("test value mismatch: expected %s, got %s", testValue, result)
	}

	if err := cm.client.Del(cm.ctx, testKey).Err(); err != nil {
		return fmt.Errorf("failed to delete test value: %v", err)
	}

	log.Println("✅ Redis connection test passed")
	return nil
}

// Close closes the cache manager connection
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
