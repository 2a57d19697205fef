package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tenanthub-backend/shared/utils/cache"
)

// GetCacheStats returns catalog cache statistics
// @Summary Get cache statistics
// @Description Get Redis catalog cache statistics
// @Tags cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Cache statistics"
// @Router /permissions/cache/stats [get]
func GetCacheStats(c *gin.Context) {
	stats, err := cache.GetCacheManager().GetCacheStats()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// InvalidateCatalogCache drops all cached catalog data
// @Summary Invalidate catalog cache
// @Description Drop every cached catalog entry (permission definitions and app list)
// @Tags cache
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Cache invalidated"
// @Router /permissions/cache/invalidate [post]
func InvalidateCatalogCache(c *gin.Context) {
	if err := cache.GetCacheManager().InvalidateAll(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Catalog cache invalidated"})
}
