package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/database/models"
	"tenanthub-backend/shared/utils/cache"
)

// GetPermissions lists the permission definition catalog
// @Summary List permission definitions
// @Description Get the immutable permission catalog, optionally filtered by category
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Success 200 {object} map[string]interface{} "Permission catalog"
// @Router /permissions [get]
func GetPermissions(c *gin.Context) {
	category := c.Query("category")

	// The catalog is immutable reference data, so the cached copy is
	// always safe to serve. Category filtering happens on top of it.
	if category == "" {
		if cached, ok := cache.GetCacheManager().GetPermissionCatalog(); ok {
			c.JSON(http.StatusOK, gin.H{"permissions": cached, "count": len(cached)})
			return
		}
	}

	query := database.DB.Order("category, slug")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var permissions []models.Permission
	if err := query.Find(&permissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch permissions"})
		return
	}

	if category == "" {
		if err := cache.GetCacheManager().SetPermissionCatalog(permissions); err != nil {
			log.Printf("⚠️ Failed to cache permission catalog: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"permissions": permissions, "count": len(permissions)})
}

// GetPermission gets a single permission definition by ID
// @Summary Get permission definition
// @Description Get a single permission definition by its ID
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Permission ID"
// @Success 200 {object} models.Permission "Permission definition"
// @Failure 404 {object} map[string]interface{} "Permission not found"
// @Router /permissions/{id} [get]
func GetPermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid permission ID"})
		return
	}

	var permission models.Permission
	if err := database.DB.First(&permission, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Permission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch permission"})
		return
	}

	c.JSON(http.StatusOK, permission)
}
