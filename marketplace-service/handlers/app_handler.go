package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/utils/cache"
)

// CreateAppRequest is the payload for publishing a marketplace app.
type CreateAppRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"min=0"`
	TrialDays   int     `json:"trial_days" binding:"min=0"`
	IsFeatured  bool    `json:"is_featured"`
	SortOrder   int     `json:"sort_order"`
}

// UpdateAppRequest is the payload for updating a marketplace app. Only
// provided fields are changed; price changes never touch existing
// subscriptions, which keep the price they were sold at.
type UpdateAppRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	TrialDays   *int     `json:"trial_days,omitempty"`
	IsFeatured  *bool    `json:"is_featured,omitempty"`
	SortOrder   *int     `json:"sort_order,omitempty"`
}

// GetApps lists active marketplace apps
// @Summary Browse the app marketplace
// @Description List active marketplace apps, optionally filtered by category
// @Tags apps
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Success 200 {object} map[string]interface{} "App list"
// @Router /marketplace/apps [get]
func GetApps(c *gin.Context) {
	category := c.Query("category")

	if category == "" {
		if cached, ok := cache.GetCacheManager().GetAppCatalog(); ok {
			c.JSON(http.StatusOK, gin.H{"apps": cached, "count": len(cached)})
			return
		}
	}

	query := database.DB.Where("status = ?", billing.AppStatusActive).
		Order("is_featured DESC, sort_order, name")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var apps []billing.App
	if err := query.Find(&apps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch apps"})
		return
	}

	if category == "" {
		if err := cache.GetCacheManager().SetAppCatalog(apps); err != nil {
			log.Printf("⚠️ Failed to cache app catalog: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"apps": apps, "count": len(apps)})
}

// GetApp gets a single marketplace app by ID
// @Summary Get marketplace app
// @Description Get a single marketplace app by its ID
// @Tags apps
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Success 200 {object} billing.App "App"
// @Failure 404 {object} map[string]interface{} "App not found"
// @Router /marketplace/apps/{app_id} [get]
func GetApp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	if cached, ok := cache.GetCacheManager().GetApp(id.String()); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	var app billing.App
	if err := database.DB.First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch app"})
		return
	}

	if err := cache.GetCacheManager().SetApp(&app); err != nil {
		log.Printf("⚠️ Failed to cache app: %v", err)
	}

	c.JSON(http.StatusOK, app)
}

// CreateApp publishes a new marketplace app
// @Summary Create marketplace app
// @Description Publish a new app to the marketplace in DRAFT status
// @Tags apps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app body CreateAppRequest true "App definition"
// @Success 201 {object} billing.App "Created app"
// @Failure 403 {object} map[string]interface{} "Actor lacks apps.manage"
// @Router /marketplace/apps [post]
func CreateApp(c *gin.Context) {
	if !requirePermission(c, "apps.manage") {
		return
	}

	var req CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	app := billing.App{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Category:    req.Category,
		Status:      billing.AppStatusDraft,
		Price:       req.Price,
		TrialDays:   req.TrialDays,
		IsFeatured:  req.IsFeatured,
		SortOrder:   req.SortOrder,
	}

	if err := database.DB.Create(&app).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create app"})
		return
	}

	if err := cache.GetCacheManager().InvalidateAppCatalog(); err != nil {
		log.Printf("⚠️ Failed to invalidate app catalog cache: %v", err)
	}

	c.JSON(http.StatusCreated, app)
}

// UpdateApp updates a marketplace app
// @Summary Update marketplace app
// @Description Update a marketplace app; price changes apply to new subscriptions only
// @Tags apps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Param app body UpdateAppRequest true "Fields to update"
// @Success 200 {object} billing.App "Updated app"
// @Failure 403 {object} map[string]interface{} "Actor lacks apps.manage"
// @Failure 404 {object} map[string]interface{} "App not found"
// @Router /marketplace/apps/{app_id} [put]
func UpdateApp(c *gin.Context) {
	if !requirePermission(c, "apps.manage") {
		return
	}

	id, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	var req UpdateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	var app billing.App
	if err := database.DB.First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch app"})
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case billing.AppStatusDraft, billing.AppStatusActive, billing.AppStatusArchived:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app status"})
			return
		}
		app.Status = *req.Status
	}
	if req.Name != nil {
		app.Name = *req.Name
	}
	if req.Description != nil {
		app.Description = *req.Description
	}
	if req.Category != nil {
		app.Category = *req.Category
	}
	if req.Price != nil {
		app.Price = *req.Price
	}
	if req.TrialDays != nil {
		app.TrialDays = *req.TrialDays
	}
	if req.IsFeatured != nil {
		app.IsFeatured = *req.IsFeatured
	}
	if req.SortOrder != nil {
		app.SortOrder = *req.SortOrder
	}

	if err := database.DB.Save(&app).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update app"})
		return
	}

	if err := cache.GetCacheManager().InvalidateAppCatalog(); err != nil {
		log.Printf("⚠️ Failed to invalidate app catalog cache: %v", err)
	}

	c.JSON(http.StatusOK, app)
}
