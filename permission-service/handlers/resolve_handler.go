package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PermissionCheckRequest represents a single permission check request
type PermissionCheckRequest struct {
	RoleID         string `json:"role_id" binding:"required"`
	PermissionSlug string `json:"permission_slug" binding:"required"`
	AsOf           string `json:"as_of,omitempty"`
}

// PermissionCheckResponse represents the response from a permission check
type PermissionCheckResponse struct {
	Allowed bool      `json:"allowed"`
	AsOf    time.Time `json:"as_of"`
}

// asOfOrNow parses an optional RFC3339 instant, defaulting to now.
func asOfOrNow(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return asOf, true
}

// GetEffectivePermissions resolves a role's effective permission set
// @Summary Resolve effective permissions
// @Description Get the effective permission slugs of a role at an instant: base role permissions plus active time-window grants
// @Tags permission-checks
// @Produce json
// @Security BearerAuth
// @Param role_id path string true "Role ID"
// @Param as_of query string false "Instant to evaluate at (RFC3339, default now)"
// @Success 200 {object} map[string]interface{} "Effective permission slugs"
// @Failure 404 {object} map[string]interface{} "Role not found"
// @Router /roles/{role_id}/effective-permissions [get]
func GetEffectivePermissions(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	asOf, ok := asOfOrNow(c.Query("as_of"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid as_of, expected RFC3339"})
		return
	}

	set, err := granter.Resolver().Resolve(c.Request.Context(), roleID, asOf)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	slugs := set.Slugs()
	c.JSON(http.StatusOK, gin.H{
		"role_id":     roleID,
		"as_of":       asOf,
		"permissions": slugs,
		"count":       len(slugs),
	})
}

// CheckPermission checks whether a role holds a permission at an instant
// @Summary Check single permission
// @Description Check whether a role holds a permission slug at a given instant
// @Tags permission-checks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param check body PermissionCheckRequest true "Permission check request"
// @Success 200 {object} PermissionCheckResponse "Permission check result"
// @Failure 400 {object} map[string]interface{} "Invalid request format"
// @Router /permissions/check [post]
func CheckPermission(c *gin.Context) {
	var req PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	asOf, ok := asOfOrNow(req.AsOf)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid as_of, expected RFC3339"})
		return
	}

	allowed, err := granter.Resolver().HasPermission(c.Request.Context(), roleID, req.PermissionSlug, asOf)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, PermissionCheckResponse{Allowed: allowed, AsOf: asOf})
}
