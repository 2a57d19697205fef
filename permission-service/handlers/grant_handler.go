package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/permission"
)

// CreateGrantRequest is the payload for a new time-window grant.
type CreateGrantRequest struct {
	PermissionID string    `json:"permission_id" binding:"required"`
	StartsAt     time.Time `json:"starts_at" binding:"required"`
	ExpiresAt    time.Time `json:"expires_at" binding:"required"`
	Reason       *string   `json:"reason,omitempty"`
}

// CreateGrant grants a permission to a role for a time window
// @Summary Create time-window grant
// @Description Grant a permission to a role for a bounded time window
// @Tags grants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role_id path string true "Role ID"
// @Param grant body CreateGrantRequest true "Grant request"
// @Success 201 {object} models.TimeWindowGrant "Created grant"
// @Failure 400 {object} map[string]interface{} "Malformed window"
// @Failure 403 {object} map[string]interface{} "Actor lacks roles.manage"
// @Failure 404 {object} map[string]interface{} "Role or permission not found"
// @Failure 409 {object} map[string]interface{} "Overlapping active grant"
// @Router /roles/{role_id}/grants [post]
func CreateGrant(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	permissionID, err := uuid.Parse(req.PermissionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid permission ID"})
		return
	}

	actor := permission.Actor{
		UserID: middleware.GetUserID(c),
		RoleID: middleware.GetRoleID(c),
	}

	grant, err := granter.Grant(c.Request.Context(), actor, middleware.GetOrganizationID(c), permission.GrantRequest{
		RoleID:       roleID,
		PermissionID: permissionID,
		StartsAt:     req.StartsAt,
		ExpiresAt:    req.ExpiresAt,
		Reason:       req.Reason,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, grant)
}

// ListGrants lists all time-window grants of a role
// @Summary List grants for a role
// @Description List all time-window grants of a role, active and inactive
// @Tags grants
// @Produce json
// @Security BearerAuth
// @Param role_id path string true "Role ID"
// @Success 200 {object} map[string]interface{} "Grant list"
// @Failure 403 {object} map[string]interface{} "Actor lacks roles.view"
// @Failure 404 {object} map[string]interface{} "Role not found"
// @Router /roles/{role_id}/grants [get]
func ListGrants(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("role_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	actor := permission.Actor{
		UserID: middleware.GetUserID(c),
		RoleID: middleware.GetRoleID(c),
	}

	grants, err := granter.ListByRole(c.Request.Context(), actor, middleware.GetOrganizationID(c), roleID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"grants": grants, "count": len(grants)})
}

// RevokeGrant deactivates a time-window grant
// @Summary Revoke grant
// @Description Deactivate a time-window grant immediately; revoking twice is a no-op
// @Tags grants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grant ID"
// @Success 200 {object} map[string]interface{} "Revoked"
// @Failure 403 {object} map[string]interface{} "Actor lacks roles.manage"
// @Failure 404 {object} map[string]interface{} "Grant not found"
// @Router /grants/{id} [delete]
func RevokeGrant(c *gin.Context) {
	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid grant ID"})
		return
	}

	actor := permission.Actor{
		UserID: middleware.GetUserID(c),
		RoleID: middleware.GetRoleID(c),
	}

	if err := granter.Revoke(c.Request.Context(), actor, middleware.GetOrganizationID(c), grantID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Grant revoked"})
}
