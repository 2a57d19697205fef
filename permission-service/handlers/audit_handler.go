package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/database/models/notification"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/query"
)

// GetAuditLogs lists the organization's audit trail
// @Summary List audit logs
// @Description List the organization's audit trail: grants, revocations and subscription transitions. Supports filters[action], filters[entity_type] and filters[entity_id].
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} map[string]interface{} "Audit log page"
// @Failure 403 {object} map[string]interface{} "Actor lacks audit.view"
// @Router /audit-logs [get]
func GetAuditLogs(c *gin.Context) {
	allowed, err := granter.Resolver().HasPermission(c.Request.Context(), middleware.GetRoleID(c), "audit.view", time.Now().UTC())
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "required": "audit.view"})
		return
	}

	params := query.ParseListParams(c)
	organizationID := middleware.GetOrganizationID(c)

	allowedFilters := map[string]string{
		"action":      "action",
		"entity_type": "entity_type",
		"entity_id":   "entity_id",
	}
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"action":     "action",
	}

	// System records (actor nil, org nil) such as grant sweeps are
	// included alongside the organization's own records.
	base := database.DB.Model(&notification.AuditLog{}).
		Where("organization_id = ? OR organization_id IS NULL", organizationID)
	base = query.ApplyFilters(base, params.Filters, allowedFilters)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count audit logs"})
		return
	}

	var logs []notification.AuditLog
	paged := query.ApplySort(base, params.Sort, allowedSorts)
	paged = query.ApplyPagination(paged, params.Page, params.Limit)
	if err := paged.Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}
