package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/permission"
	"tenanthub-backend/shared/utils/subscription"
)

var (
	ledger   *subscription.Ledger
	resolver *permission.Resolver
	clk      clock.Clock
)

// Init wires the subscription ledger and permission resolver used by the
// handlers in this package. Called once from main before routes are
// registered.
func Init(l *subscription.Ledger, r *permission.Resolver, c clock.Clock) {
	ledger = l
	resolver = r
	clk = c
}

// statusForError maps subscription errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, subscription.ErrNotFound),
		errors.Is(err, subscription.ErrAppNotFound):
		return http.StatusNotFound
	case errors.Is(err, subscription.ErrAlreadySubscribed),
		errors.Is(err, subscription.ErrTrialAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, subscription.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, subscription.ErrAppNotAvailable),
		errors.Is(err, subscription.ErrNotCancellable),
		errors.Is(err, subscription.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requirePermission aborts with 403 unless the caller's role holds the
// permission slug right now. Organization owners always pass.
func requirePermission(c *gin.Context, slug string) bool {
	allowed, err := resolver.HasPermission(c.Request.Context(), middleware.GetRoleID(c), slug, clk.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check permissions"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions", "required": slug})
		return false
	}
	return true
}
