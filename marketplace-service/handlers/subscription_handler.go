package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/middleware"
	"tenanthub-backend/shared/utils/subscription"
)

// SubscribeRequest is the payload for purchasing an app subscription.
type SubscribeRequest struct {
	BillingPeriod string `json:"billing_period,omitempty"`
	StartTrial    bool   `json:"start_trial"`
	AutoRenew     bool   `json:"auto_renew"`
}

// CancelRequest optionally carries a cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AutoRenewRequest flips the renewal preference.
type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" binding:"required"`
}

// subscriptionResponse augments a row with the remaining trial days.
func subscriptionResponse(sub *billing.OrgAppSubscription) gin.H {
	return gin.H{
		"subscription":         sub,
		"trial_days_remaining": subscription.TrialDaysRemaining(sub, clk.Now()),
	}
}

// Subscribe purchases an app subscription for the organization
// @Summary Subscribe to an app
// @Description Subscribe the organization to a marketplace app, as a trial or a paid subscription. Paid subscriptions require a successful payment confirmation before any access is granted.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Param subscription body SubscribeRequest true "Subscription options"
// @Success 201 {object} map[string]interface{} "Created subscription"
// @Failure 402 {object} map[string]interface{} "Payment declined"
// @Failure 409 {object} map[string]interface{} "Already subscribed or trial already used"
// @Router /marketplace/apps/{app_id}/subscribe [post]
func Subscribe(c *gin.Context) {
	if !requirePermission(c, "subscriptions.manage") {
		return
	}

	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	actorID := middleware.GetUserID(c)
	sub, err := ledger.Subscribe(c.Request.Context(), subscription.SubscribeRequest{
		OrganizationID: middleware.GetOrganizationID(c),
		AppID:          appID,
		BillingPeriod:  req.BillingPeriod,
		StartTrial:     req.StartTrial,
		AutoRenew:      req.AutoRenew,
		ActorID:        &actorID,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, subscriptionResponse(sub))
}

// CancelSubscription cancels an app subscription immediately
// @Summary Cancel subscription
// @Description Cancel the organization's subscription to an app. Cancellation is immediate: access ends now, not at the period end.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Param cancellation body CancelRequest false "Cancellation reason"
// @Success 200 {object} map[string]interface{} "Cancelled subscription"
// @Failure 400 {object} map[string]interface{} "Subscription already terminal"
// @Failure 404 {object} map[string]interface{} "No subscription for this app"
// @Router /marketplace/apps/{app_id}/subscription [delete]
func CancelSubscription(c *gin.Context) {
	if !requirePermission(c, "subscriptions.manage") {
		return
	}

	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID := middleware.GetUserID(c)
	sub, err := ledger.Cancel(c.Request.Context(), middleware.GetOrganizationID(c), appID, req.Reason, &actorID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, subscriptionResponse(sub))
}

// SetAutoRenew updates the subscription's renewal preference
// @Summary Set auto-renew
// @Description Enable or disable automatic renewal for an app subscription
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Param preference body AutoRenewRequest true "Auto-renew preference"
// @Success 200 {object} map[string]interface{} "Updated subscription"
// @Failure 400 {object} map[string]interface{} "Subscription already terminal"
// @Router /marketplace/apps/{app_id}/subscription/auto-renew [put]
func SetAutoRenew(c *gin.Context) {
	if !requirePermission(c, "subscriptions.manage") {
		return
	}

	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	var req AutoRenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	actorID := middleware.GetUserID(c)
	sub, err := ledger.SetAutoRenew(c.Request.Context(), middleware.GetOrganizationID(c), appID, *req.AutoRenew, &actorID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, subscriptionResponse(sub))
}

// GetSubscription gets the organization's subscription to an app
// @Summary Get subscription
// @Description Get the organization's subscription row for an app, terminal or not
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Success 200 {object} map[string]interface{} "Subscription"
// @Failure 404 {object} map[string]interface{} "No subscription for this app"
// @Router /marketplace/apps/{app_id}/subscription [get]
func GetSubscription(c *gin.Context) {
	if !requirePermission(c, "subscriptions.view") {
		return
	}

	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	sub, err := ledger.Get(c.Request.Context(), middleware.GetOrganizationID(c), appID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, subscriptionResponse(sub))
}

// ListSubscriptions lists all subscriptions of the organization
// @Summary List subscriptions
// @Description List every subscription row of the organization, including cancelled and expired ones
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Subscription list"
// @Router /marketplace/subscriptions [get]
func ListSubscriptions(c *gin.Context) {
	if !requirePermission(c, "subscriptions.view") {
		return
	}

	subs, err := ledger.List(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

// CheckSubscription reports whether the organization has access to an app
// @Summary Check subscription access
// @Description Check whether the organization currently has access to an app (TRIAL or ACTIVE)
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "App ID"
// @Success 200 {object} map[string]interface{} "Access status"
// @Router /marketplace/apps/{app_id}/subscription/check [get]
func CheckSubscription(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	subscribed, err := ledger.IsSubscribed(c.Request.Context(), middleware.GetOrganizationID(c), appID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"app_id": appID, "subscribed": subscribed})
}
