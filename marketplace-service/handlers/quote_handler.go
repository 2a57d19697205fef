package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database"
	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/middleware"
	pricing "tenanthub-backend/shared/utils/billing"
)

// UpgradeQuoteRequest asks what switching to another app would cost,
// crediting the unexpired remainder of the current subscription.
type UpgradeQuoteRequest struct {
	TargetAppID  string `json:"target_app_id" binding:"required"`
	Period       string `json:"period" binding:"required"`
	CustomMonths int    `json:"custom_months,omitempty"`
}

// GetUpgradeQuote prices an app switch with prorated credit
// @Summary Quote an app upgrade
// @Description Price a switch from the current app subscription to another app. The unexpired remainder of the current term is credited against the new price; the quote does not change any state.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param app_id path string true "Currently subscribed app ID"
// @Param quote body UpgradeQuoteRequest true "Upgrade target and period"
// @Success 200 {object} pricing.UpgradePriceCalculation "Upgrade quote"
// @Failure 404 {object} map[string]interface{} "Subscription or target app not found"
// @Router /marketplace/apps/{app_id}/upgrade-quote [post]
func GetUpgradeQuote(c *gin.Context) {
	if !requirePermission(c, "subscriptions.view") {
		return
	}

	appID, err := uuid.Parse(c.Param("app_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app ID"})
		return
	}

	var req UpgradeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	targetAppID, err := uuid.Parse(req.TargetAppID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target app ID"})
		return
	}

	sub, err := ledger.Get(c.Request.Context(), middleware.GetOrganizationID(c), appID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	var targetApp billing.App
	if err := database.DB.First(&targetApp, "id = ?", targetAppID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target app not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch target app"})
		return
	}
	if targetApp.Status != billing.AppStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target app is not available for purchase"})
		return
	}

	// Terminal subscriptions carry no credit: only a still-running term
	// counts toward the new price.
	expiration := &sub.SubscriptionEnd
	if sub.Status == billing.SubscriptionStatusCancelled || sub.Status == billing.SubscriptionStatusExpired {
		expiration = nil
	}

	quote, err := pricing.CalculateUpgradePrice(
		sub.SubscriptionPrice,
		targetApp.Price,
		expiration,
		pricing.SubscriptionPeriod(req.Period),
		req.CustomMonths,
		clk.Now(),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}
