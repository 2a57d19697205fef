package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database/models/billing"
)

// NotificationClient handles communication with the external notification
// service. Deliveries are best effort: callers log failures and move on,
// lifecycle state never depends on a notice being sent.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNotificationClient creates a new notification client
func NewNotificationClient() *NotificationClient {
	cfg := config.GetConfig()
	return &NotificationClient{
		baseURL: cfg.NotificationServiceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubscriptionNoticeRequest is the payload for subscription lifecycle
// notices.
type SubscriptionNoticeRequest struct {
	OrganizationID string `json:"organization_id"`
	AppID          string `json:"app_id"`
	SubscriptionID string `json:"subscription_id"`
	ExpiresAt      string `json:"expires_at"`
	DaysLeft       int    `json:"days_left,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// SubscriptionExpiringSoon notifies an organization that an active
// subscription ends within the warning window.
func (nc *NotificationClient) SubscriptionExpiringSoon(ctx context.Context, sub *billing.OrgAppSubscription, daysLeft int) error {
	request := SubscriptionNoticeRequest{
		OrganizationID: sub.OrganizationID.String(),
		AppID:          sub.AppID.String(),
		SubscriptionID: sub.ID.String(),
		ExpiresAt:      sub.SubscriptionEnd.Format(time.RFC3339),
		DaysLeft:       daysLeft,
	}
	return nc.sendNoticeRequest(ctx, "/api/notifications/subscription-expiring", request)
}

// SubscriptionExpired notifies an organization that a subscription has
// ended, with the reason the scheduler recorded.
func (nc *NotificationClient) SubscriptionExpired(ctx context.Context, sub *billing.OrgAppSubscription, reason string) error {
	request := SubscriptionNoticeRequest{
		OrganizationID: sub.OrganizationID.String(),
		AppID:          sub.AppID.String(),
		SubscriptionID: sub.ID.String(),
		ExpiresAt:      sub.SubscriptionEnd.Format(time.RFC3339),
		Reason:         reason,
	}
	return nc.sendNoticeRequest(ctx, "/api/notifications/subscription-expired", request)
}

// Generic notice sender
func (nc *NotificationClient) sendNoticeRequest(ctx context.Context, endpoint string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	url := fmt.Sprintf("%s%s", nc.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification service returned status: %d", resp.StatusCode)
	}

	return nil
}
