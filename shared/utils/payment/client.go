package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ChargeRequest is sent to the external payment confirmation service.
type ChargeRequest struct {
	OrganizationID string  `json:"organization_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
}

// Confirmation is the opaque result of a charge attempt. The core never
// interprets gateway-specific payloads beyond these fields.
type Confirmation struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Gateway charges an organization and returns a confirmation. A returned
// error means the gateway could not be reached; a declined charge is a
// Confirmation with Success=false, not an error.
type Gateway interface {
	Charge(ctx context.Context, organizationID uuid.UUID, amount float64, currency, description string) (Confirmation, error)
}

// Client handles communication with the payment confirmation service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new payment service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Charge requests a payment confirmation for the given organization
func (c *Client) Charge(ctx context.Context, organizationID uuid.UUID, amount float64, currency, description string) (Confirmation, error) {
	request := ChargeRequest{
		OrganizationID: organizationID.String(),
		Amount:         amount,
		Currency:       currency,
		Description:    description,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return Confirmation{}, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/payments/charge", c.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return Confirmation{}, fmt.Errorf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Confirmation{}, fmt.Errorf("payment service returned status: %d", resp.StatusCode)
	}

	var result Confirmation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Confirmation{}, fmt.Errorf("failed to decode response: %v", err)
	}

	return result, nil
}

// StaticGateway returns a fixed confirmation for every charge. Used in
// tests and local development.
type StaticGateway struct {
	Result Confirmation
	Err    error
	Calls  int
}

func (s *StaticGateway) Charge(ctx context.Context, organizationID uuid.UUID, amount float64, currency, description string) (Confirmation, error) {
	s.Calls++
	if s.Err != nil {
		return Confirmation{}, s.Err
	}
	if s.Result.Success && s.Result.Reference == "" {
		return Confirmation{Success: true, Reference: fmt.Sprintf("pay_%s", uuid.NewString()[:8])}, nil
	}
	return s.Result, nil
}
