package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models/billing"
)

// MemoryStore is an in-memory Store for tests. A single mutex covers
// every operation, so ApplyTransition's check-and-update is atomic the
// same way the SQL conditional UPDATE is.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*billing.OrgAppSubscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*billing.OrgAppSubscription)}
}

func (s *MemoryStore) Create(_ context.Context, sub *billing.OrgAppSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.OrganizationID == sub.OrganizationID && row.AppID == sub.AppID {
			return ErrAlreadySubscribed
		}
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = time.Now()
	clone := *sub
	s.rows[sub.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, organizationID, appID uuid.UUID) (*billing.OrgAppSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.OrganizationID == organizationID && row.AppID == appID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*billing.OrgAppSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context, organizationID uuid.UUID) ([]billing.OrgAppSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []billing.OrgAppSubscription
	for _, row := range s.rows {
		if row.OrganizationID == organizationID {
			subs = append(subs, *row)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

func (s *MemoryStore) UpdateAutoRenew(_ context.Context, id uuid.UUID, autoRenew bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.AutoRenew = autoRenew
	return nil
}

func (s *MemoryStore) ApplyTransition(_ context.Context, id uuid.UUID, expect Expect, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Status != expect.Status {
		return false, nil
	}
	if expect.NextBillingDate != nil {
		if row.NextBillingDate == nil || !row.NextBillingDate.Equal(*expect.NextBillingDate) {
			return false, nil
		}
	}

	for column, value := range updates {
		applyColumn(row, column, value)
	}
	return true, nil
}

func applyColumn(row *billing.OrgAppSubscription, column string, value interface{}) {
	switch column {
	case "status":
		row.Status = value.(string)
	case "subscription_start":
		row.SubscriptionStart = value.(time.Time)
	case "subscription_end":
		row.SubscriptionEnd = value.(time.Time)
	case "next_billing_date":
		row.NextBillingDate = toTimePtr(value)
	case "trial_ends_at":
		row.TrialEndsAt = toTimePtr(value)
	case "trial_used":
		row.TrialUsed = value.(bool)
	case "cancelled_at":
		row.CancelledAt = toTimePtr(value)
	case "cancellation_reason":
		row.CancellationReason = toStringPtr(value)
	case "auto_renew":
		row.AutoRenew = value.(bool)
	case "subscription_price":
		row.SubscriptionPrice = value.(float64)
	case "billing_period":
		row.BillingPeriod = value.(string)
	case "payment_reference":
		row.PaymentReference = toStringPtr(value)
	}
}

func toTimePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		t := v
		return &t
	case *time.Time:
		return v
	}
	return nil
}

func toStringPtr(value interface{}) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		s := v
		return &s
	case *string:
		return v
	}
	return nil
}

func (s *MemoryStore) DueTrials(_ context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	return s.scan(limit, func(row *billing.OrgAppSubscription) bool {
		return row.Status == billing.SubscriptionStatusTrial &&
			row.TrialEndsAt != nil && !row.TrialEndsAt.After(asOf)
	}), nil
}

func (s *MemoryStore) DueRenewals(_ context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	return s.scan(limit, func(row *billing.OrgAppSubscription) bool {
		return row.Status == billing.SubscriptionStatusActive && row.AutoRenew &&
			row.NextBillingDate != nil && !row.NextBillingDate.After(asOf)
	}), nil
}

func (s *MemoryStore) DueExpiries(_ context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	return s.scan(limit, func(row *billing.OrgAppSubscription) bool {
		return (row.Status == billing.SubscriptionStatusTrial || row.Status == billing.SubscriptionStatusActive) &&
			!row.SubscriptionEnd.After(asOf)
	}), nil
}

func (s *MemoryStore) ExpiringSoon(_ context.Context, from, to time.Time) ([]billing.OrgAppSubscription, error) {
	return s.scan(0, func(row *billing.OrgAppSubscription) bool {
		return row.Status == billing.SubscriptionStatusActive &&
			row.SubscriptionEnd.After(from) && !row.SubscriptionEnd.After(to)
	}), nil
}

func (s *MemoryStore) scan(limit int, match func(*billing.OrgAppSubscription) bool) []billing.OrgAppSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []billing.OrgAppSubscription
	for _, row := range s.rows {
		if match(row) {
			subs = append(subs, *row)
			if limit > 0 && len(subs) == limit {
				break
			}
		}
	}
	return subs
}

// MemoryAppStore is an in-memory AppStore for tests.
type MemoryAppStore struct {
	mu   sync.Mutex
	apps map[uuid.UUID]*billing.App
}

func NewMemoryAppStore() *MemoryAppStore {
	return &MemoryAppStore{apps: make(map[uuid.UUID]*billing.App)}
}

func (s *MemoryAppStore) AddApp(app *billing.App) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	clone := *app
	s.apps[app.ID] = &clone
}

func (s *MemoryAppStore) GetApp(_ context.Context, id uuid.UUID) (*billing.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, ErrAppNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *MemoryAppStore) IncrementSubscriptionCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.apps[id]; ok {
		app.SubscriptionCount++
	}
	return nil
}

func (s *MemoryAppStore) DecrementSubscriptionCount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.apps[id]; ok && app.SubscriptionCount > 0 {
		app.SubscriptionCount--
	}
	return nil
}

// SubscriptionCount is a test helper.
func (s *MemoryAppStore) SubscriptionCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.apps[id]; ok {
		return app.SubscriptionCount
	}
	return 0
}
