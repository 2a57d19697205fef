package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models/billing"
)

// Expect states what a conditional transition requires of the current
// row. Status always participates; NextBillingDate is matched as well
// when set, which guards renewals where the status itself does not
// change.
type Expect struct {
	Status          string
	NextBillingDate *time.Time
}

// Store persists subscription rows. Every status write goes through
// ApplyTransition so concurrent writers are serialized per row without a
// global lock: the loser of a compare-and-swap sees applied=false and
// skips.
type Store interface {
	Create(ctx context.Context, sub *billing.OrgAppSubscription) error
	Get(ctx context.Context, organizationID, appID uuid.UUID) (*billing.OrgAppSubscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*billing.OrgAppSubscription, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]billing.OrgAppSubscription, error)
	// UpdateAutoRenew flips auto_renew without touching status.
	UpdateAutoRenew(ctx context.Context, id uuid.UUID, autoRenew bool) error
	// ApplyTransition updates the row only while it still matches the
	// expectation. Returns false when another writer got there first.
	ApplyTransition(ctx context.Context, id uuid.UUID, expect Expect, updates map[string]interface{}) (bool, error)

	// Scheduler scans. All comparisons are against the asOf instant the
	// scheduler was ticked with, never a wall clock.
	DueTrials(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error)
	DueRenewals(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error)
	DueExpiries(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error)
	ExpiringSoon(ctx context.Context, from, to time.Time) ([]billing.OrgAppSubscription, error)
}

// AppStore is the marketplace app lookup the ledger needs when creating
// subscriptions.
type AppStore interface {
	GetApp(ctx context.Context, id uuid.UUID) (*billing.App, error)
	IncrementSubscriptionCount(ctx context.Context, id uuid.UUID) error
	DecrementSubscriptionCount(ctx context.Context, id uuid.UUID) error
}

// PeriodEnd advances from a period start by one billing period using
// calendar arithmetic.
func PeriodEnd(start time.Time, billingPeriod string) time.Time {
	if billingPeriod == billing.BillingPeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// PeriodAmount converts a monthly base price into the charge for one
// billing period.
func PeriodAmount(monthlyPrice float64, billingPeriod string) float64 {
	if billingPeriod == billing.BillingPeriodYearly {
		return monthlyPrice * 12
	}
	return monthlyPrice
}
