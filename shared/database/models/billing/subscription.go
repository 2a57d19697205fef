package billing

import (
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models"
)

// Subscription lifecycle states. CANCELLED and EXPIRED are terminal for a
// row; re-subscribing reuses the slot with TrialUsed kept sticky.
const (
	SubscriptionStatusTrial     = "TRIAL"
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusCancelled = "CANCELLED"
	SubscriptionStatusExpired   = "EXPIRED"
)

// Billing periods
const (
	BillingPeriodMonthly = "MONTHLY"
	BillingPeriodYearly  = "YEARLY"
)

// Cancellation reasons written by the scheduler
const (
	CancellationReasonTrialEnded    = "trial_ended_no_renewal"
	CancellationReasonPaymentFailed = "payment_failed"
)

// OrgAppSubscription is the single ledger row for an (organization, app)
// pair. Status is only ever written through ledger/scheduler transitions,
// each guarded by a conditional update on the expected current status.
type OrgAppSubscription struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID     uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_org_app"`
	AppID              uuid.UUID  `json:"app_id" gorm:"type:uuid;not null;uniqueIndex:idx_org_app"`
	Status             string     `json:"status" gorm:"type:varchar(20);not null;index"`
	SubscriptionStart  time.Time  `json:"subscription_start" gorm:"not null"`
	SubscriptionEnd    time.Time  `json:"subscription_end" gorm:"not null;index"`
	NextBillingDate    *time.Time `json:"next_billing_date,omitempty" gorm:"index"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty" gorm:"index"`
	TrialUsed          bool       `json:"trial_used" gorm:"default:false;not null"` // sticky, never reset
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" gorm:"type:text"`
	AutoRenew          bool       `json:"auto_renew" gorm:"default:true;not null"`
	SubscriptionPrice  float64    `json:"subscription_price" gorm:"type:decimal(10,2);not null"` // price at subscribe time, immutable
	BillingPeriod      string     `json:"billing_period" gorm:"type:varchar(20);not null"`
	PaymentReference   *string    `json:"payment_reference,omitempty" gorm:"size:200"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	App          App                 `json:"app" gorm:"foreignKey:AppID"`
	Organization models.Organization `json:"organization" gorm:"foreignKey:OrganizationID"`
}

// TableName returns the table name for OrgAppSubscription
func (OrgAppSubscription) TableName() string {
	return "org_app_subscriptions"
}
