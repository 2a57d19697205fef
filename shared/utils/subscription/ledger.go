package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/payment"
)

// Ledger owns the subscription lifecycle for organization/app pairs:
// purchase, trial start, cancellation and auto-renew preference. Paid
// subscriptions are charge-first: no row reaches ACTIVE without a
// successful payment confirmation.
type Ledger struct {
	store    Store
	apps     AppStore
	gateway  payment.Gateway
	sink     audit.Sink
	clock    clock.Clock
	currency string
}

func NewLedger(store Store, apps AppStore, gateway payment.Gateway, sink audit.Sink, clk clock.Clock, currency string) *Ledger {
	return &Ledger{
		store:    store,
		apps:     apps,
		gateway:  gateway,
		sink:     sink,
		clock:    clk,
		currency: currency,
	}
}

// SubscribeRequest describes a purchase. StartTrial is honored only when
// the app offers trial days and the organization has not used its trial
// for this app before.
type SubscribeRequest struct {
	OrganizationID uuid.UUID
	AppID          uuid.UUID
	BillingPeriod  string
	StartTrial     bool
	AutoRenew      bool
	ActorID        *uuid.UUID
}

// Subscribe creates a subscription for the pair. A terminal row for the
// same pair is treated as a cleared slot and reused in place, keeping
// trial_used sticky across resubscriptions.
func (l *Ledger) Subscribe(ctx context.Context, req SubscribeRequest) (*billing.OrgAppSubscription, error) {
	if req.BillingPeriod == "" {
		req.BillingPeriod = billing.BillingPeriodMonthly
	}
	if req.BillingPeriod != billing.BillingPeriodMonthly && req.BillingPeriod != billing.BillingPeriodYearly {
		return nil, ErrInvalidPeriod
	}

	app, err := l.apps.GetApp(ctx, req.AppID)
	if err != nil {
		return nil, err
	}
	if app.Status != billing.AppStatusActive {
		return nil, ErrAppNotAvailable
	}

	existing, err := l.store.Get(ctx, req.OrganizationID, req.AppID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil && !isTerminal(existing.Status) {
		return nil, ErrAlreadySubscribed
	}

	trialUsed := existing != nil && existing.TrialUsed
	if req.StartTrial && trialUsed {
		return nil, ErrTrialAlreadyUsed
	}

	now := l.clock.Now()
	sub := billing.OrgAppSubscription{
		OrganizationID:    req.OrganizationID,
		AppID:             req.AppID,
		SubscriptionStart: now,
		SubscriptionPrice: app.Price,
		BillingPeriod:     req.BillingPeriod,
		AutoRenew:         req.AutoRenew,
	}

	if req.StartTrial && app.TrialDays > 0 {
		trialEnds := now.AddDate(0, 0, app.TrialDays)
		sub.Status = billing.SubscriptionStatusTrial
		sub.SubscriptionEnd = trialEnds
		sub.TrialEndsAt = &trialEnds
		sub.TrialUsed = true
	} else {
		conf, err := l.gateway.Charge(ctx, req.OrganizationID, PeriodAmount(app.Price, req.BillingPeriod), l.currency,
			fmt.Sprintf("Subscription to %s (%s)", app.Name, req.BillingPeriod))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentRequired, err)
		}
		if !conf.Success {
			return nil, fmt.Errorf("%w: %s", ErrPaymentRequired, conf.Reason)
		}
		end := PeriodEnd(now, req.BillingPeriod)
		sub.Status = billing.SubscriptionStatusActive
		sub.SubscriptionEnd = end
		sub.NextBillingDate = &end
		sub.TrialUsed = trialUsed
		sub.PaymentReference = &conf.Reference
	}

	if existing != nil {
		// Reuse the terminal row so the unique (org, app) index stays a
		// single slot per pair. The CAS on the terminal status loses to a
		// concurrent resubscribe.
		applied, err := l.store.ApplyTransition(ctx, existing.ID, Expect{Status: existing.Status}, map[string]interface{}{
			"status":              sub.Status,
			"subscription_start":  sub.SubscriptionStart,
			"subscription_end":    sub.SubscriptionEnd,
			"next_billing_date":   sub.NextBillingDate,
			"trial_ends_at":       sub.TrialEndsAt,
			"trial_used":          trialUsed || sub.TrialUsed,
			"cancelled_at":        nil,
			"cancellation_reason": nil,
			"auto_renew":          sub.AutoRenew,
			"subscription_price":  sub.SubscriptionPrice,
			"billing_period":      sub.BillingPeriod,
			"payment_reference":   sub.PaymentReference,
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			return nil, ErrAlreadySubscribed
		}
		sub.ID = existing.ID
	} else if err := l.store.Create(ctx, &sub); err != nil {
		return nil, err
	}

	if err := l.apps.IncrementSubscriptionCount(ctx, req.AppID); err != nil {
		log.Printf("⚠️ Failed to increment subscription count for app %s: %v", req.AppID, err)
	}

	if err := l.sink.Record(&req.OrganizationID, req.ActorID, "app.subscribed", "org_app_subscription", sub.ID.String(), nil, map[string]interface{}{
		"app_id":         req.AppID.String(),
		"status":         sub.Status,
		"billing_period": sub.BillingPeriod,
		"price":          sub.SubscriptionPrice,
		"auto_renew":     sub.AutoRenew,
	}); err != nil {
		log.Printf("⚠️ Failed to record subscription audit: %v", err)
	}

	return &sub, nil
}

// Cancel ends a TRIAL or ACTIVE subscription immediately: the status
// flips to CANCELLED and access is revoked at once, with no grace until
// the end of the paid period.
func (l *Ledger) Cancel(ctx context.Context, organizationID, appID uuid.UUID, reason string, actorID *uuid.UUID) (*billing.OrgAppSubscription, error) {
	sub, err := l.store.Get(ctx, organizationID, appID)
	if err != nil {
		return nil, err
	}
	if isTerminal(sub.Status) {
		return nil, ErrNotCancellable
	}

	now := l.clock.Now()
	updates := map[string]interface{}{
		"status":       billing.SubscriptionStatusCancelled,
		"cancelled_at": now,
		"auto_renew":   false,
	}
	if reason != "" {
		updates["cancellation_reason"] = reason
	}

	applied, err := l.store.ApplyTransition(ctx, sub.ID, Expect{Status: sub.Status}, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrNotCancellable
	}

	if err := l.apps.DecrementSubscriptionCount(ctx, appID); err != nil {
		log.Printf("⚠️ Failed to decrement subscription count for app %s: %v", appID, err)
	}

	if err := l.sink.Record(&organizationID, actorID, "app.subscription.cancelled", "org_app_subscription", sub.ID.String(),
		map[string]interface{}{"status": sub.Status},
		map[string]interface{}{"status": billing.SubscriptionStatusCancelled, "reason": reason}); err != nil {
		log.Printf("⚠️ Failed to record cancellation audit: %v", err)
	}

	sub.Status = billing.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	if reason != "" {
		sub.CancellationReason = &reason
	}
	sub.AutoRenew = false
	return sub, nil
}

// SetAutoRenew flips the renewal preference. Allowed only while the
// subscription is TRIAL or ACTIVE.
func (l *Ledger) SetAutoRenew(ctx context.Context, organizationID, appID uuid.UUID, autoRenew bool, actorID *uuid.UUID) (*billing.OrgAppSubscription, error) {
	sub, err := l.store.Get(ctx, organizationID, appID)
	if err != nil {
		return nil, err
	}
	if isTerminal(sub.Status) {
		return nil, ErrNotCancellable
	}

	if err := l.store.UpdateAutoRenew(ctx, sub.ID, autoRenew); err != nil {
		return nil, err
	}

	if err := l.sink.Record(&organizationID, actorID, "app.subscription.updated", "org_app_subscription", sub.ID.String(),
		map[string]interface{}{"auto_renew": sub.AutoRenew},
		map[string]interface{}{"auto_renew": autoRenew}); err != nil {
		log.Printf("⚠️ Failed to record auto-renew audit: %v", err)
	}

	sub.AutoRenew = autoRenew
	return sub, nil
}

// Get returns the subscription row for the pair, terminal or not.
func (l *Ledger) Get(ctx context.Context, organizationID, appID uuid.UUID) (*billing.OrgAppSubscription, error) {
	return l.store.Get(ctx, organizationID, appID)
}

// List returns all subscription rows of the organization.
func (l *Ledger) List(ctx context.Context, organizationID uuid.UUID) ([]billing.OrgAppSubscription, error) {
	return l.store.List(ctx, organizationID)
}

// IsSubscribed reports whether the organization currently has access to
// the app. TRIAL counts as access; CANCELLED and EXPIRED never do.
func (l *Ledger) IsSubscribed(ctx context.Context, organizationID, appID uuid.UUID) (bool, error) {
	sub, err := l.store.Get(ctx, organizationID, appID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !isTerminal(sub.Status), nil
}

func isTerminal(status string) bool {
	return status == billing.SubscriptionStatusCancelled || status == billing.SubscriptionStatusExpired
}

// trialRemaining is used by handlers to surface how much trial time is
// left; zero when not on trial.
func trialRemaining(sub *billing.OrgAppSubscription, now time.Time) time.Duration {
	if sub.Status != billing.SubscriptionStatusTrial || sub.TrialEndsAt == nil || !sub.TrialEndsAt.After(now) {
		return 0
	}
	return sub.TrialEndsAt.Sub(now)
}

// TrialDaysRemaining rounds the remaining trial time up to whole days.
func TrialDaysRemaining(sub *billing.OrgAppSubscription, now time.Time) int {
	remaining := trialRemaining(sub, now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
}
