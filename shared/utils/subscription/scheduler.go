package subscription

import (
	"context"
	"fmt"
	"log"
	"time"

	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/payment"
)

// Sweeper deactivates expired time-bounded permission grants; the
// scheduler drives it once per tick.
type Sweeper interface {
	SweepExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// Notifier delivers best-effort expiry warnings. Failures are logged and
// never affect lifecycle transitions.
type Notifier interface {
	SubscriptionExpiringSoon(ctx context.Context, sub *billing.OrgAppSubscription, daysLeft int) error
}

// TickStats summarizes one scheduler pass.
type TickStats struct {
	TrialsActivated int   `json:"trials_activated"`
	TrialsExpired   int   `json:"trials_expired"`
	Renewed         int   `json:"renewed"`
	Expired         int   `json:"expired"`
	WarningsSent    int   `json:"warnings_sent"`
	GrantsSwept     int64 `json:"grants_swept"`
	Errors          int   `json:"errors"`
}

// Scheduler runs the periodic subscription lifecycle pass. Every
// transition is a compare-and-swap on the row's current state, so ticks
// are idempotent and two overlapping ticks cannot double-charge or
// double-transition: the loser of the CAS skips the row.
type Scheduler struct {
	store       Store
	gateway     payment.Gateway
	sink        audit.Sink
	sweeper     Sweeper
	notifier    Notifier
	currency    string
	batchSize   int
	warningDays int
}

func NewScheduler(store Store, gateway payment.Gateway, sink audit.Sink, sweeper Sweeper, notifier Notifier, currency string, batchSize, warningDays int) *Scheduler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Scheduler{
		store:       store,
		gateway:     gateway,
		sink:        sink,
		sweeper:     sweeper,
		notifier:    notifier,
		currency:    currency,
		batchSize:   batchSize,
		warningDays: warningDays,
	}
}

// Tick processes everything due at asOf: trial endings first, then
// renewals, then expiries, then warnings and the grant sweep. Per-row
// failures are logged and counted but never abort the pass; ctx
// cancellation stops between rows.
func (s *Scheduler) Tick(ctx context.Context, asOf time.Time) TickStats {
	var stats TickStats

	s.processTrials(ctx, asOf, &stats)
	s.processRenewals(ctx, asOf, &stats)
	s.processExpiries(ctx, asOf, &stats)
	s.sendWarnings(ctx, asOf, &stats)

	if s.sweeper != nil && ctx.Err() == nil {
		swept, err := s.sweeper.SweepExpired(ctx, asOf)
		if err != nil {
			log.Printf("❌ Grant sweep failed: %v", err)
			stats.Errors++
		} else {
			stats.GrantsSwept = swept
		}
	}

	log.Printf("🔄 Scheduler tick at %s: %d trials activated, %d trials expired, %d renewed, %d expired, %d warnings, %d grants swept, %d errors",
		asOf.Format(time.RFC3339), stats.TrialsActivated, stats.TrialsExpired, stats.Renewed, stats.Expired, stats.WarningsSent, stats.GrantsSwept, stats.Errors)
	return stats
}

// processTrials converts TRIAL rows whose trial has ended. A row with
// auto-renew and a successful charge becomes ACTIVE with its paid period
// anchored at the trial end; anything else expires with the trial-ended
// reason. A declined charge resolves to EXPIRED immediately, it is never
// left pending.
func (s *Scheduler) processTrials(ctx context.Context, asOf time.Time, stats *TickStats) {
	rows, err := s.store.DueTrials(ctx, asOf, s.batchSize)
	if err != nil {
		log.Printf("❌ Failed to load due trials: %v", err)
		stats.Errors++
		return
	}

	for i := range rows {
		if ctx.Err() != nil {
			return
		}
		sub := &rows[i]

		if sub.AutoRenew {
			conf, err := s.gateway.Charge(ctx, sub.OrganizationID, PeriodAmount(sub.SubscriptionPrice, sub.BillingPeriod), s.currency,
				fmt.Sprintf("Trial conversion for subscription %s", sub.ID))
			if err != nil {
				log.Printf("❌ Trial conversion charge errored for subscription %s: %v", sub.ID, err)
			}
			if err == nil && conf.Success {
				anchor := asOf
				if sub.TrialEndsAt != nil {
					anchor = *sub.TrialEndsAt
				}
				end := PeriodEnd(anchor, sub.BillingPeriod)
				applied, err := s.store.ApplyTransition(ctx, sub.ID, Expect{Status: billing.SubscriptionStatusTrial}, map[string]interface{}{
					"status":            billing.SubscriptionStatusActive,
					"subscription_end":  end,
					"next_billing_date": end,
					"trial_used":        true,
					"payment_reference": conf.Reference,
				})
				if err != nil {
					log.Printf("❌ Trial activation failed for subscription %s: %v", sub.ID, err)
					stats.Errors++
					continue
				}
				if applied {
					stats.TrialsActivated++
					s.audit(sub, "app.subscription.trial_converted",
						map[string]interface{}{"status": billing.SubscriptionStatusTrial},
						map[string]interface{}{"status": billing.SubscriptionStatusActive, "subscription_end": end})
				}
				continue
			}
		}

		applied, err := s.store.ApplyTransition(ctx, sub.ID, Expect{Status: billing.SubscriptionStatusTrial}, map[string]interface{}{
			"status":              billing.SubscriptionStatusExpired,
			"cancelled_at":        asOf,
			"cancellation_reason": billing.CancellationReasonTrialEnded,
			"auto_renew":          false,
		})
		if err != nil {
			log.Printf("❌ Trial expiry failed for subscription %s: %v", sub.ID, err)
			stats.Errors++
			continue
		}
		if applied {
			stats.TrialsExpired++
			s.audit(sub, "app.subscription.expired",
				map[string]interface{}{"status": billing.SubscriptionStatusTrial},
				map[string]interface{}{"status": billing.SubscriptionStatusExpired, "reason": billing.CancellationReasonTrialEnded})
		}
	}
}

// processRenewals charges ACTIVE auto-renew rows whose billing date has
// arrived and extends them by one period from the previous period end. A
// declined charge expires the row with the payment-failed reason. The
// CAS matches the old next_billing_date as well as the status, since a
// renewal leaves the status unchanged.
func (s *Scheduler) processRenewals(ctx context.Context, asOf time.Time, stats *TickStats) {
	rows, err := s.store.DueRenewals(ctx, asOf, s.batchSize)
	if err != nil {
		log.Printf("❌ Failed to load due renewals: %v", err)
		stats.Errors++
		return
	}

	for i := range rows {
		if ctx.Err() != nil {
			return
		}
		sub := &rows[i]

		conf, err := s.gateway.Charge(ctx, sub.OrganizationID, PeriodAmount(sub.SubscriptionPrice, sub.BillingPeriod), s.currency,
			fmt.Sprintf("Renewal for subscription %s", sub.ID))
		if err != nil {
			log.Printf("❌ Renewal charge errored for subscription %s: %v", sub.ID, err)
		}
		if err == nil && conf.Success {
			end := PeriodEnd(sub.SubscriptionEnd, sub.BillingPeriod)
			applied, err := s.store.ApplyTransition(ctx, sub.ID, Expect{Status: billing.SubscriptionStatusActive, NextBillingDate: sub.NextBillingDate}, map[string]interface{}{
				"subscription_end":  end,
				"next_billing_date": end,
				"payment_reference": conf.Reference,
			})
			if err != nil {
				log.Printf("❌ Renewal update failed for subscription %s: %v", sub.ID, err)
				stats.Errors++
				continue
			}
			if applied {
				stats.Renewed++
				s.audit(sub, "app.subscription.renewed",
					map[string]interface{}{"subscription_end": sub.SubscriptionEnd},
					map[string]interface{}{"subscription_end": end})
			}
			continue
		}

		applied, err := s.store.ApplyTransition(ctx, sub.ID, Expect{Status: billing.SubscriptionStatusActive, NextBillingDate: sub.NextBillingDate}, map[string]interface{}{
			"status":              billing.SubscriptionStatusExpired,
			"cancelled_at":        asOf,
			"cancellation_reason": billing.CancellationReasonPaymentFailed,
			"auto_renew":          false,
		})
		if err != nil {
			log.Printf("❌ Renewal expiry failed for subscription %s: %v", sub.ID, err)
			stats.Errors++
			continue
		}
		if applied {
			stats.Expired++
			s.audit(sub, "app.subscription.expired",
				map[string]interface{}{"status": billing.SubscriptionStatusActive},
				map[string]interface{}{"status": billing.SubscriptionStatusExpired, "reason": billing.CancellationReasonPaymentFailed})
		}
	}
}

// processExpiries closes any remaining TRIAL or ACTIVE row whose period
// ended and that the earlier phases did not renew.
func (s *Scheduler) processExpiries(ctx context.Context, asOf time.Time, stats *TickStats) {
	rows, err := s.store.DueExpiries(ctx, asOf, s.batchSize)
	if err != nil {
		log.Printf("❌ Failed to load due expiries: %v", err)
		stats.Errors++
		return
	}

	for i := range rows {
		if ctx.Err() != nil {
			return
		}
		sub := &rows[i]

		applied, err := s.store.ApplyTransition(ctx, sub.ID, Expect{Status: sub.Status}, map[string]interface{}{
			"status":              billing.SubscriptionStatusExpired,
			"cancelled_at":        asOf,
			"cancellation_reason": expiryReason(sub.Status),
			"auto_renew":          false,
		})
		if err != nil {
			log.Printf("❌ Expiry failed for subscription %s: %v", sub.ID, err)
			stats.Errors++
			continue
		}
		if applied {
			stats.Expired++
			s.audit(sub, "app.subscription.expired",
				map[string]interface{}{"status": sub.Status},
				map[string]interface{}{"status": billing.SubscriptionStatusExpired, "reason": expiryReason(sub.Status)})
		}
	}
}

func expiryReason(status string) string {
	if status == billing.SubscriptionStatusTrial {
		return billing.CancellationReasonTrialEnded
	}
	return "subscription_period_ended"
}

// sendWarnings notifies organizations whose ACTIVE subscription ends
// within the warning window. Delivery is best effort and stateless; a
// failure only increments the error count.
func (s *Scheduler) sendWarnings(ctx context.Context, asOf time.Time, stats *TickStats) {
	if s.notifier == nil || s.warningDays <= 0 {
		return
	}

	rows, err := s.store.ExpiringSoon(ctx, asOf, asOf.AddDate(0, 0, s.warningDays))
	if err != nil {
		log.Printf("❌ Failed to load expiring subscriptions: %v", err)
		stats.Errors++
		return
	}

	for i := range rows {
		if ctx.Err() != nil {
			return
		}
		sub := &rows[i]
		daysLeft := int(sub.SubscriptionEnd.Sub(asOf).Hours() / 24)
		if err := s.notifier.SubscriptionExpiringSoon(ctx, sub, daysLeft); err != nil {
			log.Printf("⚠️ Expiry warning failed for subscription %s: %v", sub.ID, err)
			stats.Errors++
			continue
		}
		stats.WarningsSent++
	}
}

func (s *Scheduler) audit(sub *billing.OrgAppSubscription, action string, oldValues, newValues map[string]interface{}) {
	if s.sink == nil {
		return
	}
	// Actor nil marks the system as the author of scheduler transitions.
	if err := s.sink.Record(&sub.OrganizationID, nil, action, "org_app_subscription", sub.ID.String(), oldValues, newValues); err != nil {
		log.Printf("⚠️ Failed to record scheduler audit %s: %v", action, err)
	}
}
