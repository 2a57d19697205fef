package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/utils/payment"
)

type stubSweeper struct {
	swept int64
	err   error
}

func (s *stubSweeper) SweepExpired(context.Context, time.Time) (int64, error) {
	return s.swept, s.err
}

type recordingNotifier struct {
	warned []int
	err    error
}

func (n *recordingNotifier) SubscriptionExpiringSoon(_ context.Context, _ *billing.OrgAppSubscription, daysLeft int) error {
	if n.err != nil {
		return n.err
	}
	n.warned = append(n.warned, daysLeft)
	return nil
}

func newScheduler(f *ledgerFixture, sweeper Sweeper, notifier Notifier, warningDays int) *Scheduler {
	return NewScheduler(f.store, f.gateway, f.sink, sweeper, notifier, "USD", 100, warningDays)
}

// Walks a subscription through its whole life: trial, no-op tick before
// the trial ends, conversion to ACTIVE on a successful charge, then
// expiry with the payment-failed reason once the renewal charge is
// declined.
func TestTickLifecycleEndToEnd(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, nil, nil, 0)
	ctx := context.Background()

	sub, err := f.ledger.Subscribe(ctx, SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
		AutoRenew:      true,
	})
	require.NoError(t, err)
	trialEnds := *sub.TrialEndsAt

	// One day in: nothing is due yet.
	stats := s.Tick(ctx, f.clock.Now().AddDate(0, 0, 1))
	require.Equal(t, TickStats{}, stats)
	require.Equal(t, 0, f.gateway.Calls)

	// Trial boundary: the charge succeeds, the row becomes ACTIVE with
	// its paid period anchored at the trial end.
	stats = s.Tick(ctx, trialEnds)
	require.Equal(t, 1, stats.TrialsActivated)
	require.Equal(t, 1, f.gateway.Calls)

	active, err := f.store.Get(ctx, f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusActive, active.Status)
	require.True(t, active.TrialUsed)
	require.Equal(t, trialEnds.AddDate(0, 1, 0), active.SubscriptionEnd)
	require.NotNil(t, active.NextBillingDate)
	require.Contains(t, f.sink.Actions(), "app.subscription.trial_converted")

	// Re-ticking the same instant is a no-op: the CAS found no TRIAL row.
	stats = s.Tick(ctx, trialEnds)
	require.Equal(t, TickStats{}, stats)

	// Renewal declined: the subscription expires with the payment reason.
	f.gateway.Result = payment.Confirmation{Success: false, Reason: "card_declined"}
	stats = s.Tick(ctx, *active.NextBillingDate)
	require.Equal(t, 1, stats.Expired)

	expired, err := f.store.Get(ctx, f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusExpired, expired.Status)
	require.NotNil(t, expired.CancellationReason)
	require.Equal(t, billing.CancellationReasonPaymentFailed, *expired.CancellationReason)
	require.False(t, expired.AutoRenew)
	require.NotNil(t, expired.CancelledAt)
}

func TestTickTrialWithoutAutoRenewExpires(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, nil, nil, 0)
	ctx := context.Background()

	sub, err := f.ledger.Subscribe(ctx, SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
		AutoRenew:      false,
	})
	require.NoError(t, err)

	stats := s.Tick(ctx, *sub.TrialEndsAt)
	require.Equal(t, 1, stats.TrialsExpired)
	require.Equal(t, 0, f.gateway.Calls) // never charged without consent

	expired, err := f.store.Get(ctx, f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusExpired, expired.Status)
	require.Equal(t, billing.CancellationReasonTrialEnded, *expired.CancellationReason)
}

func TestTickRenewalExtendsFromPreviousEnd(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, nil, nil, 0)
	ctx := context.Background()

	sub, err := f.ledger.Subscribe(ctx, SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		AutoRenew:      true,
	})
	require.NoError(t, err)
	firstEnd := sub.SubscriptionEnd

	stats := s.Tick(ctx, firstEnd)
	require.Equal(t, 1, stats.Renewed)
	require.Equal(t, 0, stats.Expired)

	renewed, err := f.store.Get(ctx, f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusActive, renewed.Status)
	require.Equal(t, firstEnd.AddDate(0, 1, 0), renewed.SubscriptionEnd)
	require.Equal(t, firstEnd.AddDate(0, 1, 0), *renewed.NextBillingDate)
	require.Contains(t, f.sink.Actions(), "app.subscription.renewed")

	// The next billing date moved forward, so the same tick is a no-op.
	stats = s.Tick(ctx, firstEnd)
	require.Equal(t, TickStats{}, stats)
}

func TestTickExpiresNonRenewingActive(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, nil, nil, 0)
	ctx := context.Background()

	sub, err := f.ledger.Subscribe(ctx, SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		AutoRenew:      false,
	})
	require.NoError(t, err)

	stats := s.Tick(ctx, sub.SubscriptionEnd)
	require.Equal(t, 1, stats.Expired)
	require.Equal(t, 1, f.gateway.Calls) // only the initial purchase

	expired, err := f.store.Get(ctx, f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusExpired, expired.Status)
	require.Equal(t, "subscription_period_ended", *expired.CancellationReason)
}

func TestTickSendsExpiryWarnings(t *testing.T) {
	f := newLedgerFixture(t)
	notifier := &recordingNotifier{}
	s := newScheduler(f, nil, notifier, 7)
	ctx := context.Background()

	sub, err := f.ledger.Subscribe(ctx, SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		AutoRenew:      true,
	})
	require.NoError(t, err)

	// Three days before the period end: inside the 7-day window.
	stats := s.Tick(ctx, sub.SubscriptionEnd.AddDate(0, 0, -3))
	require.Equal(t, 1, stats.WarningsSent)
	require.Equal(t, []int{3}, notifier.warned)

	// Well before the window: silent.
	notifier.warned = nil
	stats = s.Tick(ctx, sub.SubscriptionEnd.AddDate(0, 0, -20))
	require.Equal(t, 0, stats.WarningsSent)
	require.Empty(t, notifier.warned)
}

func TestTickRunsGrantSweep(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, &stubSweeper{swept: 3}, nil, 0)

	stats := s.Tick(context.Background(), f.clock.Now())
	require.Equal(t, int64(3), stats.GrantsSwept)

	s = newScheduler(f, &stubSweeper{err: errors.New("db down")}, nil, 0)
	stats = s.Tick(context.Background(), f.clock.Now())
	require.Equal(t, 1, stats.Errors)
}

func TestTickStopsBetweenRowsOnCancel(t *testing.T) {
	f := newLedgerFixture(t)
	s := newScheduler(f, &stubSweeper{swept: 9}, nil, 0)

	sub, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
		AutoRenew:      false,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := s.Tick(ctx, *sub.TrialEndsAt)
	require.Equal(t, TickStats{}, stats)

	still, err := f.store.Get(context.Background(), f.orgID, f.appID)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusTrial, still.Status)
}
