package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/database/models/billing"
	"tenanthub-backend/shared/utils/audit"
	"tenanthub-backend/shared/utils/payment"
)

type ledgerFixture struct {
	ledger  *Ledger
	store   *MemoryStore
	apps    *MemoryAppStore
	gateway *payment.StaticGateway
	sink    *audit.MemorySink
	clock   *clock.Mock
	orgID   uuid.UUID
	appID   uuid.UUID
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		store:   NewMemoryStore(),
		apps:    NewMemoryAppStore(),
		gateway: &payment.StaticGateway{Result: payment.Confirmation{Success: true, Reference: "pay_test"}},
		sink:    audit.NewMemorySink(),
		clock:   clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		orgID:   uuid.New(),
	}

	app := &billing.App{
		Name:      "CRM Suite",
		Slug:      "crm-suite",
		Status:    billing.AppStatusActive,
		Price:     29.99,
		TrialDays: 14,
	}
	f.apps.AddApp(app)
	f.appID = app.ID

	f.ledger = NewLedger(f.store, f.apps, f.gateway, f.sink, f.clock, "USD")
	return f
}

func TestSubscribePaidChargesFirst(t *testing.T) {
	f := newLedgerFixture(t)

	sub, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		BillingPeriod:  billing.BillingPeriodMonthly,
		AutoRenew:      true,
	})
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusActive, sub.Status)
	require.Equal(t, 1, f.gateway.Calls)
	require.Equal(t, 29.99, sub.SubscriptionPrice)
	require.False(t, sub.TrialUsed)
	require.NotNil(t, sub.PaymentReference)

	wantEnd := f.clock.Now().AddDate(0, 1, 0)
	require.Equal(t, wantEnd, sub.SubscriptionEnd)
	require.NotNil(t, sub.NextBillingDate)
	require.Equal(t, wantEnd, *sub.NextBillingDate)

	require.Equal(t, 1, f.apps.SubscriptionCount(f.appID))
	require.Contains(t, f.sink.Actions(), "app.subscribed")

	subscribed, err := f.ledger.IsSubscribed(context.Background(), f.orgID, f.appID)
	require.NoError(t, err)
	require.True(t, subscribed)
}

func TestSubscribeDeclinedPaymentCreatesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	f.gateway.Result = payment.Confirmation{Success: false, Reason: "card_declined"}

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
	})
	require.ErrorIs(t, err, ErrPaymentRequired)

	_, err = f.store.Get(context.Background(), f.orgID, f.appID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, f.apps.SubscriptionCount(f.appID))
	require.Empty(t, f.sink.Actions())
}

func TestSubscribeTrialSkipsCharge(t *testing.T) {
	f := newLedgerFixture(t)

	sub, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
		AutoRenew:      true,
	})
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusTrial, sub.Status)
	require.Equal(t, 0, f.gateway.Calls)
	require.True(t, sub.TrialUsed)
	require.Nil(t, sub.NextBillingDate)

	wantTrialEnd := f.clock.Now().AddDate(0, 0, 14)
	require.NotNil(t, sub.TrialEndsAt)
	require.Equal(t, wantTrialEnd, *sub.TrialEndsAt)
	require.Equal(t, wantTrialEnd, sub.SubscriptionEnd)

	require.Equal(t, 14, TrialDaysRemaining(sub, f.clock.Now()))
}

func TestSubscribeRejectsDuplicates(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: f.appID})
	require.NoError(t, err)

	_, err = f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: f.appID})
	require.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribeRejectsUnavailableApp(t *testing.T) {
	f := newLedgerFixture(t)

	draft := &billing.App{Name: "Beta App", Slug: "beta-app", Status: billing.AppStatusDraft, Price: 10}
	f.apps.AddApp(draft)

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: draft.ID})
	require.ErrorIs(t, err, ErrAppNotAvailable)

	_, err = f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: uuid.New()})
	require.ErrorIs(t, err, ErrAppNotFound)
}

func TestSubscribeRejectsInvalidBillingPeriod(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		BillingPeriod:  "WEEKLY",
	})
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCancelIsImmediate(t *testing.T) {
	f := newLedgerFixture(t)
	actor := uuid.New()

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: f.appID})
	require.NoError(t, err)

	sub, err := f.ledger.Cancel(context.Background(), f.orgID, f.appID, "too expensive", &actor)
	require.NoError(t, err)
	require.Equal(t, billing.SubscriptionStatusCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
	require.False(t, sub.AutoRenew)
	require.Equal(t, 0, f.apps.SubscriptionCount(f.appID))
	require.Contains(t, f.sink.Actions(), "app.subscription.cancelled")

	// Access is revoked at once, not at period end.
	subscribed, err := f.ledger.IsSubscribed(context.Background(), f.orgID, f.appID)
	require.NoError(t, err)
	require.False(t, subscribed)

	_, err = f.ledger.Cancel(context.Background(), f.orgID, f.appID, "", &actor)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestResubscribeReusesSlotAndKeepsTrialSticky(t *testing.T) {
	f := newLedgerFixture(t)

	first, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
	})
	require.NoError(t, err)

	_, err = f.ledger.Cancel(context.Background(), f.orgID, f.appID, "", nil)
	require.NoError(t, err)

	// The trial was consumed; a second trial is refused.
	_, err = f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		StartTrial:     true,
	})
	require.ErrorIs(t, err, ErrTrialAlreadyUsed)

	// A paid resubscribe reuses the same row and keeps trial_used set.
	second, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		AutoRenew:      true,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, billing.SubscriptionStatusActive, second.Status)
	require.True(t, second.TrialUsed)
	require.Nil(t, second.CancelledAt)
}

func TestSetAutoRenew(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{OrganizationID: f.orgID, AppID: f.appID, AutoRenew: true})
	require.NoError(t, err)

	sub, err := f.ledger.SetAutoRenew(context.Background(), f.orgID, f.appID, false, nil)
	require.NoError(t, err)
	require.False(t, sub.AutoRenew)
	require.Contains(t, f.sink.Actions(), "app.subscription.updated")

	stored, err := f.store.Get(context.Background(), f.orgID, f.appID)
	require.NoError(t, err)
	require.False(t, stored.AutoRenew)

	_, err = f.ledger.Cancel(context.Background(), f.orgID, f.appID, "", nil)
	require.NoError(t, err)
	_, err = f.ledger.SetAutoRenew(context.Background(), f.orgID, f.appID, true, nil)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestYearlyPeriodChargesTwelveMonths(t *testing.T) {
	f := newLedgerFixture(t)

	sub, err := f.ledger.Subscribe(context.Background(), SubscribeRequest{
		OrganizationID: f.orgID,
		AppID:          f.appID,
		BillingPeriod:  billing.BillingPeriodYearly,
	})
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().AddDate(1, 0, 0), sub.SubscriptionEnd)
	require.InDelta(t, 359.88, PeriodAmount(sub.SubscriptionPrice, sub.BillingPeriod), 0.001)
}
