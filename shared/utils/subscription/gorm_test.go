package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database/models/billing"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestApplyTransitionGuardsOnStatus(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "org_app_subscriptions" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := store.ApplyTransition(context.Background(), id,
		Expect{Status: billing.SubscriptionStatusTrial},
		map[string]interface{}{"status": billing.SubscriptionStatusActive})
	require.NoError(t, err)
	require.True(t, applied)

	// A stale expectation matches no row: applied=false, no error.
	mock.ExpectExec(`UPDATE "org_app_subscriptions" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err = store.ApplyTransition(context.Background(), id,
		Expect{Status: billing.SubscriptionStatusTrial},
		map[string]interface{}{"status": billing.SubscriptionStatusExpired})
	require.NoError(t, err)
	require.False(t, applied)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionMatchesNextBillingDate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)
	id := uuid.New()
	nextBilling := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "org_app_subscriptions" SET .+ WHERE \(id = \$\d+ AND status = \$\d+\) AND next_billing_date = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := store.ApplyTransition(context.Background(), id,
		Expect{Status: billing.SubscriptionStatusActive, NextBillingDate: &nextBilling},
		map[string]interface{}{"next_billing_date": nextBilling.AddDate(0, 1, 0)})
	require.NoError(t, err)
	require.True(t, applied)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetMapsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectQuery(`SELECT \* FROM "org_app_subscriptions" WHERE organization_id = \$1 AND app_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
