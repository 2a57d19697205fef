package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestCalculateSubscriptionStandardPeriods(t *testing.T) {
	tests := []struct {
		period   SubscriptionPeriod
		months   int
		discount float64
		original float64
		priced   float64
	}{
		{PeriodThreeMonths, 3, 0, 300, 300},
		{PeriodSixMonths, 6, 4, 600, 576},
		{PeriodOneYear, 12, 7.5, 1200, 1110},
	}

	for _, tt := range tests {
		calc, err := CalculateSubscription(100, tt.period, 0, now)
		require.NoError(t, err)
		require.Equal(t, tt.months, calc.Months)
		require.Equal(t, tt.discount, calc.DiscountPercent)
		require.Equal(t, tt.original, calc.OriginalPrice)
		require.Equal(t, tt.priced, calc.DiscountedPrice)
		require.Equal(t, now.AddDate(0, tt.months, 0), calc.ExpirationDate)
	}
}

func TestCalculateSubscriptionCustomPeriods(t *testing.T) {
	tests := []struct {
		months   int
		discount float64
	}{
		{1, 0},
		{5, 0},
		{6, 4},
		{11, 4},
		{12, 7.5},
		{13, 10},
		{24, 10},
	}

	for _, tt := range tests {
		calc, err := CalculateSubscription(50, PeriodCustom, tt.months, now)
		require.NoError(t, err)
		require.Equal(t, tt.months, calc.Months)
		require.Equal(t, tt.discount, calc.DiscountPercent)
	}

	_, err := CalculateSubscription(50, PeriodCustom, 0, now)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCalculateProratedCredit(t *testing.T) {
	// 15 days left of a 30-day month at 50/month.
	expiry := now.Add(15 * 24 * time.Hour)
	credit := CalculateProratedCredit(50, &expiry, now)
	require.NotNil(t, credit)
	require.Equal(t, 15, credit.RemainingDays)
	require.Equal(t, 0.5, credit.RemainingMonths)
	require.Equal(t, 25.0, credit.CreditAmount)
	require.Equal(t, 50.0, credit.CreditPercentage)
}

func TestCalculateProratedCreditExpiredOrAbsent(t *testing.T) {
	require.Nil(t, CalculateProratedCredit(50, nil, now))

	past := now.Add(-time.Hour)
	require.Nil(t, CalculateProratedCredit(50, &past, now))

	require.Nil(t, CalculateProratedCredit(50, &now, now)) // exactly now: nothing left to credit
}

func TestCalculateUpgradePrice(t *testing.T) {
	// Current package 50/month with 15 days remaining, upgrading to
	// 100/month for three months (no discount).
	expiry := now.Add(15 * 24 * time.Hour)
	calc, err := CalculateUpgradePrice(50, 100, &expiry, PeriodThreeMonths, 0, now)
	require.NoError(t, err)
	require.Equal(t, 300.0, calc.NewPackagePrice)
	require.Equal(t, 25.0, calc.CreditAmount)
	require.Equal(t, 275.0, calc.FinalPrice)
	require.NotNil(t, calc.ProratedCredit)
}

func TestCalculateUpgradePriceClampsAtZero(t *testing.T) {
	// A huge remaining credit cannot push the final price negative, but
	// the credit itself is reported uncapped.
	expiry := now.AddDate(2, 0, 0)
	calc, err := CalculateUpgradePrice(500, 10, &expiry, PeriodThreeMonths, 0, now)
	require.NoError(t, err)
	require.Equal(t, 0.0, calc.FinalPrice)
	require.Greater(t, calc.CreditAmount, calc.NewPackagePrice)
}

func TestCalculateUpgradePriceNoCurrentTerm(t *testing.T) {
	calc, err := CalculateUpgradePrice(50, 100, nil, PeriodSixMonths, 0, now)
	require.NoError(t, err)
	require.Equal(t, 576.0, calc.NewPackagePrice)
	require.Equal(t, 0.0, calc.CreditAmount)
	require.Equal(t, 576.0, calc.FinalPrice)
	require.Nil(t, calc.ProratedCredit)
}
