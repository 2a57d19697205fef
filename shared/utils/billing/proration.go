package billing

import (
	"errors"
	"math"
	"time"
)

// SubscriptionPeriod selects a package subscription length.
type SubscriptionPeriod string

const (
	PeriodThreeMonths SubscriptionPeriod = "THREE_MONTHS"
	PeriodSixMonths   SubscriptionPeriod = "SIX_MONTHS"
	PeriodOneYear     SubscriptionPeriod = "ONE_YEAR"
	PeriodCustom      SubscriptionPeriod = "CUSTOM"
)

// ErrInvalidPeriod means a CUSTOM period was requested without a month
// count of at least 1.
var ErrInvalidPeriod = errors.New("custom months must be at least 1")

// SubscriptionCalculation is the priced result of a period selection.
type SubscriptionCalculation struct {
	Months          int       `json:"months"`
	DiscountPercent float64   `json:"discount_percent"`
	OriginalPrice   float64   `json:"original_price"`
	DiscountedPrice float64   `json:"discounted_price"`
	ExpirationDate  time.Time `json:"expiration_date"`
}

// ProratedCredit is the unexpired value of a still-running subscription.
type ProratedCredit struct {
	RemainingDays        int     `json:"remaining_days"`
	RemainingMonths      float64 `json:"remaining_months"`
	OriginalPackagePrice float64 `json:"original_package_price"`
	CreditAmount         float64 `json:"credit_amount"`
	CreditPercentage     float64 `json:"credit_percentage"`
}

// UpgradePriceCalculation combines a new subscription price with the
// credit carried over from the current one.
type UpgradePriceCalculation struct {
	NewPackagePrice float64         `json:"new_package_price"`
	CreditAmount    float64         `json:"credit_amount"`
	FinalPrice      float64         `json:"final_price"`
	ProratedCredit  *ProratedCredit `json:"prorated_credit"`
}

// CalculateSubscription prices a subscription of the given period at
// basePrice per month. Discounts: 3 months none, 6 months 4%, one year
// 7.5%; custom periods get 0/4/7.5/10% for <6, 6-11, exactly 12 and >12
// months. The expiration date uses calendar-month arithmetic from now,
// which is passed in by the caller to keep this package free of clocks.
func CalculateSubscription(basePrice float64, period SubscriptionPeriod, customMonths int, now time.Time) (SubscriptionCalculation, error) {
	var months int
	var discountPercent float64

	switch period {
	case PeriodThreeMonths:
		months = 3
		discountPercent = 0
	case PeriodSixMonths:
		months = 6
		discountPercent = 4
	case PeriodOneYear:
		months = 12
		discountPercent = 7.5
	case PeriodCustom:
		if customMonths < 1 {
			return SubscriptionCalculation{}, ErrInvalidPeriod
		}
		months = customMonths
		switch {
		case months > 12:
			discountPercent = 10
		case months == 12:
			discountPercent = 7.5
		case months >= 6:
			discountPercent = 4
		default:
			discountPercent = 0
		}
	default:
		months = 3
		discountPercent = 0
	}

	originalPrice := basePrice * float64(months)
	discountedPrice := originalPrice - originalPrice*discountPercent/100

	return SubscriptionCalculation{
		Months:          months,
		DiscountPercent: discountPercent,
		OriginalPrice:   round2(originalPrice),
		DiscountedPrice: round2(discountedPrice),
		ExpirationDate:  now.AddDate(0, months, 0),
	}, nil
}

// CalculateProratedCredit values the remaining term of the current
// package. Returns nil when there is no expiration or it has already
// passed. Remaining months are remaining days / 30; proration does not
// use exact calendar months.
func CalculateProratedCredit(currentPackagePrice float64, expirationDate *time.Time, now time.Time) *ProratedCredit {
	if expirationDate == nil || !expirationDate.After(now) {
		return nil
	}

	remainingDays := int(math.Ceil(expirationDate.Sub(now).Hours() / 24))
	remainingMonths := float64(remainingDays) / 30

	return &ProratedCredit{
		RemainingDays:        remainingDays,
		RemainingMonths:      round2(remainingMonths),
		OriginalPackagePrice: currentPackagePrice,
		CreditAmount:         round2(remainingMonths * currentPackagePrice),
		CreditPercentage:     round2(float64(remainingDays) / 30 * 100),
	}
}

// CalculateUpgradePrice prices a package change: the new subscription's
// discounted price minus the prorated credit from the current package.
// The final price is clamped at zero; the credit itself is reported
// uncapped for transparency.
func CalculateUpgradePrice(currentPackagePrice, newPackagePrice float64, currentExpiration *time.Time, newPeriod SubscriptionPeriod, newCustomMonths int, now time.Time) (UpgradePriceCalculation, error) {
	newSubscription, err := CalculateSubscription(newPackagePrice, newPeriod, newCustomMonths, now)
	if err != nil {
		return UpgradePriceCalculation{}, err
	}

	credit := CalculateProratedCredit(currentPackagePrice, currentExpiration, now)
	creditAmount := 0.0
	if credit != nil {
		creditAmount = credit.CreditAmount
	}

	return UpgradePriceCalculation{
		NewPackagePrice: newSubscription.DiscountedPrice,
		CreditAmount:    creditAmount,
		FinalPrice:      round2(math.Max(0, newSubscription.DiscountedPrice-creditAmount)),
		ProratedCredit:  credit,
	}, nil
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
