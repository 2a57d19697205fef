package subscription

import "errors"

var (
	// ErrNotFound means no subscription row exists for the
	// (organization, app) pair.
	ErrNotFound = errors.New("app subscription not found")

	// ErrAppNotFound means the app id does not exist.
	ErrAppNotFound = errors.New("app not found")

	// ErrAppNotAvailable means the app is not active in the marketplace.
	ErrAppNotAvailable = errors.New("app is not available for purchase")

	// ErrAlreadySubscribed means a TRIAL or ACTIVE subscription already
	// exists for the pair.
	ErrAlreadySubscribed = errors.New("organization is already subscribed to this app")

	// ErrTrialAlreadyUsed means the organization consumed its trial for
	// this app; trial cannot be reclaimed.
	ErrTrialAlreadyUsed = errors.New("trial period has already been used for this app")

	// ErrNotCancellable means the subscription is already in a terminal
	// state.
	ErrNotCancellable = errors.New("subscription is already cancelled or expired")

	// ErrPaymentRequired means subscription creation needs a successful
	// payment confirmation and none was obtained.
	ErrPaymentRequired = errors.New("payment confirmation required")

	// ErrInvalidPeriod means the billing period is not MONTHLY or YEARLY.
	ErrInvalidPeriod = errors.New("invalid billing period")
)
