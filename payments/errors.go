package payments

import "errors"

var (
	// ErrTickerTooLong indicates the ticker symbol exceeds MaxTickerLen.
	ErrTickerTooLong = errors.New("payments: ticker symbol too long")

	// ErrNotAuthorized indicates the signer does not own the record.
	ErrNotAuthorized = errors.New("payments: not authorized")

	// ErrSubscriptionsNotEnabled indicates the configuration has subscriptions disabled.
	ErrSubscriptionsNotEnabled = errors.New("payments: subscriptions not enabled")

	// ErrSubscriptionNotActive indicates a renew attempt on an inactive subscription.
	ErrSubscriptionNotActive = errors.New("payments: subscription not active")

	// ErrTooManyShares indicates more than MaxRevenueShares entries.
	ErrTooManyShares = errors.New("payments: too many revenue shares")

	// ErrZeroSharePercentage indicates a revenue share with percentage zero.
	ErrZeroSharePercentage = errors.New("payments: zero share percentage")

	// ErrSharesExceedTotal indicates revenue share percentages sum past PercentageTotal.
	ErrSharesExceedTotal = errors.New("payments: share percentages exceed 100")

	// ErrInsufficientPayment indicates a payment too small to distribute.
	ErrInsufficientPayment = errors.New("payments: insufficient payment for distribution")

	// ErrInvalidRecordData indicates stored record data is malformed.
	ErrInvalidRecordData = errors.New("payments: invalid record data")
)
