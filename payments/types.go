// Package payments implements the monetization layer for ticker
// symbols: per-ticker payment configuration, one-off payments with
// durable receipts, and the subscription lifecycle.
//
// Configurations are keyed by ticker symbol in a namespace independent
// of the registry's; the two subsystems share only the natural key and
// do not validate each other's state. Revenue shares and the base fee
// are stored configuration that no transfer path consults; the
// DistributeRevenue calculator realizes the payouts the shares imply
// for consumers that want them.
package payments

import (
	"github.com/tickerorg/libticker-go/identity"
	"github.com/tickerorg/libticker-go/ledger"
)

const (
	// MaxTickerLen is the maximum ticker symbol length.
	MaxTickerLen = 20

	// MaxRevenueShares is the maximum number of revenue share entries
	// per configuration.
	MaxRevenueShares = 10

	// PercentageTotal is the percentage base revenue shares are
	// expressed against.
	PercentageTotal = 100
)

// RevenueShare is a stored (recipient, percentage) pair. Shares are
// validated structurally but never consulted during value transfer.
type RevenueShare struct {
	Recipient  identity.ID
	Percentage uint8
}

// PaymentConfiguration is the durable monetization record for one
// ticker symbol.
type PaymentConfiguration struct {
	Ticker string
	Owner  identity.ID

	// BaseFee is advisory only; no operation enforces any relation
	// between it and actual payment amounts.
	BaseFee uint64

	RevenueShares []RevenueShare

	SubscriptionEnabled bool
	SubscriptionPrice   uint64
	SubscriptionPeriod  uint64 // seconds

	TotalPayments uint64 // monotonic counter
	TotalRevenue  uint64 // monotonic accumulator
	CreatedAt     int64  // unix seconds
}

// Subscription is the durable record for one subscriber slot on a
// configuration. The slot is allocated once and never freed: after
// Unsubscribe the record stays, permanently occupying the slot.
type Subscription struct {
	PaymentConfig ledger.Key // back-reference to the configuration record
	Subscriber    identity.ID
	IsActive      bool
	CreatedAt     int64
	ExpiresAt     int64
}

// IsExpired reports whether the subscription's paid period has passed.
// Expiry is advisory: no operation checks it, and IsActive never flips
// on its own. Enforcement belongs to whoever reads ExpiresAt.
func (s *Subscription) IsExpired(now int64) bool {
	return now > s.ExpiresAt
}

// PaymentRecord is an immutable receipt written for every payment,
// subscription, and renewal. Receipts are append-only and never read
// back by the engine.
type PaymentRecord struct {
	Ticker    string
	Payer     identity.ID
	Amount    uint64
	Timestamp int64
}
