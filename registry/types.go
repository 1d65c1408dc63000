// Package registry implements the ticker registry: named, tradable
// identity records with owner-controlled metadata and a marketplace
// (for-sale) state.
//
// Registrations are keyed by ticker symbol; the ledger's create-only
// allocation guarantees at most one registration per symbol. All
// mutating operations require a signature by the authorizing identity
// over the operation's canonical digest.
package registry

import "github.com/tickerorg/libticker-go/identity"

const (
	// MaxTickerLen is the maximum ticker symbol length.
	MaxTickerLen = 20

	// MaxTargetURLLen is the maximum target URL length.
	MaxTargetURLLen = 200

	// MaxDescriptionLen is the maximum description length.
	MaxDescriptionLen = 500

	// MaxContractAddressLen is the maximum contract address length.
	MaxContractAddressLen = 100

	// RegistrationFee is the fixed fee for registering a ticker,
	// in smallest native units (0.1 of the major unit).
	RegistrationFee uint64 = 100_000_000
)

// TickerRegistration is the durable record for one ticker symbol.
type TickerRegistration struct {
	Owner           identity.ID
	Ticker          string // immutable after registration
	TargetURL       string
	Description     string
	ContractAddress string // empty = unset; settable but never clearable
	IsForSale       bool
	Price           uint64 // smallest native units
	CreatedAt       int64  // unix seconds, immutable
}
