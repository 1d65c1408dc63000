package payments

import (
	"fmt"

	"github.com/tickerorg/libticker-go/identity"
)

// Payout is a single computed revenue-share payout.
type Payout struct {
	Recipient identity.ID
	Amount    uint64
}

// DistributeRevenue computes per-recipient payouts for a payment
// amount against a configuration's revenue shares, and the amount the
// owner retains. When the shares sum to the full PercentageTotal, the
// last entry absorbs the integer-division remainder so the payouts sum
// exactly to the payment. The engine's transfer paths never call this;
// it exists for consumers that want to realize the stored shares.
func DistributeRevenue(amount uint64, shares []RevenueShare) ([]Payout, uint64, error) {
	if amount == 0 {
		return nil, 0, ErrInsufficientPayment
	}
	if err := ValidateShares(shares); err != nil {
		return nil, 0, err
	}
	if len(shares) == 0 {
		return nil, amount, nil
	}

	var totalPct uint64
	for _, share := range shares {
		totalPct += uint64(share.Percentage)
	}

	payouts := make([]Payout, len(shares))
	var distributed uint64
	for i, share := range shares {
		payouts[i].Recipient = share.Recipient
		if totalPct == PercentageTotal && i == len(shares)-1 {
			// Last entry takes the remainder.
			payouts[i].Amount = amount - distributed
		} else {
			payouts[i].Amount = amount * uint64(share.Percentage) / PercentageTotal
		}
		distributed += payouts[i].Amount
	}

	if distributed > amount {
		return nil, 0, fmt.Errorf("payments: distributed %d exceeds payment %d", distributed, amount)
	}
	return payouts, amount - distributed, nil
}
