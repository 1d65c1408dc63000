package payments

import "fmt"

// ValidateShares checks the structural constraints on revenue shares:
// at most MaxRevenueShares entries, no zero percentages, and
// percentages summing to at most PercentageTotal. Percentages summing
// below the total are fine; the remainder is the owner's retained cut.
func ValidateShares(shares []RevenueShare) error {
	if len(shares) > MaxRevenueShares {
		return fmt.Errorf("%w: %d entries", ErrTooManyShares, len(shares))
	}

	var total uint64
	for i, share := range shares {
		if share.Percentage == 0 {
			return fmt.Errorf("%w: entry %d", ErrZeroSharePercentage, i)
		}
		total += uint64(share.Percentage)
	}
	if total > PercentageTotal {
		return fmt.Errorf("%w: sum %d", ErrSharesExceedTotal, total)
	}
	return nil
}
