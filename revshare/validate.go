package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ValidateStakeConservation checks that the entry stakes sum to totalStake.
func ValidateStakeConservation(entries []Entry, totalStake *uint256.Int) error {
	if totalStake == nil || totalStake.IsZero() {
		return ErrZeroTotalStake
	}
	sum := new(uint256.Int)
	for _, e := range entries {
		if e.Stake == nil {
			continue
		}
		if _, overflow := sum.AddOverflow(sum, e.Stake); overflow {
			return fmt.Errorf("%w: stake sum", ErrOverflow)
		}
	}
	if !sum.Eq(totalStake) {
		return fmt.Errorf("%w: entries=%s total=%s", ErrStakeConservationViolation, sum.Dec(), totalStake.Dec())
	}
	return nil
}

// ValidateDistribution checks that payouts never exceed the revenue and, when
// dust was assigned, that they account for it exactly.
func ValidateDistribution(distributions []Distribution, revenue *uint256.Int, policy DustPolicy) error {
	sum := new(uint256.Int)
	for i, d := range distributions {
		if _, overflow := sum.AddOverflow(sum, d.Amount); overflow {
			return fmt.Errorf("%w: distribution %d", ErrOverflow, i)
		}
	}
	if sum.Gt(revenue) {
		return fmt.Errorf("%w: paid=%s revenue=%s", ErrOverpaid, sum.Dec(), revenue.Dec())
	}
	if policy == DustToLast && len(distributions) > 0 && !sum.Eq(revenue) {
		return fmt.Errorf("%w: paid=%s revenue=%s", ErrUnderpaid, sum.Dec(), revenue.Dec())
	}
	return nil
}
