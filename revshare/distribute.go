package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Share returns floor(revenue * stake / total). The intermediate product is
// computed at 512 bits, so it cannot overflow.
func Share(revenue, stake, total *uint256.Int) (*uint256.Int, error) {
	if total == nil || total.IsZero() {
		return nil, ErrZeroTotalStake
	}
	if stake.Gt(total) {
		return nil, fmt.Errorf("%w: stake %s > total %s", ErrStakeExceedsTotal, stake.Dec(), total.Dec())
	}
	z, overflow := new(uint256.Int).MulDivOverflow(revenue, stake, total)
	if overflow {
		return nil, fmt.Errorf("%w: share of %s", ErrOverflow, revenue.Dec())
	}
	return z, nil
}

// DistributeRevenue calculates per-investor payouts for a whole entry set in
// one pass. Entries with zero stake receive nothing. Under DustToLast the last
// entry with a non-zero stake also receives the remainder; under DustRetain
// the remainder is returned as dust.
func DistributeRevenue(revenue *uint256.Int, entries []Entry, totalStake *uint256.Int, policy DustPolicy) ([]Distribution, *uint256.Int, error) {
	if revenue == nil || revenue.IsZero() {
		return nil, nil, ErrZeroRevenue
	}
	if len(entries) == 0 {
		return nil, nil, ErrNoEntries
	}
	if err := ValidateStakeConservation(entries, totalStake); err != nil {
		return nil, nil, err
	}

	distributions := make([]Distribution, 0, len(entries))
	distributed := new(uint256.Int)
	last := -1
	for _, e := range entries {
		if e.Stake == nil || e.Stake.IsZero() {
			continue
		}
		amount, err := Share(revenue, e.Stake, totalStake)
		if err != nil {
			return nil, nil, err
		}
		distributions = append(distributions, Distribution{Address: e.Address, Amount: amount})
		distributed.Add(distributed, amount)
		last = len(distributions) - 1
	}

	dust := new(uint256.Int).Sub(revenue, distributed)
	if policy == DustToLast && last >= 0 && !dust.IsZero() {
		distributions = append(distributions, Distribution{
			Address: distributions[last].Address,
			Amount:  dust,
			Dust:    true,
		})
		dust = new(uint256.Int)
	}
	return distributions, dust, nil
}
