// Package revshare implements pro-rata revenue distribution over investor
// stakes. It is pure arithmetic: callers own persistence and value movement.
package revshare

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

// Entry is one investor's stake in the distribution set.
type Entry struct {
	Address address.Address
	Stake   *uint256.Int
}

// Distribution is a single payout.
type Distribution struct {
	Address address.Address
	Amount  *uint256.Int
	Dust    bool // remainder assigned by DustToLast, not a pro-rata share
}

// DustPolicy decides where the rounding remainder of a round goes.
type DustPolicy int

const (
	// DustToLast adds the remainder to the last investor paid in the round.
	DustToLast DustPolicy = iota

	// DustRetain leaves the remainder with the payer as a residual balance.
	DustRetain
)

// String returns the config name of the policy.
func (p DustPolicy) String() string {
	switch p {
	case DustToLast:
		return "last"
	case DustRetain:
		return "retain"
	default:
		return fmt.Sprintf("DustPolicy(%d)", int(p))
	}
}

// ParseDustPolicy maps a config name to a DustPolicy.
func ParseDustPolicy(s string) (DustPolicy, error) {
	switch s {
	case "last", "":
		return DustToLast, nil
	case "retain":
		return DustRetain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDustPolicy, s)
	}
}
