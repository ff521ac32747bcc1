package revshare

import "errors"

var (
	// ErrZeroRevenue indicates a distribution of nothing.
	ErrZeroRevenue = errors.New("revshare: zero revenue")

	// ErrNoEntries indicates the distribution set is empty.
	ErrNoEntries = errors.New("revshare: no investor entries")

	// ErrZeroTotalStake indicates the total stake is zero.
	ErrZeroTotalStake = errors.New("revshare: zero total stake")

	// ErrStakeExceedsTotal indicates an investor stake above the total stake.
	ErrStakeExceedsTotal = errors.New("revshare: stake exceeds total stake")

	// ErrStakeConservationViolation indicates entries do not sum to the total stake.
	ErrStakeConservationViolation = errors.New("revshare: stake conservation violated")

	// ErrOverflow indicates an amount exceeded 256 bits.
	ErrOverflow = errors.New("revshare: amount overflow")

	// ErrOverpaid indicates payouts exceed the round revenue.
	ErrOverpaid = errors.New("revshare: payouts exceed revenue")

	// ErrUnderpaid indicates payouts do not account for the full revenue.
	ErrUnderpaid = errors.New("revshare: payouts do not cover revenue")

	// ErrRoundClosed indicates an operation on a completed round.
	ErrRoundClosed = errors.New("revshare: round is closed")

	// ErrUnknownDustPolicy indicates an unrecognized dust policy name.
	ErrUnknownDustPolicy = errors.New("revshare: unknown dust policy")
)

var (
	// ErrInvalidStakeData indicates malformed stake record bytes.
	ErrInvalidStakeData = errors.New("revshare: invalid stake data")

	// ErrInvalidRoundData indicates malformed round record bytes.
	ErrInvalidRoundData = errors.New("revshare: invalid round data")
)
