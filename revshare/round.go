package revshare

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

// Round is one revenue distribution processed in bounded batches.
//
// Investors are addressed by their position in a fixed ordering; Cursor is
// the position of the next investor to pay. TotalStake is a snapshot taken
// when the round opens and stays fixed until it closes.
type Round struct {
	Number     uint64
	Revenue    *uint256.Int
	TotalStake *uint256.Int
	Investors  uint64
	Cursor     uint64
	Paid       *uint256.Int
	LastPayee  address.Address
	HasPayee   bool
	Active     bool
}

// NewRound opens round number over investors positions [0, investors).
func NewRound(number uint64, revenue, totalStake *uint256.Int, investors uint64) (*Round, error) {
	if revenue == nil || revenue.IsZero() {
		return nil, ErrZeroRevenue
	}
	if totalStake == nil || totalStake.IsZero() {
		return nil, ErrZeroTotalStake
	}
	if investors == 0 {
		return nil, ErrNoEntries
	}
	return &Round{
		Number:     number,
		Revenue:    new(uint256.Int).Set(revenue),
		TotalStake: new(uint256.Int).Set(totalStake),
		Investors:  investors,
		Paid:       new(uint256.Int),
		Active:     true,
	}, nil
}

// Done reports whether every investor position has been processed.
func (r *Round) Done() bool {
	return r.Cursor >= r.Investors
}

// Remaining returns the part of the revenue not yet paid out.
func (r *Round) Remaining() *uint256.Int {
	if r.Revenue == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(r.Revenue, r.Paid)
}

// Batch returns the half-open position range [from, to) the next call
// should process, holding at most limit investors.
func (r *Round) Batch(limit uint64) (from, to uint64) {
	from = r.Cursor
	to = r.Investors
	if limit > 0 && to-from > limit {
		to = from + limit
	}
	return from, to
}

// Pay computes the share for the investor at position pos and advances the
// cursor past it. Positions must be visited in order; revisiting a processed
// position yields ErrRoundClosed for a closed round and a zero payout
// otherwise, which keeps repeated calls from paying anyone twice.
func (r *Round) Pay(pos uint64, e Entry) (Distribution, error) {
	if !r.Active {
		return Distribution{}, ErrRoundClosed
	}
	d := Distribution{Address: e.Address, Amount: new(uint256.Int)}
	if pos < r.Cursor {
		return d, nil
	}
	if pos != r.Cursor {
		return Distribution{}, fmt.Errorf("revshare: position %d skips cursor %d", pos, r.Cursor)
	}
	r.Cursor++
	if e.Stake == nil || e.Stake.IsZero() {
		return d, nil
	}

	amount, err := Share(r.Revenue, e.Stake, r.TotalStake)
	if err != nil {
		return Distribution{}, err
	}
	paid := new(uint256.Int).Add(r.Paid, amount)
	if paid.Gt(r.Revenue) {
		return Distribution{}, fmt.Errorf("%w: paid=%s revenue=%s", ErrOverpaid, paid.Dec(), r.Revenue.Dec())
	}
	r.Paid = paid
	r.LastPayee = e.Address
	r.HasPayee = true
	d.Amount = amount
	return d, nil
}

// Settle closes a finished round and resolves the rounding remainder.
// Under DustToLast with a known payee it returns the dust distribution to
// make; otherwise the returned dust is what the payer keeps.
func (r *Round) Settle(policy DustPolicy) (*Distribution, *uint256.Int, error) {
	if !r.Active {
		return nil, nil, ErrRoundClosed
	}
	if !r.Done() {
		return nil, nil, fmt.Errorf("revshare: round %d settled at cursor %d of %d", r.Number, r.Cursor, r.Investors)
	}
	r.Active = false

	dust := r.Remaining()
	if dust.IsZero() {
		return nil, dust, nil
	}
	if policy == DustToLast && r.HasPayee {
		r.Paid = new(uint256.Int).Set(r.Revenue)
		return &Distribution{Address: r.LastPayee, Amount: dust, Dust: true}, new(uint256.Int), nil
	}
	return nil, dust, nil
}
