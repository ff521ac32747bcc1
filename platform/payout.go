package platform

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/revshare"
)

// PayoutProgress reports the state of a payout round after a call.
type PayoutProgress struct {
	Round     uint64
	Processed uint64       // investors visited by this call
	Paid      *uint256.Int // paid by this call, dust included
	Cursor    uint64
	Investors uint64
	Complete  bool
}

// PayoutRound is the public view of a project's latest payout round.
type PayoutRound struct {
	Number     uint64
	Revenue    *uint256.Int
	TotalStake *uint256.Int
	Investors  uint64
	Cursor     uint64
	Paid       *uint256.Int
	Active     bool
}

// StartRevenuePayout deposits revenue into a Funded project and opens the
// next payout round over the current stakes. Only the issuer may start a
// round, and only when the previous one has completed.
func (p *Platform) StartRevenuePayout(caller, project address.Address, revenue *uint256.Int) (uint64, error) {
	var number uint64
	err := p.update("start-revenue-payout", func(t *txn) error {
		if err := requireCap(caller, t.issuerCap()); err != nil {
			return err
		}
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if rec.State != StateFunded {
			return fmt.Errorf("%w: %s is %s", ErrProjectNotFunded, project, rec.State)
		}
		active, err := t.activeRound(project)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: %s", ErrPayoutInProgress, project)
		}
		if err := requirePositive(revenue); err != nil {
			return err
		}

		number = rec.Rounds + 1
		round, err := revshare.NewRound(number, revenue, rec.TotalInvested.Int(), rec.Investors)
		if err != nil {
			return fmt.Errorf("platform: open round %d: %w", number, err)
		}
		if err := t.mint(project, revenue); err != nil {
			return err
		}
		if err := t.putRound(project, round); err != nil {
			return err
		}
		rec.Rounds = number
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventRevenuePayoutStarted, Subject: project, Wallet: caller, Amount: revenue, Round: number})
	})
	if err != nil {
		return 0, err
	}
	return number, nil
}

// PayoutRevenueShares pays the next batch of at most limit investors of the
// open round; a zero limit uses the configured batch size. Each investor
// receives floor(revenue * stake / totalStake). After the last investor the
// rounding remainder is settled by the dust policy and the round closes.
// Calling it on a completed round reports completion and changes nothing.
func (p *Platform) PayoutRevenueShares(caller, project address.Address, limit uint64) (PayoutProgress, error) {
	var progress PayoutProgress
	err := p.update("payout-revenue-shares", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if err := authorize(caller, ErrNotPayoutOperator, t.issuerCap(), adminCap(rec.Admin)); err != nil {
			return err
		}
		round, ok, err := t.round(project)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoPayoutRound, project)
		}
		progress = PayoutProgress{Round: round.Number, Paid: new(uint256.Int), Investors: round.Investors}
		if !round.Active {
			progress.Cursor, progress.Complete = round.Cursor, true
			return nil
		}

		if limit == 0 {
			limit = t.p.batchSize
		}
		from, to := round.Batch(limit)
		for pos := from; pos < to; pos++ {
			investor, err := t.investorAt(project, pos)
			if err != nil {
				return err
			}
			s, _, err := t.stake(project, investor)
			if err != nil {
				return err
			}
			d, err := round.Pay(pos, revshare.Entry{Address: investor, Stake: s.Amount})
			if err != nil {
				return fmt.Errorf("platform: round %d position %d: %w", round.Number, pos, err)
			}
			progress.Processed++
			if d.Amount.IsZero() {
				continue
			}
			if err := t.payShare(project, round.Number, d, EventRevenueSharePaid); err != nil {
				return err
			}
			progress.Paid.Add(progress.Paid, d.Amount)
		}

		if round.Done() {
			if err := t.settleRound(project, rec, round, &progress); err != nil {
				return err
			}
		}
		progress.Cursor = round.Cursor
		return t.putRound(project, round)
	})
	if err != nil {
		return PayoutProgress{}, err
	}
	return progress, nil
}

// settleRound resolves the rounding remainder of a finished round and closes
// it.
func (t *txn) settleRound(project address.Address, rec *projectRecord, round *revshare.Round, progress *PayoutProgress) error {
	dust, kept, err := round.Settle(t.p.dustPolicy)
	if err != nil {
		return fmt.Errorf("platform: settle round %d: %w", round.Number, err)
	}
	if dust != nil {
		if err := t.payShare(project, round.Number, *dust, EventRevenueDustAssigned); err != nil {
			return err
		}
		progress.Paid.Add(progress.Paid, dust.Amount)
	}
	if !kept.IsZero() {
		residual := rec.Residual.Int()
		rec.Residual = toAmount(residual.Add(residual, kept))
		if err := t.putProject(project, rec); err != nil {
			return err
		}
	}
	progress.Complete = true
	return t.emit(Event{Kind: EventRevenuePayoutCompleted, Subject: project, Amount: round.Paid, Round: round.Number})
}

func (t *txn) payShare(project address.Address, number uint64, d revshare.Distribution, kind EventKind) error {
	if err := t.move(project, d.Address, d.Amount); err != nil {
		return err
	}
	return t.emit(Event{Kind: kind, Subject: project, Wallet: d.Address, Amount: d.Amount, Round: number})
}

// PayoutRound returns the latest payout round of project. ok is false when
// no round was ever started.
func (p *Platform) PayoutRound(project address.Address) (PayoutRound, bool, error) {
	var (
		out PayoutRound
		ok  bool
	)
	err := p.view(func(t *txn) error {
		if _, err := t.project(project); err != nil {
			return err
		}
		r, found, err := t.round(project)
		if err != nil || !found {
			return err
		}
		ok = true
		out = PayoutRound{
			Number:     r.Number,
			Revenue:    r.Revenue,
			TotalStake: r.TotalStake,
			Investors:  r.Investors,
			Cursor:     r.Cursor,
			Paid:       r.Paid,
			Active:     r.Active,
		}
		return nil
	})
	return out, ok, err
}
