package platform

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

// Project is the public view of a project. State reflects the clock at the
// time of the query.
type Project struct {
	Address       address.Address
	Organization  address.Address
	Admin         address.Address
	MinPerUser    *uint256.Int
	MaxPerUser    *uint256.Int
	InvestmentCap *uint256.Int
	EndTime       time.Time // zero when the project never expires
	TotalInvested *uint256.Int
	State         State
	CancelEnabled bool
	Investors     uint64
	Residual      *uint256.Int
	Rounds        uint64
}

func (r *projectRecord) view(a address.Address) Project {
	p := Project{
		Address:       a,
		Organization:  r.Organization,
		Admin:         r.Admin,
		MinPerUser:    r.MinPerUser.Int(),
		MaxPerUser:    r.MaxPerUser.Int(),
		InvestmentCap: r.InvestmentCap.Int(),
		TotalInvested: r.TotalInvested.Int(),
		State:         r.State,
		CancelEnabled: r.CancelEnabled,
		Investors:     r.Investors,
		Residual:      r.Residual.Int(),
		Rounds:        r.Rounds,
	}
	if r.EndTime != 0 {
		p.EndTime = time.Unix(0, r.EndTime).UTC()
	}
	return p
}

// Invest moves amount from the investor's balance into the project and
// records it as stake. The project becomes Funded when the cap is reached.
func (p *Platform) Invest(investor, project address.Address, amount *uint256.Int) error {
	return p.update("invest", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if err := t.requireParticipant(investor, ErrWalletNotRegistered); err != nil {
			return err
		}
		switch rec.State {
		case StateExpired:
			return fmt.Errorf("%w: %s", ErrFundingExpired, project)
		case StateFunded:
			return fmt.Errorf("%w: %s", ErrProjectFunded, project)
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if bal := t.balance(investor); bal.Lt(amount) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, investor, bal.Dec(), amount.Dec())
		}

		s, _, err := t.stake(project, investor)
		if err != nil {
			return err
		}
		newStake, overflow := new(uint256.Int).AddOverflow(s.Amount, amount)
		if overflow {
			return fmt.Errorf("%w: stake overflows", ErrAboveMaximum)
		}
		if newStake.Lt(rec.MinPerUser.Int()) {
			return fmt.Errorf("%w: stake would be %s", ErrBelowMinimum, newStake.Dec())
		}
		if newStake.Gt(rec.MaxPerUser.Int()) {
			return fmt.Errorf("%w: stake would be %s", ErrAboveMaximum, newStake.Dec())
		}
		total := new(uint256.Int).Add(rec.TotalInvested.Int(), amount)
		capacity := rec.InvestmentCap.Int()
		if total.Gt(capacity) {
			return fmt.Errorf("%w: total would be %s of %s", ErrCapExceeded, total.Dec(), capacity.Dec())
		}

		if err := t.move(investor, project, amount); err != nil {
			return err
		}
		if _, err := t.addStake(project, rec, investor, amount); err != nil {
			return err
		}
		rec.TotalInvested = toAmount(total)
		if total.Eq(capacity) {
			rec.State = StateFunded
		}
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventInvestmentMade, Subject: project, Wallet: investor, Amount: amount})
	})
}

// CancelInvestment returns amount of the investor's stake while the project
// is Open. What remains must be zero or at least the per user minimum.
func (p *Platform) CancelInvestment(investor, project address.Address, amount *uint256.Int) error {
	return p.update("cancel-investment", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if rec.State != StateOpen {
			return fmt.Errorf("%w: %s is %s", ErrProjectNotOpen, project, rec.State)
		}
		if !rec.CancelEnabled {
			return fmt.Errorf("%w: %s", ErrCancelDisabled, project)
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		s, _, err := t.stake(project, investor)
		if err != nil {
			return err
		}
		if s.Amount.Lt(amount) {
			return fmt.Errorf("%w: stake %s below %s", ErrInsufficientStake, s.Amount.Dec(), amount.Dec())
		}
		remaining := new(uint256.Int).Sub(s.Amount, amount)
		if !remaining.IsZero() && remaining.Lt(rec.MinPerUser.Int()) {
			return fmt.Errorf("%w: %s would remain", ErrBelowMinimumAfterCancel, remaining.Dec())
		}

		if err := t.move(project, investor, amount); err != nil {
			return err
		}
		s.Amount = remaining
		if err := t.putStake(project, investor, s); err != nil {
			return err
		}
		total := rec.TotalInvested.Int()
		rec.TotalInvested = toAmount(total.Sub(total, amount))
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventInvestmentCancelled, Subject: project, Wallet: investor, Amount: amount})
	})
}

// TransferOwnership moves amount of stake from one investor to another
// registered wallet. Tokens stay in the project; only bookkeeping changes.
// Stakes are frozen once the project expires and while a payout round runs.
func (p *Platform) TransferOwnership(from, project, to address.Address, amount *uint256.Int) error {
	return p.update("transfer-ownership", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if rec.State == StateExpired {
			return fmt.Errorf("%w: %s", ErrFundingExpired, project)
		}
		active, err := t.activeRound(project)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: %s", ErrPayoutInProgress, project)
		}
		if err := t.requireParticipant(to, ErrUnregisteredRecipient); err != nil {
			return err
		}
		if from == to {
			return ErrSelfTransfer
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		src, _, err := t.stake(project, from)
		if err != nil {
			return err
		}
		if src.Amount.Lt(amount) {
			return fmt.Errorf("%w: stake %s below %s", ErrInsufficientStake, src.Amount.Dec(), amount.Dec())
		}
		if t.p.boundsCheck {
			dst, _, err := t.stake(project, to)
			if err != nil {
				return err
			}
			next := new(uint256.Int).Add(dst.Amount, amount)
			if next.Lt(rec.MinPerUser.Int()) || next.Gt(rec.MaxPerUser.Int()) {
				return fmt.Errorf("%w: recipient stake would be %s", ErrRecipientOutOfBounds, next.Dec())
			}
		}

		src.Amount = new(uint256.Int).Sub(src.Amount, amount)
		if err := t.putStake(project, from, src); err != nil {
			return err
		}
		if _, err := t.addStake(project, rec, to, amount); err != nil {
			return err
		}
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventOwnershipTransferred, Subject: project, Wallet: from, Counterparty: to, Amount: amount})
	})
}

// WithdrawFunds lets the organization admin move raised funds out of a
// Funded project. Revenue reserved for an open payout round and retained
// payout dust cannot be withdrawn.
func (p *Platform) WithdrawFunds(caller, project, to address.Address, amount *uint256.Int) error {
	return p.update("withdraw-funds", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if err := requireCap(caller, adminCap(rec.Admin)); err != nil {
			return err
		}
		if rec.State != StateFunded {
			return fmt.Errorf("%w: %s is %s", ErrProjectNotFunded, project, rec.State)
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := t.requireRecipient(to); err != nil {
			return err
		}
		available, err := t.withdrawable(project, rec)
		if err != nil {
			return err
		}
		if available.Lt(amount) {
			return fmt.Errorf("%w: %s withdrawable, requested %s", ErrInsufficientBalance, available.Dec(), amount.Dec())
		}
		if err := t.move(project, to, amount); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventFundsWithdrawn, Subject: project, Wallet: to, Counterparty: caller, Amount: amount})
	})
}

// withdrawable is the project balance minus unpaid round revenue and
// retained dust.
func (t *txn) withdrawable(project address.Address, rec *projectRecord) (*uint256.Int, error) {
	reserved := rec.Residual.Int()
	r, ok, err := t.round(project)
	if err != nil {
		return nil, err
	}
	if ok && r.Active {
		reserved.Add(reserved, r.Remaining())
	}
	bal := t.balance(project)
	if bal.Lt(reserved) {
		return new(uint256.Int), nil
	}
	return bal.Sub(bal, reserved), nil
}

// WithdrawInvestment refunds the investor's whole stake from an Expired
// project and returns the refunded amount.
func (p *Platform) WithdrawInvestment(investor, project address.Address) (*uint256.Int, error) {
	var refund *uint256.Int
	err := p.update("withdraw-investment", func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		if rec.State != StateExpired {
			return fmt.Errorf("%w: %s is %s", ErrProjectNotExpired, project, rec.State)
		}
		s, _, err := t.stake(project, investor)
		if err != nil {
			return err
		}
		if s.Amount.IsZero() {
			return fmt.Errorf("%w: %s holds no stake", ErrInsufficientStake, investor)
		}
		refund = s.Amount
		if err := t.move(project, investor, refund); err != nil {
			return err
		}
		s.Amount = new(uint256.Int)
		if err := t.putStake(project, investor, s); err != nil {
			return err
		}
		total := rec.TotalInvested.Int()
		rec.TotalInvested = toAmount(total.Sub(total, refund))
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventInvestmentWithdrawn, Subject: project, Wallet: investor, Amount: refund})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// Project returns the public view of project.
func (p *Platform) Project(project address.Address) (Project, error) {
	var out Project
	err := p.view(func(t *txn) error {
		rec, err := t.project(project)
		if err != nil {
			return err
		}
		out = rec.view(project)
		return nil
	})
	return out, err
}

// InvestmentOf returns the stake of investor in project.
func (p *Platform) InvestmentOf(project, investor address.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := p.view(func(t *txn) error {
		if _, err := t.project(project); err != nil {
			return err
		}
		s, _, err := t.stake(project, investor)
		if err != nil {
			return err
		}
		out = s.Amount
		return nil
	})
	return out, err
}

// Investors lists everyone who ever held stake in project, in payout order.
func (p *Platform) Investors(project address.Address) ([]address.Address, error) {
	var out []address.Address
	err := p.view(func(t *txn) error {
		if _, err := t.project(project); err != nil {
			return err
		}
		return t.tx.ForEach(bucketInvestors, project[:], nil, func(_, v []byte) error {
			a, err := address.FromBytes(v)
			if err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	return out, err
}
