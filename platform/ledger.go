package platform

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

// Mint creates amount tokens on the active wallet to. Only the issuer may
// mint.
func (p *Platform) Mint(caller, to address.Address, amount *uint256.Int) error {
	return p.update("mint", func(t *txn) error {
		if err := requireCap(caller, t.issuerCap()); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := t.requireActive(to, ErrWalletNotRegistered); err != nil {
			return err
		}
		if err := t.mint(to, amount); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventTokensMinted, Subject: to, Wallet: to, Counterparty: caller, Amount: amount})
	})
}

// Transfer moves amount from the active participant caller to an active
// wallet or the issuer.
func (p *Platform) Transfer(caller, to address.Address, amount *uint256.Int) error {
	return p.update("transfer", func(t *txn) error {
		if err := t.requireParticipant(caller, ErrWalletNotRegistered); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := t.requireRecipient(to); err != nil {
			return err
		}
		if err := t.move(caller, to, amount); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventTokensTransferred, Subject: caller, Wallet: caller, Counterparty: to, Amount: amount})
	})
}

// Approve sets the issuer's allowance over the caller's balance. Allowances
// may only be granted to the issuer, who uses them to burn on withdrawal.
func (p *Platform) Approve(caller, spender address.Address, amount *uint256.Int) error {
	return p.changeAllowance("approve", caller, spender, func(cur *uint256.Int) (*uint256.Int, error) {
		if amount == nil {
			return nil, ErrZeroAmount
		}
		return new(uint256.Int).Set(amount), nil
	})
}

// IncreaseAllowance raises the issuer's allowance by amount.
func (p *Platform) IncreaseAllowance(caller, spender address.Address, amount *uint256.Int) error {
	return p.changeAllowance("increase-allowance", caller, spender, func(cur *uint256.Int) (*uint256.Int, error) {
		if err := requirePositive(amount); err != nil {
			return nil, err
		}
		next, overflow := new(uint256.Int).AddOverflow(cur, amount)
		if overflow {
			return nil, ErrAmountOverflow
		}
		return next, nil
	})
}

// DecreaseAllowance lowers the issuer's allowance by amount.
func (p *Platform) DecreaseAllowance(caller, spender address.Address, amount *uint256.Int) error {
	return p.changeAllowance("decrease-allowance", caller, spender, func(cur *uint256.Int) (*uint256.Int, error) {
		if err := requirePositive(amount); err != nil {
			return nil, err
		}
		if cur.Lt(amount) {
			return nil, fmt.Errorf("%w: allowance %s below %s", ErrInsufficientAllowance, cur.Dec(), amount.Dec())
		}
		return new(uint256.Int).Sub(cur, amount), nil
	})
}

func (p *Platform) changeAllowance(op string, caller, spender address.Address, next func(cur *uint256.Int) (*uint256.Int, error)) error {
	return p.update(op, func(t *txn) error {
		if err := t.requireParticipant(caller, ErrWalletNotRegistered); err != nil {
			return err
		}
		if spender != t.p.issuer {
			return fmt.Errorf("%w: %s", ErrSpenderNotIssuer, spender)
		}
		v, err := next(t.allowance(caller, spender))
		if err != nil {
			return err
		}
		if err := t.setAllowance(caller, spender, v); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventAllowanceChanged, Subject: caller, Wallet: caller, Counterparty: spender, Amount: v})
	})
}

// BurnFrom destroys amount from from, consuming the allowance from granted
// to the issuer. Only the issuer may burn; holders cannot burn directly.
func (p *Platform) BurnFrom(caller, from address.Address, amount *uint256.Int) error {
	return p.update("burn-from", func(t *txn) error {
		if err := requireCap(caller, t.issuerCap()); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		allowed := t.allowance(from, caller)
		if allowed.Lt(amount) {
			return fmt.Errorf("%w: allowance %s below %s", ErrInsufficientAllowance, allowed.Dec(), amount.Dec())
		}
		if err := t.burn(from, amount); err != nil {
			return err
		}
		if err := t.setAllowance(from, caller, allowed.Sub(allowed, amount)); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventTokensBurned, Subject: from, Wallet: from, Counterparty: caller, Amount: amount})
	})
}

// BalanceOf returns the balance of a.
func (p *Platform) BalanceOf(a address.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := p.view(func(t *txn) error {
		out = t.balance(a)
		return nil
	})
	return out, err
}

// Allowance returns what spender may burn from owner.
func (p *Platform) Allowance(owner, spender address.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := p.view(func(t *txn) error {
		out = t.allowance(owner, spender)
		return nil
	})
	return out, err
}

// TotalSupply returns the sum of all balances.
func (p *Platform) TotalSupply() (*uint256.Int, error) {
	var out *uint256.Int
	err := p.view(func(t *txn) error {
		out = t.supply()
		return nil
	})
	return out, err
}
