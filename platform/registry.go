package platform

import (
	"fmt"

	"github.com/coopfund/libcoop-go/address"
)

// Wallet is the registry entry of an address.
type Wallet struct {
	Address address.Address
	Active  bool
	Kind    WalletKind
}

// AddWallet activates the participant wallet w. Only the owner may call it;
// activating an active wallet changes nothing. Organization and project
// wallets are activated by verification and project creation only.
func (p *Platform) AddWallet(caller, w address.Address) error {
	return p.update("add-wallet", func(t *txn) error {
		if err := requireCap(caller, t.ownerCap()); err != nil {
			return err
		}
		if w.IsZero() {
			return ErrZeroAddress
		}
		rec, _, err := t.wallet(w)
		if err != nil {
			return err
		}
		if rec.Kind != WalletParticipant {
			return fmt.Errorf("%w: %s is a %s wallet", ErrEntityWallet, w, rec.Kind)
		}
		if rec.Active {
			return nil
		}
		rec.Active = true
		if err := t.putWallet(w, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventWalletAdded, Subject: w, Wallet: w})
	})
}

// DeactivateWallet clears the active flag of w. The record is kept.
func (p *Platform) DeactivateWallet(caller, w address.Address) error {
	return p.update("deactivate-wallet", func(t *txn) error {
		if err := requireCap(caller, t.ownerCap()); err != nil {
			return err
		}
		rec, ok, err := t.wallet(w)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWalletNotRegistered
		}
		if !rec.Active {
			return nil
		}
		rec.Active = false
		if err := t.putWallet(w, rec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventWalletDeactivated, Subject: w, Wallet: w})
	})
}

// AddOrganization creates an unverified organization administered by
// caller, who must be an active wallet.
func (p *Platform) AddOrganization(caller address.Address, name string) (address.Address, error) {
	var org address.Address
	err := p.update("add-organization", func(t *txn) error {
		if err := t.requireParticipant(caller, ErrWalletNotRegistered); err != nil {
			return err
		}
		var err error
		if org, err = t.nextEntityAddress(caller); err != nil {
			return err
		}

		rec := &organizationRecord{Name: name, Admin: caller, Created: t.now.UnixNano()}
		if err := t.putOrganization(org, rec); err != nil {
			return err
		}
		// The organization wallet is registered inactive until verification.
		if err := t.putWallet(org, walletRecord{Kind: WalletOrganization}); err != nil {
			return err
		}
		n := t.counter(metaOrgCount)
		if err := t.tx.Put(bucketOrgIndex, seqKey(n), org[:]); err != nil {
			return err
		}
		if err := t.setCounter(metaOrgCount, n+1); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventOrganizationAdded, Subject: org, Wallet: caller})
	})
	if err != nil {
		return address.Zero, err
	}
	return org, nil
}

// IsWalletActive reports whether w may hold and move tokens.
func (p *Platform) IsWalletActive(w address.Address) (bool, error) {
	var active bool
	err := p.view(func(t *txn) error {
		var err error
		active, err = t.isActive(w)
		return err
	})
	return active, err
}

// Wallet returns the registry entry of w.
func (p *Platform) Wallet(w address.Address) (Wallet, error) {
	out := Wallet{Address: w}
	err := p.view(func(t *txn) error {
		rec, ok, err := t.wallet(w)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWalletNotRegistered
		}
		out.Active, out.Kind = rec.Active, rec.Kind
		return nil
	})
	return out, err
}

// OrganizationExists reports whether org was created through the registry.
func (p *Platform) OrganizationExists(org address.Address) (bool, error) {
	var exists bool
	err := p.view(func(t *txn) error {
		exists = t.tx.Get(bucketOrganizations, org[:]) != nil
		return nil
	})
	return exists, err
}

// Organizations lists organizations in creation order.
func (p *Platform) Organizations() ([]address.Address, error) {
	var out []address.Address
	err := p.view(func(t *txn) error {
		return t.tx.ForEach(bucketOrgIndex, nil, nil, func(_, v []byte) error {
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
