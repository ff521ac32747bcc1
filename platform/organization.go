package platform

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

// Organization is the public view of an organization.
type Organization struct {
	Address  address.Address
	Name     string
	Admin    address.Address
	Verified bool
	Projects []address.Address
	Created  time.Time
}

// ProjectConfig holds the funding parameters of a new project. A zero
// EndTime means the project never expires.
type ProjectConfig struct {
	MinPerUser    *uint256.Int
	MaxPerUser    *uint256.Int
	InvestmentCap *uint256.Int
	EndTime       time.Time
}

func (c ProjectConfig) validate(now time.Time) error {
	if c.MinPerUser == nil || c.MaxPerUser == nil || c.InvestmentCap == nil {
		return fmt.Errorf("%w: missing bound", ErrInvalidProjectConfig)
	}
	if c.MinPerUser.IsZero() {
		return fmt.Errorf("%w: zero minimum", ErrInvalidProjectConfig)
	}
	if c.MinPerUser.Gt(c.MaxPerUser) {
		return fmt.Errorf("%w: minimum %s above maximum %s", ErrInvalidProjectConfig, c.MinPerUser.Dec(), c.MaxPerUser.Dec())
	}
	if c.MaxPerUser.Gt(c.InvestmentCap) {
		return fmt.Errorf("%w: maximum %s above cap %s", ErrInvalidProjectConfig, c.MaxPerUser.Dec(), c.InvestmentCap.Dec())
	}
	if !c.EndTime.IsZero() && !c.EndTime.After(now) {
		return fmt.Errorf("%w: end time %s is not in the future", ErrInvalidProjectConfig, c.EndTime.Format(time.RFC3339))
	}
	return nil
}

// ActivateOrganization verifies org and activates its wallet. Only the owner
// may call it; verifying again changes nothing.
func (p *Platform) ActivateOrganization(caller, org address.Address) error {
	return p.update("activate-organization", func(t *txn) error {
		if err := requireCap(caller, t.ownerCap()); err != nil {
			return err
		}
		rec, err := t.organization(org)
		if err != nil {
			return err
		}
		if rec.Verified {
			return nil
		}
		rec.Verified = true
		if err := t.putOrganization(org, rec); err != nil {
			return err
		}
		if err := t.putWallet(org, walletRecord{Active: true, Kind: WalletOrganization}); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventOrganizationApproved, Subject: org, Wallet: rec.Admin})
	})
}

// verifiedAdmin loads org and checks that caller administers it and that it
// is verified.
func (t *txn) verifiedAdmin(caller, org address.Address) (*organizationRecord, error) {
	rec, err := t.organization(org)
	if err != nil {
		return nil, err
	}
	if err := requireCap(caller, adminCap(rec.Admin)); err != nil {
		return nil, err
	}
	if !rec.Verified {
		return nil, fmt.Errorf("%w: %s", ErrOrganizationNotVerified, org)
	}
	return rec, nil
}

// AddMember adds the active participant wallet w to org. Adding a member twice changes
// nothing.
func (p *Platform) AddMember(caller, org, w address.Address) error {
	return p.update("add-member", func(t *txn) error {
		if _, err := t.verifiedAdmin(caller, org); err != nil {
			return err
		}
		if err := t.requireParticipant(w, ErrWalletNotRegistered); err != nil {
			return err
		}
		if t.isMember(org, w) {
			return nil
		}
		if err := t.tx.Put(bucketMembers, pairKey(org, w), []byte{1}); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventMemberAdded, Subject: org, Wallet: w})
	})
}

// AddProject creates an Open project under org and activates its wallet.
func (p *Platform) AddProject(caller, org address.Address, cfg ProjectConfig) (address.Address, error) {
	var project address.Address
	err := p.update("add-project", func(t *txn) error {
		orgRec, err := t.verifiedAdmin(caller, org)
		if err != nil {
			return err
		}
		if err := cfg.validate(t.now); err != nil {
			return err
		}
		if project, err = t.nextEntityAddress(org); err != nil {
			return err
		}

		rec := &projectRecord{
			Organization:  org,
			Admin:         orgRec.Admin,
			MinPerUser:    toAmount(cfg.MinPerUser),
			MaxPerUser:    toAmount(cfg.MaxPerUser),
			InvestmentCap: toAmount(cfg.InvestmentCap),
			State:         StateOpen,
			CancelEnabled: t.p.cancelPolicy == CancelOpen,
			Created:       t.now.UnixNano(),
		}
		if !cfg.EndTime.IsZero() {
			rec.EndTime = cfg.EndTime.UnixNano()
		}
		if err := t.putProject(project, rec); err != nil {
			return err
		}
		if err := t.putWallet(project, walletRecord{Active: true, Kind: WalletProject}); err != nil {
			return err
		}
		orgRec.Projects = append(orgRec.Projects, project)
		if err := t.putOrganization(org, orgRec); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventProjectAdded, Subject: project, Wallet: caller, Counterparty: org, Amount: cfg.InvestmentCap})
	})
	if err != nil {
		return address.Zero, err
	}
	return project, nil
}

// WithdrawOrganizationFunds moves amount of the organization's own balance
// to a registered wallet or the issuer.
func (p *Platform) WithdrawOrganizationFunds(caller, org, to address.Address, amount *uint256.Int) error {
	return p.update("withdraw-organization-funds", func(t *txn) error {
		rec, err := t.organization(org)
		if err != nil {
			return err
		}
		if err := requireCap(caller, adminCap(rec.Admin)); err != nil {
			return err
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := t.requireRecipient(to); err != nil {
			return err
		}
		if err := t.move(org, to, amount); err != nil {
			return err
		}
		return t.emit(Event{Kind: EventOrganizationFundsWithdrawn, Subject: org, Wallet: to, Counterparty: caller, Amount: amount})
	})
}

// Organization returns the public view of org.
func (p *Platform) Organization(org address.Address) (Organization, error) {
	var out Organization
	err := p.view(func(t *txn) error {
		rec, err := t.organization(org)
		if err != nil {
			return err
		}
		out = Organization{
			Address:  org,
			Name:     rec.Name,
			Admin:    rec.Admin,
			Verified: rec.Verified,
			Projects: append([]address.Address(nil), rec.Projects...),
			Created:  time.Unix(0, rec.Created).UTC(),
		}
		return nil
	})
	return out, err
}

// Members lists the members of org in address order.
func (p *Platform) Members(org address.Address) ([]address.Address, error) {
	var out []address.Address
	err := p.view(func(t *txn) error {
		if _, err := t.organization(org); err != nil {
			return err
		}
		return t.tx.ForEach(bucketMembers, org[:], nil, func(k, _ []byte) error {
			a, err := address.FromBytes(k[address.Size:])
			if err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	return out, err
}

// IsMember reports whether w is a member of org.
func (p *Platform) IsMember(org, w address.Address) (bool, error) {
	var member bool
	err := p.view(func(t *txn) error {
		member = t.isMember(org, w)
		return nil
	})
	return member, err
}

// Projects lists the projects of org in creation order.
func (p *Platform) Projects(org address.Address) ([]address.Address, error) {
	o, err := p.Organization(org)
	if err != nil {
		return nil, err
	}
	return o.Projects, nil
}
