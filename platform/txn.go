package platform

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/revshare"
	"github.com/coopfund/libcoop-go/store"
)

// txn is the typed view of one store transaction. Every operation reads and
// writes platform state only through it.
type txn struct {
	tx       store.Tx
	p        *Platform
	now      time.Time
	readOnly bool
	events   []Event
}

func decodeSeq(k []byte) uint64 {
	return binary.BigEndian.Uint64(k)
}

func (t *txn) putGob(bucket, key []byte, v interface{}) error {
	data, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("platform: encode %s: %w", bucket, err)
	}
	return t.tx.Put(bucket, key, data)
}

func (t *txn) getGob(bucket, key []byte, v interface{}) (bool, error) {
	data := t.tx.Get(bucket, key)
	if data == nil {
		return false, nil
	}
	if err := decodeGob(data, v); err != nil {
		return false, fmt.Errorf("platform: decode %s: %w", bucket, err)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Counters and amounts
// ---------------------------------------------------------------------------

func (t *txn) counter(key []byte) uint64 {
	v := t.tx.Get(bucketMeta, key)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func (t *txn) setCounter(key []byte, n uint64) error {
	return t.tx.Put(bucketMeta, key, seqKey(n))
}

func (t *txn) getAmount(bucket, key []byte) *uint256.Int {
	v := t.tx.Get(bucket, key)
	if len(v) != 32 {
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes32(v)
}

// putAmount stores v, deleting the key when v is zero.
func (t *txn) putAmount(bucket, key []byte, v *uint256.Int) error {
	if v.IsZero() {
		return t.tx.Delete(bucket, key)
	}
	b := v.Bytes32()
	return t.tx.Put(bucket, key, b[:])
}

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

func (t *txn) identity(key []byte) address.Address {
	var a address.Address
	copy(a[:], t.tx.Get(bucketMeta, key))
	return a
}

// nextEntityAddress derives a fresh address for an entity created by
// creator, skipping addresses already known to the registry.
func (t *txn) nextEntityAddress(creator address.Address) (address.Address, error) {
	n := t.counter(metaNonce)
	for {
		a := address.Derive(creator, n)
		n++
		if _, ok, err := t.wallet(a); err != nil {
			return address.Zero, err
		} else if !ok {
			return a, t.setCounter(metaNonce, n)
		}
	}
}

// ---------------------------------------------------------------------------
// Wallets
// ---------------------------------------------------------------------------

func (t *txn) wallet(a address.Address) (walletRecord, bool, error) {
	var rec walletRecord
	ok, err := t.getGob(bucketWallets, a[:], &rec)
	return rec, ok, err
}

func (t *txn) putWallet(a address.Address, rec walletRecord) error {
	return t.putGob(bucketWallets, a[:], &rec)
}

func (t *txn) isActive(a address.Address) (bool, error) {
	rec, ok, err := t.wallet(a)
	return ok && rec.Active, err
}

// requireActive fails with reason unless a is an active wallet.
func (t *txn) requireActive(a address.Address, reason error) error {
	active, err := t.isActive(a)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("%w: %s", reason, a)
	}
	return nil
}

// requireParticipant fails with reason unless a is active, and with
// ErrEntityWallet when a belongs to an organization or project. Entity
// wallets only move through their admin operations.
func (t *txn) requireParticipant(a address.Address, reason error) error {
	rec, ok, err := t.wallet(a)
	if err != nil {
		return err
	}
	if !ok || !rec.Active {
		return fmt.Errorf("%w: %s", reason, a)
	}
	if rec.Kind != WalletParticipant {
		return fmt.Errorf("%w: %s is a %s wallet", ErrEntityWallet, a, rec.Kind)
	}
	return nil
}

// requireRecipient accepts active wallets and the issuer.
func (t *txn) requireRecipient(a address.Address) error {
	if a == t.p.issuer {
		return nil
	}
	return t.requireActive(a, ErrUnregisteredRecipient)
}

// ---------------------------------------------------------------------------
// Balances
// ---------------------------------------------------------------------------

func (t *txn) balance(a address.Address) *uint256.Int {
	return t.getAmount(bucketBalances, a[:])
}

func (t *txn) supply() *uint256.Int {
	return t.getAmount(bucketMeta, metaSupply)
}

// move transfers amount between balances. It is the only primitive that
// moves existing tokens.
func (t *txn) move(from, to address.Address, amount *uint256.Int) error {
	fromBal := t.balance(from)
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBal.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	toBal, overflow := new(uint256.Int).AddOverflow(t.balance(to), amount)
	if overflow {
		return ErrAmountOverflow
	}
	if err := t.putAmount(bucketBalances, from[:], fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.putAmount(bucketBalances, to[:], toBal)
}

// mint creates amount on to and grows the supply.
func (t *txn) mint(to address.Address, amount *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(t.supply(), amount)
	if overflow {
		return ErrAmountOverflow
	}
	// Balances never exceed the supply, so this cannot overflow.
	bal := new(uint256.Int).Add(t.balance(to), amount)
	if err := t.putAmount(bucketMeta, metaSupply, supply); err != nil {
		return err
	}
	return t.putAmount(bucketBalances, to[:], bal)
}

// burn destroys amount from from and shrinks the supply.
func (t *txn) burn(from address.Address, amount *uint256.Int) error {
	bal := t.balance(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, bal.Dec(), amount.Dec())
	}
	supply := t.supply()
	if err := t.putAmount(bucketMeta, metaSupply, supply.Sub(supply, amount)); err != nil {
		return err
	}
	return t.putAmount(bucketBalances, from[:], bal.Sub(bal, amount))
}

func (t *txn) allowance(owner, spender address.Address) *uint256.Int {
	return t.getAmount(bucketAllowances, pairKey(owner, spender))
}

func (t *txn) setAllowance(owner, spender address.Address, v *uint256.Int) error {
	return t.putAmount(bucketAllowances, pairKey(owner, spender), v)
}

// ---------------------------------------------------------------------------
// Organizations
// ---------------------------------------------------------------------------

func (t *txn) organization(a address.Address) (*organizationRecord, error) {
	var rec organizationRecord
	ok, err := t.getGob(bucketOrganizations, a[:], &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrganizationNotFound, a)
	}
	return &rec, nil
}

func (t *txn) putOrganization(a address.Address, rec *organizationRecord) error {
	return t.putGob(bucketOrganizations, a[:], rec)
}

func (t *txn) isMember(org, w address.Address) bool {
	return t.tx.Get(bucketMembers, pairKey(org, w)) != nil
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

// project loads a project record with its state brought up to date with the
// clock. An Open project past its deadline becomes Expired; the change is
// written back so it persists with the surrounding operation.
func (t *txn) project(a address.Address) (*projectRecord, error) {
	var rec projectRecord
	ok, err := t.getGob(bucketProjects, a[:], &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, a)
	}
	if rec.State == StateOpen && rec.expiredAt(t.now) {
		rec.State = StateExpired
		if !t.readOnly {
			if err := t.putProject(a, &rec); err != nil {
				return nil, err
			}
		}
	}
	return &rec, nil
}

func (t *txn) putProject(a address.Address, rec *projectRecord) error {
	return t.putGob(bucketProjects, a[:], rec)
}

func (t *txn) stake(project, investor address.Address) (*revshare.Stake, bool, error) {
	data := t.tx.Get(bucketStakes, pairKey(project, investor))
	if data == nil {
		return &revshare.Stake{Amount: new(uint256.Int)}, false, nil
	}
	s, err := revshare.DeserializeStake(data)
	if err != nil {
		return nil, false, fmt.Errorf("platform: stake %s/%s: %w", project, investor, err)
	}
	return s, true, nil
}

// addStake credits amount to investor's stake, giving a first-time
// investor the next payout position.
func (t *txn) addStake(project address.Address, rec *projectRecord, investor address.Address, amount *uint256.Int) (*revshare.Stake, error) {
	s, ok, err := t.stake(project, investor)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.Index = rec.Investors
		rec.Investors++
		if err := t.tx.Put(bucketInvestors, indexKey(project, s.Index), investor[:]); err != nil {
			return nil, err
		}
	}
	s.Amount = new(uint256.Int).Add(s.Amount, amount)
	return s, t.putStake(project, investor, s)
}

// putStake writes a stake. Zero stakes are kept so the investor keeps its
// payout position.
func (t *txn) putStake(project, investor address.Address, s *revshare.Stake) error {
	return t.tx.Put(bucketStakes, pairKey(project, investor), revshare.SerializeStake(s))
}

func (t *txn) investorAt(project address.Address, pos uint64) (address.Address, error) {
	data := t.tx.Get(bucketInvestors, indexKey(project, pos))
	a, err := address.FromBytes(data)
	if err != nil {
		return address.Zero, fmt.Errorf("platform: investor %d of %s: %w", pos, project, err)
	}
	return a, nil
}

func (t *txn) round(project address.Address) (*revshare.Round, bool, error) {
	data := t.tx.Get(bucketRounds, project[:])
	if data == nil {
		return nil, false, nil
	}
	r, err := revshare.DeserializeRound(data)
	if err != nil {
		return nil, false, fmt.Errorf("platform: round of %s: %w", project, err)
	}
	return r, true, nil
}

func (t *txn) putRound(project address.Address, r *revshare.Round) error {
	return t.tx.Put(bucketRounds, project[:], revshare.SerializeRound(r))
}

// activeRound reports whether a payout round is open on project.
func (t *txn) activeRound(project address.Address) (bool, error) {
	r, ok, err := t.round(project)
	return ok && r.Active, err
}
