// Package platform is the investment ledger: a wallet registry, verified
// organizations, a restricted token and capped fundraising projects with
// batched pro-rata revenue payouts.
//
// Every exported operation runs in one store transaction. It either commits
// all of its effects and events or returns an error and changes nothing.
package platform

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/config"
	"github.com/coopfund/libcoop-go/revshare"
	"github.com/coopfund/libcoop-go/store"
	"github.com/coopfund/libcoop-go/wallet"
)

const zapDebug = zapcore.DebugLevel

// CancelPolicy decides whether investors may withdraw from an Open project.
type CancelPolicy int

const (
	// CancelOpen allows CancelInvestment while the project is Open.
	CancelOpen CancelPolicy = iota
	// CancelExpiryOnly refunds only through WithdrawInvestment after expiry.
	CancelExpiryOnly
)

// ParseCancelPolicy maps a config name to a CancelPolicy.
func ParseCancelPolicy(s string) (CancelPolicy, error) {
	switch s {
	case config.CancelOpen, "":
		return CancelOpen, nil
	case config.CancelExpiryOnly:
		return CancelExpiryOnly, nil
	default:
		return 0, fmt.Errorf("%w: cancel policy %q", ErrInvalidArgument, s)
	}
}

// Platform is the ledger engine bound to a store.
type Platform struct {
	store        store.Store
	owner        address.Address
	issuer       address.Address
	now          func() time.Time
	log          *zap.Logger
	sinks        []EventSink
	batchSize    uint64
	cancelPolicy CancelPolicy
	dustPolicy   revshare.DustPolicy
	boundsCheck  bool
	network      *wallet.NetworkConfig
	custody      *custody
	closeLog     func()
}

// Option configures a Platform.
type Option func(*Platform)

// WithClock sets the time source used for deadlines and event times.
func WithClock(now func() time.Time) Option {
	return func(p *Platform) { p.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Platform) { p.log = l }
}

// WithSinks adds event sinks.
func WithSinks(sinks ...EventSink) Option {
	return func(p *Platform) { p.sinks = append(p.sinks, sinks...) }
}

// WithBatchSize sets how many investors a payout call processes when the
// caller passes no limit.
func WithBatchSize(n uint64) Option {
	return func(p *Platform) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithCancelPolicy sets the policy recorded on projects created from now on.
func WithCancelPolicy(c CancelPolicy) Option {
	return func(p *Platform) { p.cancelPolicy = c }
}

// WithDustPolicy sets where payout rounding remainders go.
func WithDustPolicy(d revshare.DustPolicy) Option {
	return func(p *Platform) { p.dustPolicy = d }
}

// WithRecipientBoundsCheck makes TransferOwnership keep the recipient's
// resulting stake within the project's per user bounds.
func WithRecipientBoundsCheck(on bool) Option {
	return func(p *Platform) { p.boundsCheck = on }
}

// WithNetwork sets the network used by FormatAddress.
func WithNetwork(n *wallet.NetworkConfig) Option {
	return func(p *Platform) { p.network = n }
}

// New binds a platform with the given owner and issuer to st. A store
// already initialized for other identities is rejected.
func New(st store.Store, owner, issuer address.Address, opts ...Option) (*Platform, error) {
	if owner.IsZero() || issuer.IsZero() {
		return nil, ErrZeroAddress
	}
	p := &Platform{
		store:     st,
		owner:     owner,
		issuer:    issuer,
		now:       time.Now,
		log:       zap.NewNop(),
		batchSize: config.DefaultPayoutBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	err := st.Update(func(tx store.Tx) error {
		t := &txn{tx: tx, p: p}
		for _, id := range []struct {
			key  []byte
			addr address.Address
		}{{metaOwner, owner}, {metaIssuer, issuer}} {
			stored := t.identity(id.key)
			switch {
			case stored.IsZero():
				if err := tx.Put(bucketMeta, id.key, id.addr[:]); err != nil {
					return err
				}
			case stored != id.addr:
				return fmt.Errorf("%w: %s is %s", ErrIdentityMismatch, id.key, stored)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Info("platform ready",
		zap.Stringer("owner", owner),
		zap.Stringer("issuer", issuer),
		zap.Uint64("batch_size", p.batchSize),
		zap.Stringer("dust_policy", p.dustPolicy),
	)
	return p, nil
}

// Close closes the underlying store and flushes the logger. A platform
// built by Open also releases its log file.
func (p *Platform) Close() error {
	_ = p.log.Sync()
	err := p.store.Close()
	if p.closeLog != nil {
		p.closeLog()
	}
	return err
}

// Owner returns the registry owner.
func (p *Platform) Owner() address.Address { return p.owner }

// Issuer returns the token issuer.
func (p *Platform) Issuer() address.Address { return p.issuer }

// update runs fn in a write transaction and dispatches its events after
// commit. op names the operation in logs.
func (p *Platform) update(op string, fn func(*txn) error) error {
	var events []Event
	err := p.store.Update(func(tx store.Tx) error {
		t := &txn{tx: tx, p: p, now: p.now()}
		if err := fn(t); err != nil {
			return err
		}
		events = t.events
		return nil
	})
	if err != nil {
		p.log.Debug("operation rejected", zap.String("op", op), zap.Error(err))
		return err
	}
	p.dispatch(events)
	return nil
}

// view runs fn in a read transaction.
func (p *Platform) view(fn func(*txn) error) error {
	return p.store.View(func(tx store.Tx) error {
		return fn(&txn{tx: tx, p: p, now: p.now(), readOnly: true})
	})
}

// requirePositive rejects nil and zero amounts.
func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	return nil
}

func eventFields(e Event) []zap.Field {
	fields := []zap.Field{
		zap.Uint64("seq", e.Seq),
		zap.String("kind", string(e.Kind)),
		zap.Stringer("subject", e.Subject),
	}
	if !e.Wallet.IsZero() {
		fields = append(fields, zap.Stringer("wallet", e.Wallet))
	}
	if !e.Counterparty.IsZero() {
		fields = append(fields, zap.Stringer("counterparty", e.Counterparty))
	}
	if e.Amount != nil && !e.Amount.IsZero() {
		fields = append(fields, zap.String("amount", e.Amount.Dec()))
	}
	if e.Round != 0 {
		fields = append(fields, zap.Uint64("round", e.Round))
	}
	return fields
}
