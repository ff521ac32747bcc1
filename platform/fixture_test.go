package platform

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/store"
	"github.com/coopfund/libcoop-go/units"
)

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var epoch = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) HandleEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	p      *Platform
	st     store.Store
	clock  *fakeClock
	sink   *recordingSink
	owner  address.Address
	issuer address.Address
	admin  address.Address
	alice  address.Address
	bob    address.Address
	carol  address.Address
	dave   address.Address // never registered
	org    address.Address
}

func addr(seed byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func eur(n uint64) *uint256.Int { return units.EUR(n) }

func tempBolt(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenBoltStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachStore runs fn against a fresh fixture on both store
// implementations.
func forEachStore(t *testing.T, fn func(t *testing.T, f *fixture), opts ...Option) {
	t.Run("mem", func(t *testing.T) { fn(t, newFixture(t, store.NewMemStore(), opts...)) })
	t.Run("bolt", func(t *testing.T) { fn(t, newFixture(t, tempBolt(t), opts...)) })
}

// newFixture registers admin, alice, bob and carol, creates and verifies
// an organization administered by admin and mints 10000 EUR to each
// investor.
func newFixture(t *testing.T, st store.Store, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		st:     st,
		clock:  &fakeClock{now: epoch},
		sink:   &recordingSink{},
		owner:  addr(0x01),
		issuer: addr(0x02),
		admin:  addr(0x0a),
		alice:  addr(0xa1),
		bob:    addr(0xb0),
		carol:  addr(0xc0),
		dave:   addr(0xd0),
	}
	all := append([]Option{WithClock(f.clock.Now), WithSinks(f.sink)}, opts...)
	p, err := New(st, f.owner, f.issuer, all...)
	require.NoError(t, err)
	f.p = p

	for _, w := range []address.Address{f.admin, f.alice, f.bob, f.carol} {
		require.NoError(t, p.AddWallet(f.owner, w))
	}
	f.org, err = p.AddOrganization(f.admin, "Coop")
	require.NoError(t, err)
	require.NoError(t, p.ActivateOrganization(f.owner, f.org))
	for _, w := range []address.Address{f.alice, f.bob, f.carol} {
		require.NoError(t, p.Mint(f.issuer, w, eur(10000)))
	}
	return f
}

// smallProject is min 1000, max 3000, cap 5000 EUR.
func smallProject() ProjectConfig {
	return ProjectConfig{MinPerUser: eur(1000), MaxPerUser: eur(3000), InvestmentCap: eur(5000)}
}

func (f *fixture) project(t *testing.T, cfg ProjectConfig) address.Address {
	t.Helper()
	p, err := f.p.AddProject(f.admin, f.org, cfg)
	require.NoError(t, err)
	return p
}

// fundedProject is a small project funded 3000 by alice and 2000 by bob.
func (f *fixture) fundedProject(t *testing.T) address.Address {
	t.Helper()
	p := f.project(t, smallProject())
	require.NoError(t, f.p.Invest(f.alice, p, eur(3000)))
	require.NoError(t, f.p.Invest(f.bob, p, eur(2000)))
	return p
}

func (f *fixture) balance(t *testing.T, a address.Address) *uint256.Int {
	t.Helper()
	b, err := f.p.BalanceOf(a)
	require.NoError(t, err)
	return b
}

func (f *fixture) stake(t *testing.T, project, a address.Address) *uint256.Int {
	t.Helper()
	s, err := f.p.InvestmentOf(project, a)
	require.NoError(t, err)
	return s
}

func (f *fixture) eventCount(t *testing.T) int {
	t.Helper()
	events, err := f.p.Events(0, 0)
	require.NoError(t, err)
	return len(events)
}

// requireConserved checks totalSupply == sum of balances over every address
// the fixture knows about.
func (f *fixture) requireConserved(t *testing.T, extra ...address.Address) {
	t.Helper()
	addrs := []address.Address{f.owner, f.issuer, f.admin, f.alice, f.bob, f.carol, f.dave, f.org}
	projects, err := f.p.Projects(f.org)
	require.NoError(t, err)
	addrs = append(addrs, projects...)
	addrs = append(addrs, extra...)

	sum := new(uint256.Int)
	for _, a := range addrs {
		sum.Add(sum, f.balance(t, a))
	}
	supply, err := f.p.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, supply.Dec(), sum.Dec(), "total supply must equal the sum of balances")
}
