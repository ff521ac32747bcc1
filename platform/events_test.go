package platform

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopfund/libcoop-go/store"
)

func TestEvents_Log(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		all, err := f.p.Events(0, 0)
		require.NoError(t, err)
		// 4 wallets, organization added and approved, 3 mints.
		require.Len(t, all, 9)

		ids := make(map[uuid.UUID]bool)
		for i, e := range all {
			assert.Equal(t, uint64(i+1), e.Seq)
			assert.NotEqual(t, uuid.Nil, e.ID)
			assert.False(t, ids[e.ID], "duplicate event id")
			ids[e.ID] = true
			assert.True(t, epoch.Equal(e.Time))
		}
		assert.Equal(t, EventWalletAdded, all[0].Kind)
		assert.Equal(t, EventOrganizationAdded, all[4].Kind)
		assert.Equal(t, EventOrganizationApproved, all[5].Kind)

		mint := all[6]
		assert.Equal(t, EventTokensMinted, mint.Kind)
		assert.Equal(t, f.alice, mint.Subject)
		assert.Equal(t, f.issuer, mint.Counterparty)
		assert.True(t, mint.Amount.Eq(eur(10000)))

		// The log matches what the sink saw.
		assert.Equal(t, f.sink.kinds(), kindsOf(all))
	})
}

func TestEvents_AfterAndLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		page, err := f.p.Events(3, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, uint64(4), page[0].Seq)
		assert.Equal(t, uint64(5), page[1].Seq)

		rest, err := f.p.Events(7, 100)
		require.NoError(t, err)
		assert.Len(t, rest, 2)

		none, err := f.p.Events(9, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestEvents_TimeFollowsClock(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		f.clock.Advance(90 * time.Minute)
		require.NoError(t, f.p.Transfer(f.alice, f.bob, eur(1)))

		last, err := f.p.Events(9, 0)
		require.NoError(t, err)
		require.Len(t, last, 1)
		assert.Equal(t, EventTokensTransferred, last[0].Kind)
		assert.True(t, epoch.Add(90*time.Minute).Equal(last[0].Time))
	})
}

func TestEvents_SinksSeeCommittedState(t *testing.T) {
	st := store.NewMemStore()
	var (
		p    *Platform
		seen []string
	)
	sink := EventSinkFunc(func(e Event) {
		if e.Kind != EventTokensMinted {
			return
		}
		// Reading from inside the sink works because dispatch runs after
		// the transaction has been released.
		bal, err := p.BalanceOf(e.Subject)
		if err != nil {
			t.Errorf("BalanceOf in sink: %v", err)
			return
		}
		seen = append(seen, bal.Dec())
	})

	var err error
	p, err = New(st, addr(1), addr(2), WithSinks(sink))
	require.NoError(t, err)
	require.NoError(t, p.AddWallet(addr(1), addr(3)))
	require.NoError(t, p.Mint(addr(2), addr(3), uint256.NewInt(5)))
	require.NoError(t, p.Mint(addr(2), addr(3), uint256.NewInt(6)))
	assert.Error(t, p.Mint(addr(2), addr(4), uint256.NewInt(7)))

	assert.Equal(t, []string{"5", "11"}, seen)
}

func TestEvents_SurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), LedgerFileName)
	st, err := store.OpenBoltStore(path)
	require.NoError(t, err)
	p, err := New(st, addr(1), addr(2))
	require.NoError(t, err)
	require.NoError(t, p.AddWallet(addr(1), addr(3)))
	require.NoError(t, p.Close())

	st, err = store.OpenBoltStore(path)
	require.NoError(t, err)
	p, err = New(st, addr(1), addr(2))
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.AddWallet(addr(1), addr(4)))

	events, err := p.Events(0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, addr(4), events[1].Subject)
}

func kindsOf(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestEvents_AfterLastPossibleSeq(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		events, err := f.p.Events(math.MaxUint64, 0)
		require.NoError(t, err)
		assert.Empty(t, events)

		events, err = f.p.Events(math.MaxUint64-1, 0)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
