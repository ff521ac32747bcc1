package platform

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		assert.ErrorIs(t, f.p.Mint(f.alice, f.alice, eur(1)), ErrNotIssuer)
		assert.ErrorIs(t, f.p.Mint(f.owner, f.alice, eur(1)), ErrNotIssuer)
		assert.ErrorIs(t, f.p.Mint(f.issuer, f.dave, eur(1)), ErrWalletNotRegistered)
		assert.ErrorIs(t, f.p.Mint(f.issuer, f.alice, eur(0)), ErrZeroAmount)
		assert.ErrorIs(t, f.p.Mint(f.issuer, f.alice, nil), ErrZeroAmount)

		require.NoError(t, f.p.Mint(f.issuer, f.alice, eur(5)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(10005)))

		supply, err := f.p.TotalSupply()
		require.NoError(t, err)
		assert.True(t, supply.Eq(eur(30005)))
		f.requireConserved(t)
	})
}

func TestMint_Overflow(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		huge := new(uint256.Int).SetAllOne()
		err := f.p.Mint(f.issuer, f.alice, huge)
		assert.ErrorIs(t, err, ErrAmountOverflow)
		assert.True(t, f.balance(t, f.alice).Eq(eur(10000)), "failed mint leaves the balance alone")
		f.requireConserved(t)
	})
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		wantErr error
	}{
		{"zero amount", 0, ErrZeroAmount},
		{"more than balance", 10001, ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachStore(t, func(t *testing.T, f *fixture) {
				err := f.p.Transfer(f.alice, f.bob, eur(tt.amount))
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, f.balance(t, f.alice).Eq(eur(10000)))
				assert.True(t, f.balance(t, f.bob).Eq(eur(10000)))
			})
		})
	}

	forEachStore(t, func(t *testing.T, f *fixture) {
		assert.ErrorIs(t, f.p.Transfer(f.dave, f.alice, eur(1)), ErrWalletNotRegistered)
		assert.ErrorIs(t, f.p.Transfer(f.alice, f.dave, eur(1)), ErrUnregisteredRecipient)

		require.NoError(t, f.p.Transfer(f.alice, f.bob, eur(2500)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(7500)))
		assert.True(t, f.balance(t, f.bob).Eq(eur(12500)))

		// Sending back to the issuer is always allowed.
		require.NoError(t, f.p.Transfer(f.alice, f.issuer, eur(500)))
		assert.True(t, f.balance(t, f.issuer).Eq(eur(500)))

		// Spending the whole balance leaves a zero balance, not an error.
		require.NoError(t, f.p.Transfer(f.carol, f.bob, eur(10000)))
		assert.True(t, f.balance(t, f.carol).IsZero())
		f.requireConserved(t)
	})
}

func TestAllowance(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		err := f.p.Approve(f.alice, f.bob, eur(10))
		assert.ErrorIs(t, err, ErrSpenderNotIssuer)
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.ErrorIs(t, f.p.Approve(f.dave, f.issuer, eur(10)), ErrWalletNotRegistered)

		require.NoError(t, f.p.Approve(f.alice, f.issuer, eur(100)))
		require.NoError(t, f.p.IncreaseAllowance(f.alice, f.issuer, eur(50)))
		require.NoError(t, f.p.DecreaseAllowance(f.alice, f.issuer, eur(30)))

		got, err := f.p.Allowance(f.alice, f.issuer)
		require.NoError(t, err)
		assert.True(t, got.Eq(eur(120)))

		err = f.p.DecreaseAllowance(f.alice, f.issuer, eur(121))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
		assert.ErrorIs(t, f.p.IncreaseAllowance(f.alice, f.issuer, eur(0)), ErrZeroAmount)

		// Approve replaces rather than adds, and zero clears.
		require.NoError(t, f.p.Approve(f.alice, f.issuer, eur(7)))
		got, err = f.p.Allowance(f.alice, f.issuer)
		require.NoError(t, err)
		assert.True(t, got.Eq(eur(7)))
		require.NoError(t, f.p.Approve(f.alice, f.issuer, eur(0)))
		got, err = f.p.Allowance(f.alice, f.issuer)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})
}

func TestBurnFrom(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		assert.ErrorIs(t, f.p.BurnFrom(f.issuer, f.alice, eur(1)), ErrInsufficientAllowance)

		require.NoError(t, f.p.Approve(f.alice, f.issuer, eur(400)))
		assert.ErrorIs(t, f.p.BurnFrom(f.bob, f.alice, eur(1)), ErrNotIssuer)
		assert.ErrorIs(t, f.p.BurnFrom(f.issuer, f.alice, eur(401)), ErrInsufficientAllowance)
		assert.ErrorIs(t, f.p.BurnFrom(f.issuer, f.alice, eur(0)), ErrZeroAmount)

		require.NoError(t, f.p.BurnFrom(f.issuer, f.alice, eur(300)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(9700)))
		left, err := f.p.Allowance(f.alice, f.issuer)
		require.NoError(t, err)
		assert.True(t, left.Eq(eur(100)))

		supply, err := f.p.TotalSupply()
		require.NoError(t, err)
		assert.True(t, supply.Eq(eur(29700)))
		f.requireConserved(t)
	})
}

func TestBurnFrom_AllowanceAboveBalance(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		require.NoError(t, f.p.Approve(f.alice, f.issuer, eur(20000)))
		err := f.p.BurnFrom(f.issuer, f.alice, eur(15000))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		left, err := f.p.Allowance(f.alice, f.issuer)
		require.NoError(t, err)
		assert.True(t, left.Eq(eur(20000)), "a failed burn does not consume allowance")
		f.requireConserved(t)
	})
}
