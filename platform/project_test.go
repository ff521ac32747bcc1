package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopfund/libcoop-go/address"
)

// ---------------------------------------------------------------------------
// Invest
// ---------------------------------------------------------------------------

func TestInvest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, project address.Address)
		amount  uint64
		wantErr error
	}{
		{"zero amount", nil, 0, ErrZeroAmount},
		{"below minimum", nil, 999, ErrBelowMinimum},
		{"above maximum", nil, 3001, ErrAboveMaximum},
		{
			"insufficient balance",
			func(t *testing.T, f *fixture, _ address.Address) {
				require.NoError(t, f.p.Transfer(f.alice, f.bob, eur(9500)))
			},
			1000, ErrInsufficientBalance,
		},
		{
			"top-up above maximum",
			func(t *testing.T, f *fixture, project address.Address) {
				require.NoError(t, f.p.Invest(f.alice, project, eur(2500)))
			},
			1000, ErrAboveMaximum,
		},
		{
			"cap exceeded",
			func(t *testing.T, f *fixture, project address.Address) {
				require.NoError(t, f.p.Invest(f.bob, project, eur(3000)))
			},
			2500, ErrCapExceeded,
		},
		{
			"already funded",
			func(t *testing.T, f *fixture, project address.Address) {
				require.NoError(t, f.p.Invest(f.bob, project, eur(3000)))
				require.NoError(t, f.p.Invest(f.carol, project, eur(2000)))
			},
			1000, ErrProjectFunded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachStore(t, func(t *testing.T, f *fixture) {
				project := f.project(t, smallProject())
				if tt.prepare != nil {
					tt.prepare(t, f, project)
				}
				balance := f.balance(t, f.alice)
				stake := f.stake(t, project, f.alice)
				events := f.eventCount(t)

				err := f.p.Invest(f.alice, project, eur(tt.amount))
				assert.ErrorIs(t, err, tt.wantErr)

				assert.True(t, f.balance(t, f.alice).Eq(balance), "balance unchanged")
				assert.True(t, f.stake(t, project, f.alice).Eq(stake), "stake unchanged")
				assert.Equal(t, events, f.eventCount(t), "no events")
			})
		})
	}
}

func TestInvest_Registration(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		assert.ErrorIs(t, f.p.Invest(f.dave, project, eur(1000)), ErrWalletNotRegistered)
		assert.ErrorIs(t, f.p.Invest(f.alice, f.dave, eur(1000)), ErrProjectNotFound)
		assert.ErrorIs(t, f.p.Invest(f.alice, f.dave, eur(1000)), ErrNotFound)
	})
}

func TestInvest_FundsAtCap(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		require.NoError(t, f.p.Invest(f.alice, project, eur(1000)))
		require.NoError(t, f.p.Invest(f.alice, project, eur(500)))
		require.NoError(t, f.p.Invest(f.bob, project, eur(3000)))

		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateOpen, pr.State)
		assert.True(t, pr.TotalInvested.Eq(eur(4500)))

		require.NoError(t, f.p.Invest(f.alice, project, eur(500)))
		pr, err = f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateFunded, pr.State)
		assert.True(t, pr.TotalInvested.Eq(pr.InvestmentCap))
		assert.Equal(t, uint64(2), pr.Investors)

		assert.True(t, f.stake(t, project, f.alice).Eq(eur(2000)))
		assert.True(t, f.stake(t, project, f.bob).Eq(eur(3000)))
		assert.True(t, f.balance(t, project).Eq(eur(5000)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(8000)))

		investors, err := f.p.Investors(project)
		require.NoError(t, err)
		assert.Equal(t, []address.Address{f.alice, f.bob}, investors)
		f.requireConserved(t)
	})
}

// ---------------------------------------------------------------------------
// CancelInvestment
// ---------------------------------------------------------------------------

func TestCancelInvestment(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		require.NoError(t, f.p.Invest(f.alice, project, eur(2000)))

		assert.ErrorIs(t, f.p.CancelInvestment(f.alice, project, eur(0)), ErrZeroAmount)
		assert.ErrorIs(t, f.p.CancelInvestment(f.alice, project, eur(2001)), ErrInsufficientStake)
		assert.ErrorIs(t, f.p.CancelInvestment(f.bob, project, eur(1)), ErrInsufficientStake)
		assert.ErrorIs(t, f.p.CancelInvestment(f.alice, project, eur(1500)), ErrBelowMinimumAfterCancel)

		require.NoError(t, f.p.CancelInvestment(f.alice, project, eur(500)))
		assert.True(t, f.stake(t, project, f.alice).Eq(eur(1500)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(8500)))

		// Cancelling everything is always allowed.
		require.NoError(t, f.p.CancelInvestment(f.alice, project, eur(1500)))
		assert.True(t, f.stake(t, project, f.alice).IsZero())
		assert.True(t, f.balance(t, f.alice).Eq(eur(10000)))

		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.True(t, pr.TotalInvested.IsZero())

		// A returning investor keeps the payout position and faces the
		// minimum again.
		assert.ErrorIs(t, f.p.Invest(f.alice, project, eur(500)), ErrBelowMinimum)
		require.NoError(t, f.p.Invest(f.alice, project, eur(1000)))
		investors, err := f.p.Investors(project)
		require.NoError(t, err)
		assert.Equal(t, []address.Address{f.alice}, investors)
		f.requireConserved(t)
	})
}

func TestCancelInvestment_NotOpen(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.fundedProject(t)
		err := f.p.CancelInvestment(f.alice, project, eur(1000))
		assert.ErrorIs(t, err, ErrProjectNotOpen)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestCancelInvestment_ExpiryOnlyPolicy(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.False(t, pr.CancelEnabled)

		require.NoError(t, f.p.Invest(f.alice, project, eur(2000)))
		assert.ErrorIs(t, f.p.CancelInvestment(f.alice, project, eur(2000)), ErrCancelDisabled)
	}, WithCancelPolicy(CancelExpiryOnly))
}

// ---------------------------------------------------------------------------
// Expiry
// ---------------------------------------------------------------------------

func TestExpiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		cfg := smallProject()
		cfg.EndTime = epoch.Add(24 * time.Hour)
		project := f.project(t, cfg)
		require.NoError(t, f.p.Invest(f.alice, project, eur(2000)))

		_, err := f.p.WithdrawInvestment(f.alice, project)
		assert.ErrorIs(t, err, ErrProjectNotExpired)

		f.clock.Advance(24*time.Hour - time.Nanosecond)
		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateOpen, pr.State)

		f.clock.Advance(time.Nanosecond)
		pr, err = f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateExpired, pr.State, "the deadline itself is past")

		assert.ErrorIs(t, f.p.Invest(f.bob, project, eur(1000)), ErrFundingExpired)
		assert.ErrorIs(t, f.p.CancelInvestment(f.alice, project, eur(2000)), ErrProjectNotOpen)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.bob, eur(1000)), ErrFundingExpired)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.admin, project, f.admin, eur(1)), ErrProjectNotFunded)
		_, err = f.p.StartRevenuePayout(f.issuer, project, eur(1))
		assert.ErrorIs(t, err, ErrProjectNotFunded)

		_, err = f.p.WithdrawInvestment(f.bob, project)
		assert.ErrorIs(t, err, ErrInsufficientStake)

		refund, err := f.p.WithdrawInvestment(f.alice, project)
		require.NoError(t, err)
		assert.True(t, refund.Eq(eur(2000)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(10000)))
		assert.True(t, f.balance(t, project).IsZero())

		_, err = f.p.WithdrawInvestment(f.alice, project)
		assert.ErrorIs(t, err, ErrInsufficientStake, "refunds are paid once")
		f.requireConserved(t)
	})
}

func TestExpiry_FundedProjectsStayFunded(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		cfg := smallProject()
		cfg.EndTime = epoch.Add(time.Hour)
		project := f.project(t, cfg)
		require.NoError(t, f.p.Invest(f.alice, project, eur(3000)))
		require.NoError(t, f.p.Invest(f.bob, project, eur(2000)))

		f.clock.Advance(48 * time.Hour)
		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateFunded, pr.State)
		require.NoError(t, f.p.WithdrawFunds(f.admin, project, f.admin, eur(100)))
	})
}

func TestExpiry_NoDeadline(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		f.clock.Advance(10 * 365 * 24 * time.Hour)
		require.NoError(t, f.p.Invest(f.alice, project, eur(1000)))
	})
}

// ---------------------------------------------------------------------------
// WithdrawFunds
// ---------------------------------------------------------------------------

func TestWithdrawFunds(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		open := f.project(t, smallProject())
		require.NoError(t, f.p.Invest(f.alice, open, eur(1000)))

		// Authorization is checked before state.
		assert.ErrorIs(t, f.p.WithdrawFunds(f.alice, open, f.alice, eur(1)), ErrNotAdmin)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.admin, open, f.admin, eur(1)), ErrProjectNotFunded)

		project := f.fundedProject(t)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.bob, project, f.bob, eur(1)), ErrNotAuthorized)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.admin, project, f.dave, eur(1)), ErrUnregisteredRecipient)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.admin, project, f.admin, eur(0)), ErrZeroAmount)
		assert.ErrorIs(t, f.p.WithdrawFunds(f.admin, project, f.admin, eur(5001)), ErrInsufficientBalance)

		require.NoError(t, f.p.WithdrawFunds(f.admin, project, f.admin, eur(2000)))
		require.NoError(t, f.p.WithdrawFunds(f.admin, project, f.issuer, eur(3000)))
		assert.True(t, f.balance(t, project).IsZero())
		assert.True(t, f.balance(t, f.admin).Eq(eur(2000)))
		assert.True(t, f.balance(t, f.issuer).Eq(eur(3000)))

		// Withdrawals never touch stakes.
		assert.True(t, f.stake(t, project, f.alice).Eq(eur(3000)))
		f.requireConserved(t)
	})
}

// ---------------------------------------------------------------------------
// TransferOwnership
// ---------------------------------------------------------------------------

func TestTransferOwnership(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.fundedProject(t)

		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.dave, eur(1)), ErrUnregisteredRecipient)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.alice, eur(1)), ErrSelfTransfer)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.carol, eur(0)), ErrZeroAmount)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.carol, eur(3001)), ErrInsufficientStake)
		assert.ErrorIs(t, f.p.TransferOwnership(f.carol, project, f.alice, eur(1)), ErrInsufficientStake)

		require.NoError(t, f.p.TransferOwnership(f.alice, project, f.carol, eur(500)))
		require.NoError(t, f.p.TransferOwnership(f.alice, project, f.bob, eur(2500)))

		assert.True(t, f.stake(t, project, f.alice).IsZero())
		assert.True(t, f.stake(t, project, f.bob).Eq(eur(4500)), "bounds are not checked by default")
		assert.True(t, f.stake(t, project, f.carol).Eq(eur(500)))

		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.True(t, pr.TotalInvested.Eq(eur(5000)))
		assert.True(t, f.balance(t, project).Eq(eur(5000)), "tokens stay in the project")

		investors, err := f.p.Investors(project)
		require.NoError(t, err)
		assert.Equal(t, []address.Address{f.alice, f.bob, f.carol}, investors)
		f.requireConserved(t)
	})
}

func TestTransferOwnership_WhileOpen(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		require.NoError(t, f.p.Invest(f.alice, project, eur(2000)))
		require.NoError(t, f.p.TransferOwnership(f.alice, project, f.bob, eur(1000)))

		// The recipient is now an investor and tops up under the usual bounds.
		assert.ErrorIs(t, f.p.Invest(f.bob, project, eur(2500)), ErrAboveMaximum)
		require.NoError(t, f.p.Invest(f.bob, project, eur(2000)))
		assert.True(t, f.stake(t, project, f.bob).Eq(eur(3000)))
	})
}

func TestTransferOwnership_RecipientBounds(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.fundedProject(t)

		err := f.p.TransferOwnership(f.alice, project, f.carol, eur(500))
		assert.ErrorIs(t, err, ErrRecipientOutOfBounds)
		assert.ErrorIs(t, err, ErrBoundsViolation)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, project, f.bob, eur(1500)), ErrRecipientOutOfBounds)

		require.NoError(t, f.p.TransferOwnership(f.alice, project, f.carol, eur(1000)))
		require.NoError(t, f.p.TransferOwnership(f.alice, project, f.bob, eur(1000)))
		assert.True(t, f.stake(t, project, f.bob).Eq(eur(3000)))
	}, WithRecipientBoundsCheck(true))
}

// ---------------------------------------------------------------------------
// Atomicity
// ---------------------------------------------------------------------------

func TestFailedOperationsLeaveNoTrace(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		cfg := smallProject()
		cfg.EndTime = epoch.Add(time.Hour)
		project := f.project(t, cfg)
		require.NoError(t, f.p.Invest(f.alice, project, eur(2000)))
		f.clock.Advance(2 * time.Hour)

		watched := []address.Address{f.alice, f.bob, f.carol, f.admin, f.issuer, f.org, project}
		before := make(map[address.Address]string, len(watched))
		for _, a := range watched {
			before[a] = f.balance(t, a).Dec()
		}
		events := f.eventCount(t)
		sunk := len(f.sink.kinds())

		failures := []error{
			f.p.Invest(f.bob, project, eur(1000)),
			f.p.Transfer(f.alice, f.dave, eur(1)),
			f.p.Mint(f.alice, f.alice, eur(1)),
			f.p.BurnFrom(f.issuer, f.alice, eur(1)),
			f.p.CancelInvestment(f.alice, project, eur(1)),
			f.p.TransferOwnership(f.alice, project, f.bob, eur(1)),
			f.p.WithdrawFunds(f.admin, project, f.admin, eur(1)),
			f.p.AddMember(f.alice, f.org, f.bob),
			f.p.AddWallet(f.alice, f.dave),
		}
		for i, err := range failures {
			assert.Error(t, err, "operation %d", i)
		}

		for _, a := range watched {
			assert.Equal(t, before[a], f.balance(t, a).Dec(), "balance of %s", a)
		}
		assert.Equal(t, events, f.eventCount(t))
		assert.Equal(t, sunk, len(f.sink.kinds()))
		f.requireConserved(t)
	})
}

// ---------------------------------------------------------------------------
// Entity wallets
// ---------------------------------------------------------------------------

func TestEntityWalletsCannotActAsParticipants(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		project := f.project(t, smallProject())
		require.NoError(t, f.p.Invest(f.alice, project, eur(3000)))

		// A project cannot invest its own custody into itself.
		err := f.p.Invest(project, project, eur(1000))
		assert.ErrorIs(t, err, ErrEntityWallet)
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.True(t, f.stake(t, project, project).IsZero())
		pr, err := f.p.Project(project)
		require.NoError(t, err)
		assert.Equal(t, StateOpen, pr.State)
		assert.True(t, pr.TotalInvested.Eq(eur(3000)))

		// Nor can its custody be drained while investors may still cancel.
		assert.ErrorIs(t, f.p.Transfer(project, f.bob, eur(3000)), ErrEntityWallet)
		assert.ErrorIs(t, f.p.Approve(project, f.issuer, eur(3000)), ErrEntityWallet)
		require.NoError(t, f.p.CancelInvestment(f.alice, project, eur(3000)))
		assert.True(t, f.balance(t, f.alice).Eq(eur(10000)))

		// Organization funds only leave through the admin.
		funded := f.fundedProject(t)
		require.NoError(t, f.p.WithdrawFunds(f.admin, funded, f.org, eur(1000)))
		assert.ErrorIs(t, f.p.Transfer(f.org, f.bob, eur(1000)), ErrEntityWallet)
		assert.ErrorIs(t, f.p.IncreaseAllowance(f.org, f.issuer, eur(1000)), ErrEntityWallet)
		_, err = f.p.AddOrganization(f.org, "Shell")
		assert.ErrorIs(t, err, ErrEntityWallet)
		assert.True(t, f.balance(t, f.org).Eq(eur(1000)))
		require.NoError(t, f.p.WithdrawOrganizationFunds(f.admin, f.org, f.bob, eur(1000)))

		// Entity wallets hold no stakes and join no organizations.
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, funded, f.org, eur(1000)), ErrEntityWallet)
		assert.ErrorIs(t, f.p.TransferOwnership(f.alice, funded, project, eur(1000)), ErrEntityWallet)
		assert.ErrorIs(t, f.p.AddMember(f.admin, f.org, project), ErrEntityWallet)
		f.requireConserved(t)
	})
}
