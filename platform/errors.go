package platform

// Kind is the abstract category of a rejected operation. Callers branch on
// kinds with errors.Is(err, ErrBoundsViolation) and on specific reasons with
// errors.Is(err, ErrBelowMinimum).
type Kind string

const (
	KindNotAuthorized     Kind = "not authorized"
	KindNotRegistered     Kind = "not registered"
	KindInvalidState      Kind = "invalid state"
	KindBoundsViolation   Kind = "bounds violation"
	KindInsufficientFunds Kind = "insufficient funds"
	KindZeroAmount        Kind = "zero amount"
	KindNotFound          Kind = "not found"
	KindInvalidArgument   Kind = "invalid argument"
)

// Error is a rejected operation. A kind sentinel has no reason and matches
// every Error of that kind; a reason sentinel matches only itself.
type Error struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Reason == "" {
		return "platform: " + string(e.Kind)
	}
	return "platform: " + e.Reason
}

// Is lets errors.Is match a reason against its kind sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return e.Kind == t.Kind
	}
	return e == t
}

func kind(k Kind) *Error { return &Error{Kind: k} }

func reason(k Kind, r string) *Error { return &Error{Kind: k, Reason: r} }

// Kind sentinels.
var (
	ErrNotAuthorized     = kind(KindNotAuthorized)
	ErrNotRegistered     = kind(KindNotRegistered)
	ErrInvalidState      = kind(KindInvalidState)
	ErrBoundsViolation   = kind(KindBoundsViolation)
	ErrInsufficientFunds = kind(KindInsufficientFunds)
	ErrNotFound          = kind(KindNotFound)
	ErrInvalidArgument   = kind(KindInvalidArgument)

	// ErrZeroAmount is both a kind and the reason for a zero amount.
	ErrZeroAmount = kind(KindZeroAmount)
)

// Authorization failures.
var (
	ErrNotOwner          = reason(KindNotAuthorized, "caller is not the registry owner")
	ErrNotIssuer         = reason(KindNotAuthorized, "caller is not the token issuer")
	ErrNotAdmin          = reason(KindNotAuthorized, "caller is not the organization admin")
	ErrNotPayoutOperator = reason(KindNotAuthorized, "caller may not run revenue payouts")
	ErrSpenderNotIssuer  = reason(KindNotAuthorized, "allowances may only be granted to the issuer")
	ErrIdentityMismatch  = reason(KindNotAuthorized, "store belongs to a different owner or issuer")
	ErrEntityWallet      = reason(KindNotAuthorized, "organization and project wallets cannot act as participants")
)

// Registration failures.
var (
	ErrWalletNotRegistered   = reason(KindNotRegistered, "wallet is not registered")
	ErrUnregisteredRecipient = reason(KindNotRegistered, "recipient is not registered")
)

// Lifecycle failures.
var (
	ErrOrganizationNotVerified = reason(KindInvalidState, "organization is not verified")
	ErrFundingExpired          = reason(KindInvalidState, "project funding has expired")
	ErrProjectFunded           = reason(KindInvalidState, "project is already funded")
	ErrProjectNotFunded        = reason(KindInvalidState, "project is not funded")
	ErrProjectNotOpen          = reason(KindInvalidState, "project is not open")
	ErrProjectNotExpired       = reason(KindInvalidState, "project has not expired")
	ErrCancelDisabled          = reason(KindInvalidState, "investment cancellation is disabled")
	ErrPayoutInProgress        = reason(KindInvalidState, "a revenue payout is in progress")
	ErrNoPayoutRound           = reason(KindInvalidState, "no revenue payout has been started")
	ErrNoWallet                = reason(KindInvalidState, "platform was opened without a wallet")
)

// Bounds failures.
var (
	ErrBelowMinimum            = reason(KindBoundsViolation, "investment below minimum per user")
	ErrAboveMaximum            = reason(KindBoundsViolation, "investment above maximum per user")
	ErrCapExceeded             = reason(KindBoundsViolation, "investment exceeds project cap")
	ErrBelowMinimumAfterCancel = reason(KindBoundsViolation, "remaining investment below minimum per user")
	ErrRecipientOutOfBounds    = reason(KindBoundsViolation, "recipient stake outside per user bounds")
	ErrInvalidProjectConfig    = reason(KindBoundsViolation, "invalid project configuration")
	ErrAmountOverflow          = reason(KindBoundsViolation, "amount overflows 256 bits")
)

// Funds failures.
var (
	ErrInsufficientBalance   = reason(KindInsufficientFunds, "insufficient balance")
	ErrInsufficientAllowance = reason(KindInsufficientFunds, "insufficient allowance")
	ErrInsufficientStake     = reason(KindInsufficientFunds, "insufficient stake")
)

// Lookup failures.
var (
	ErrOrganizationNotFound = reason(KindNotFound, "organization not found")
	ErrProjectNotFound      = reason(KindNotFound, "project not found")
)

// Argument failures.
var (
	ErrZeroAddress  = reason(KindInvalidArgument, "zero address")
	ErrSelfTransfer = reason(KindInvalidArgument, "sender and recipient are the same")
)
