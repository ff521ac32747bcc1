package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/coopfund/libcoop-go/address"
)

const (
	// BIP44 path constants.
	PurposeBIP44       = 44
	CoinTypeLedger     = 236
	AuthorityAccount   = 0
	ParticipantAccount = 1

	// ExternalChain is the only chain used for identity keys.
	ExternalChain = 0

	// MaxIdentityIndex is the largest non-hardened child index.
	MaxIdentityIndex = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Role is a privileged identity of the ledger.
type Role uint32

const (
	// RoleOwner administers the wallet registry and verifies organizations.
	RoleOwner Role = iota
	// RoleIssuer mints and burns tokens and starts revenue payouts.
	RoleIssuer
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleIssuer:
		return "issuer"
	default:
		return fmt.Sprintf("Role(%d)", uint32(r))
	}
}

// Wallet is an HD wallet holding the ledger's role keys and participant
// identities.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Path       string // Human-readable derivation path
}

// Address returns the ledger address of the key pair.
func (kp *KeyPair) Address() (address.Address, error) {
	return address.FromPublicKey(kp.PublicKey)
}

// NewWallet creates a new Wallet from a BIP39 seed.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	net := &chaincfg.TestNet
	if network.Mainnet {
		net = &chaincfg.MainNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Wallet{
		masterKey: masterKey,
		network:   network,
	}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// DeriveRoleKey derives the key of a privileged role.
//
//	Path: m/44'/236'/0'/0/role
func (w *Wallet) DeriveRoleKey(role Role) (*KeyPair, error) {
	if role != RoleOwner && role != RoleIssuer {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint32(role))
	}
	return w.deriveChild(AuthorityAccount, uint32(role))
}

// DeriveIdentityKey derives the key of participant identity index.
//
//	Path: m/44'/236'/1'/0/index
func (w *Wallet) DeriveIdentityKey(index uint32) (*KeyPair, error) {
	if index > MaxIdentityIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return w.deriveChild(ParticipantAccount, index)
}

// RoleAddress derives the ledger address of a privileged role.
func (w *Wallet) RoleAddress(role Role) (address.Address, error) {
	kp, err := w.DeriveRoleKey(role)
	if err != nil {
		return address.Zero, err
	}
	return kp.Address()
}

// deriveChild derives m/44'/236'/account'/0/index.
func (w *Wallet) deriveChild(account, index uint32) (*KeyPair, error) {
	// m/44'
	purpose, err := w.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/236'
	coinType, err := purpose.Child(CoinTypeLedger + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/236'/account'
	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}

	chainKey, err := accountKey.Child(ExternalChain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}

	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/%d'/%d'/%d/%d", CoinTypeLedger, account, ExternalChain, index))
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
