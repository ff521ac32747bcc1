package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/config"
	"github.com/coopfund/libcoop-go/wallet"
)

// IdentityBookFileName is the identity book inside the data directory.
const IdentityBookFileName = "identities.json"

// custody holds the HD wallet that owns the platform roles and the book of
// participant identities derived from it.
type custody struct {
	mu   sync.Mutex
	keys *wallet.Wallet
	book *wallet.Book
	path string
}

func withCustody(c *custody) Option {
	return func(p *Platform) { p.custody = c }
}

// ErrWalletExists is returned by InitWallet when the data directory already
// holds a seed.
var ErrWalletExists = errors.New("platform: wallet already initialized")

// InitWallet stores the seed of mnemonic in cfg.DataDir encrypted under
// password. An empty mnemonic generates a fresh 24-word one. The mnemonic in
// use is returned so the caller can show it for backup.
func InitWallet(cfg config.Config, mnemonic, password string) (string, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, wallet.SeedFileName)); err == nil {
		return "", fmt.Errorf("%w: %s", ErrWalletExists, cfg.DataDir)
	}
	if mnemonic == "" {
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(wallet.Mnemonic24Words); err != nil {
			return "", err
		}
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return "", err
	}
	if err := wallet.SaveSeed(cfg.DataDir, seed, password); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// OpenWithWallet decrypts the seed stored in cfg.DataDir with password and
// opens the platform whose owner and issuer are the wallet's role keys.
// Participant identities enrolled through the returned platform are kept in
// the identity book next to the ledger.
func OpenWithWallet(cfg config.Config, password string, opts ...Option) (*Platform, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	network, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	seed, err := wallet.LoadSeed(cfg.DataDir, password)
	if err != nil {
		return nil, fmt.Errorf("platform: load wallet: %w", err)
	}
	keys, err := wallet.NewWallet(seed, network)
	if err != nil {
		return nil, fmt.Errorf("platform: create wallet: %w", err)
	}
	owner, err := keys.RoleAddress(wallet.RoleOwner)
	if err != nil {
		return nil, err
	}
	issuer, err := keys.RoleAddress(wallet.RoleIssuer)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(cfg.DataDir, IdentityBookFileName)
	book, err := wallet.LoadBook(path)
	if err != nil {
		return nil, fmt.Errorf("platform: load identities: %w", err)
	}
	c := &custody{keys: keys, book: book, path: path}
	return Open(cfg, owner, issuer, append([]Option{withCustody(c)}, opts...)...)
}

// Enroll derives a new participant identity called name, registers its
// address as the owner and records it in the identity book.
func (p *Platform) Enroll(name string) (address.Address, error) {
	c := p.custody
	if c == nil {
		return address.Zero, ErrNoWallet
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := wallet.Book{Identities: slices.Clone(c.book.Identities), NextIndex: c.book.NextIndex}
	a, err := p.enroll(c, name)
	if err != nil {
		*c.book = prev
		return address.Zero, err
	}
	if err := c.book.Save(c.path); err != nil {
		return a, fmt.Errorf("platform: enroll %q: %w", name, err)
	}
	p.log.Info("identity enrolled", zap.String("name", name), zap.Stringer("wallet", a))
	return a, nil
}

func (p *Platform) enroll(c *custody, name string) (address.Address, error) {
	if _, err := c.book.CreateIdentity(name); err != nil {
		return address.Zero, err
	}
	a, err := c.keys.IdentityAddress(c.book, name)
	if err != nil {
		return address.Zero, err
	}
	if err := p.AddWallet(p.owner, a); err != nil {
		return address.Zero, err
	}
	return a, nil
}

// IdentityAddress resolves an enrolled participant name to its address.
func (p *Platform) IdentityAddress(name string) (address.Address, error) {
	c := p.custody
	if c == nil {
		return address.Zero, ErrNoWallet
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.IdentityAddress(c.book, name)
}

// Identities lists the enrolled participant identities.
func (p *Platform) Identities() []wallet.Identity {
	c := p.custody
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.book.List()
}
