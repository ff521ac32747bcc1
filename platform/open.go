package platform

import (
	"fmt"
	"path/filepath"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/config"
	"github.com/coopfund/libcoop-go/logging"
	"github.com/coopfund/libcoop-go/revshare"
	"github.com/coopfund/libcoop-go/store"
	"github.com/coopfund/libcoop-go/wallet"
)

// LedgerFileName is the bbolt database inside the data directory.
const LedgerFileName = "ledger.db"

// Open validates cfg and opens the platform stored in cfg.DataDir, building
// the logger and policies from the configuration. Extra options are applied
// after the configured ones.
func Open(cfg config.Config, owner, issuer address.Address, opts ...Option) (*Platform, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	network, err := wallet.GetNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	cancel, err := ParseCancelPolicy(cfg.CancelPolicy)
	if err != nil {
		return nil, err
	}
	dust, err := revshare.ParseDustPolicy(cfg.DustPolicy)
	if err != nil {
		return nil, err
	}

	output := cfg.LogFile
	if output == "" {
		output = "stderr"
	}
	logger, closeLog, err := logging.New(logging.Config{Level: cfg.LogLevel, Output: output})
	if err != nil {
		return nil, err
	}
	logger = logger.Named(network.Name)

	st, err := store.OpenBoltStore(filepath.Join(cfg.DataDir, LedgerFileName))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("platform: open store: %w", err)
	}

	base := []Option{
		WithLogger(logger),
		WithNetwork(network),
		WithBatchSize(uint64(cfg.PayoutBatchSize)),
		WithCancelPolicy(cancel),
		WithDustPolicy(dust),
		WithRecipientBoundsCheck(cfg.RecipientBoundsCheck),
	}
	p, err := New(st, owner, issuer, append(base, opts...)...)
	if err != nil {
		_ = st.Close()
		closeLog()
		return nil, err
	}
	p.closeLog = closeLog
	return p, nil
}

// FormatAddress renders a in the Base58Check form of the configured
// network, falling back to hex for platforms built without one.
func (p *Platform) FormatAddress(a address.Address) string {
	if p.network == nil {
		return a.String()
	}
	s, err := p.network.FormatAddress(a)
	if err != nil {
		return a.String()
	}
	return s
}
