package wallet

import (
	"fmt"

	"github.com/coopfund/libcoop-go/address"
)

// NetworkConfig selects the BIP32 parameters and the Base58Check version used
// to display participant addresses.
type NetworkConfig struct {
	Name           string
	AddressVersion byte
	Mainnet        bool
}

// Predefined network configurations.
var (
	MainNet = NetworkConfig{Name: "mainnet", AddressVersion: 0x00, Mainnet: true}
	TestNet = NetworkConfig{Name: "testnet", AddressVersion: 0x6f}
	RegTest = NetworkConfig{Name: "regtest", AddressVersion: 0x6f}
)

// predefined maps network names to their configs.
var predefined = map[string]*NetworkConfig{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
// If the name is not predefined, it returns ErrInvalidNetwork.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// FormatAddress renders a in the network's Base58Check form.
func (n *NetworkConfig) FormatAddress(a address.Address) (string, error) {
	return a.Base58(n.Mainnet)
}
