package settlement

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// AddressValidator checks a deposit address before it is sent to the explorer.
type AddressValidator func(address string) error

// NetworkParams maps a configured network name to its chain parameters.
// testnet4 shares address encodings with testnet3.
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3", "testnet4":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

// NewAddressValidator returns a validator for network, or nil when network is
// empty (validation disabled).
func NewAddressValidator(network string) (AddressValidator, error) {
	if strings.TrimSpace(network) == "" {
		return nil, nil
	}
	params, err := NetworkParams(network)
	if err != nil {
		return nil, err
	}
	return func(address string) error {
		addr, err := btcutil.DecodeAddress(address, params)
		if err != nil {
			return fmt.Errorf("decode address %q: %w", address, err)
		}
		if !addr.IsForNet(params) {
			return fmt.Errorf("address %q is not for %s", address, params.Name)
		}
		return nil
	}, nil
}
