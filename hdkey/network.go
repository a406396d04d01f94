package hdkey

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network selects the version bytes an extended key is serialized with. It
// has no influence on derivation.
type Network uint8

const (
	// MainNet selects the xprv/xpub version bytes.
	MainNet Network = iota

	// TestNet selects the tprv/tpub version bytes.
	TestNet
)

// String returns the human readable name of the network.
func (n Network) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(n))
	}
}

// Params returns the chain parameters that carry the network's HD version
// bytes.
func (n Network) Params() *chaincfg.Params {
	if n == TestNet {
		return &chaincfg.TestNet3Params
	}

	return &chaincfg.MainNetParams
}

// PrivateVersion returns the 32-bit version used for private keys.
func (n Network) PrivateVersion() uint32 {
	id := n.Params().HDPrivateKeyID
	return binary.BigEndian.Uint32(id[:])
}

// PublicVersion returns the 32-bit version used for public keys.
func (n Network) PublicVersion() uint32 {
	id := n.Params().HDPublicKeyID
	return binary.BigEndian.Uint32(id[:])
}

// ParseNetwork maps a network name to a Network. Besides the canonical names
// the chaincfg names ("mainnet", "testnet3") are accepted.
func ParseNetwork(name string) (Network, error) {
	switch name {
	case "mainnet", "main", chaincfg.MainNetParams.Name:
		return MainNet, nil
	case "testnet", "test", chaincfg.TestNet3Params.Name:
		return TestNet, nil
	default:
		return 0, fmt.Errorf("unknown network %q", name)
	}
}

// versionInfo resolves serialized version bytes to a network and key type.
func versionInfo(version uint32) (Network, bool, error) {
	for _, net := range []Network{MainNet, TestNet} {
		switch version {
		case net.PrivateVersion():
			return net, true, nil
		case net.PublicVersion():
			return net, false, nil
		}
	}

	return 0, false, fmt.Errorf("%w: %08x", ErrUnknownVersion, version)
}
