package keychain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/lightningnetwork/hdkey/hdkey"
)

const (
	// BIP0044Purpose is the "purpose" value of the BIP-44 hierarchy. All
	// keys handed out by a key ring are derived below this purpose, then
	// the particular coin type of the chain the keys are used on.
	BIP0044Purpose uint32 = 44

	// CoinTypeBitcoin specifies the BIP44 coin type for Bitcoin key
	// derivation.
	CoinTypeBitcoin uint32 = 0

	// CoinTypeTestnet specifies the BIP44 coin type for all testnet key
	// derivation.
	CoinTypeTestnet uint32 = 1
)

var (
	// MaxKeyRangeScan is the maximum number of keys that we'll attempt to
	// scan with if a caller knows the public key, but not the KeyLocator
	// and wishes to derive a private key.
	MaxKeyRangeScan = 100000

	// ErrCannotDerivePrivKey is returned when DerivePrivKey is unable to
	// derive a private key given only the public key and target key
	// family.
	ErrCannotDerivePrivKey = errors.New("unable to derive private key")

	// ErrInvalidFamily is returned for key families that do not fit in a
	// hardened index.
	ErrInvalidFamily = errors.New("key family out of range")

	// ErrFamilyExhausted is returned by DeriveNextKey once every normal
	// index of a branch has been handed out.
	ErrFamilyExhausted = errors.New("no unused index left in key family")

	// ErrUnknownFamily is returned by a watch-only ring for key families
	// it holds no account key for.
	ErrUnknownFamily = errors.New("no account key for key family")
)

// KeyScope is the purpose and coin type pair that roots the hierarchy of a
// key ring:
//
//   - m/purpose'/coinType'
type KeyScope struct {
	// Purpose is the BIP-43 purpose of the hierarchy.
	Purpose uint32

	// Coin is the BIP-44 coin type of the chain.
	Coin uint32
}

// String returns the path of the scope root.
func (k KeyScope) String() string {
	return k.path().String()
}

// path returns the derivation path of the scope root.
func (k KeyScope) path() hdkey.Path {
	return hdkey.Path{
		hdkey.HardenedIndex(k.Purpose), hdkey.HardenedIndex(k.Coin),
	}
}

// DefaultScope returns the BIP-44 scope for the given network.
func DefaultScope(net hdkey.Network) KeyScope {
	coin := CoinTypeBitcoin
	if net == hdkey.TestNet {
		coin = CoinTypeTestnet
	}

	return KeyScope{
		Purpose: BIP0044Purpose,
		Coin:    coin,
	}
}

// KeyFamily represents a "family" of keys. Families are the accounts of
// BIP-44: each one is a distinct hardened branch of the key tree, so
// exporting the extended public key of one family reveals nothing about the
// others.
//
// The key derivation in this package follows the following hierarchy:
//
//   - m/purpose'/coinType'/keyFamily'/branch/index
type KeyFamily uint32

// Branch selects the chain within a key family.
type Branch uint32

const (
	// ExternalBranch is the chain of keys handed out to others, such as
	// receive addresses.
	ExternalBranch Branch = 0

	// InternalBranch is the chain of keys used internally, such as
	// change addresses.
	InternalBranch Branch = 1
)

// KeyLocator is a three-tuple that can be used to derive *any* key that has
// ever been handed out by a key ring under a given scope:
//
//   - m/purpose'/coinType'/keyFamily'/branch/index
type KeyLocator struct {
	// Family is the family of key being identified.
	Family KeyFamily

	// Branch is the chain within the family.
	Branch Branch

	// Index is the precise index of the key being identified.
	Index uint32
}

// IsEmpty returns true if a KeyLocator is "empty". This may be the case where
// we learn of a key from a remote party, but don't know the precise details
// of its derivation (as we don't know the private key!).
func (k KeyLocator) IsEmpty() bool {
	return k.Family == 0 && k.Branch == 0 && k.Index == 0
}

// Path returns the full derivation path of the key below the given scope.
func (k KeyLocator) Path(scope KeyScope) hdkey.Path {
	return append(
		scope.path(), hdkey.HardenedIndex(uint32(k.Family)),
		uint32(k.Branch), k.Index,
	)
}

// String returns a human readable form of the locator.
func (k KeyLocator) String() string {
	return fmt.Sprintf("family=%d branch=%d index=%d", k.Family, k.Branch,
		k.Index)
}

// KeyDescriptor wraps a KeyLocator and also optionally includes a public key.
// Either the KeyLocator must be non-empty, or the public key pointer be
// non-nil. This will be used by the KeyRing interface to lookup arbitrary
// private keys.
type KeyDescriptor struct {
	// KeyLocator is the internal KeyLocator of the descriptor.
	KeyLocator

	// PubKey is an optional public key that fully describes a target key.
	// If this is nil, the KeyLocator MUST NOT be empty.
	PubKey *btcec.PublicKey
}

// KeyRing is the primary interface that will be used to perform public
// derivation of keys. All derivation required by the KeyRing is based off of
// public derivation below the account level, so a system with only the
// extended public keys of its accounts can derive this set of keys.
type KeyRing interface {
	// DeriveNextKey attempts to derive the *next* key within the key
	// family (account in BIP44) specified. This method should return the
	// next external child within this branch. Indices that do not yield
	// a valid key are skipped.
	DeriveNextKey(keyFam KeyFamily) (KeyDescriptor, error)

	// DeriveKey attempts to derive an arbitrary key specified by the
	// passed KeyLocator. This may be used in several recovery scenarios.
	// An index that does not yield a valid key is reported as an error
	// wrapping hdkey.ErrDerivationInvalid.
	DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error)
}

// SecretKeyRing is a ring similar to the regular KeyRing interface, but it is
// also able to derive *private keys*. As this is a super-set of the regular
// KeyRing, we also expect the SecretKeyRing to implement the fully KeyRing
// interface.
type SecretKeyRing interface {
	KeyRing

	ECDHRing

	MessageSignerRing

	// DerivePrivKey attempts to derive the private key that corresponds to
	// the passed key descriptor. If the public key is set and the key
	// locator only names a family, then this method will perform an
	// in-order scan over the external branch of that family, with a max
	// of MaxKeyRangeScan keys.
	DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey, error)

	// AccountXPub returns the extended public key of a key family. It can
	// be used to set up a watch-only ring for the family.
	AccountXPub(keyFam KeyFamily) (*hdkey.ExtendedKey, error)
}

// MessageSignerRing is an interface that abstracts away basic low-level ECDSA
// signing on keys within a key ring.
type MessageSignerRing interface {
	// SignMessage signs the given message, single or double SHA256 hashing
	// it first, with the private key described in the key locator.
	SignMessage(keyLoc KeyLocator, msg []byte,
		doubleHash bool) (*ecdsa.Signature, error)

	// SignMessageCompact signs the given message, single or double SHA256
	// hashing it first, with the private key described in the key locator
	// and returns the signature in the compact, public key recoverable
	// format.
	SignMessageCompact(keyLoc KeyLocator, msg []byte,
		doubleHash bool) ([]byte, error)

	// SignMessageSchnorr signs the given message, single or double SHA256
	// hashing it first, with the private key described in the key locator
	// and the optional Taproot tweak applied to the private key. If a tag
	// is given the message is hashed with the BIP-340 tagged hash instead.
	SignMessageSchnorr(keyLoc KeyLocator, msg []byte,
		doubleHash bool, taprootTweak []byte,
		tag []byte) (*schnorr.Signature, error)
}

// SingleKeyMessageSigner is an abstraction interface that hides the
// implementation of the low-level ECDSA signing operations by wrapping a
// single, specific private key.
type SingleKeyMessageSigner interface {
	// PubKey returns the public key of the wrapped private key.
	PubKey() *btcec.PublicKey

	// KeyLocator returns the locator that describes the wrapped private
	// key.
	KeyLocator() KeyLocator

	// SignMessage signs the given message, single or double SHA256 hashing
	// it first, with the wrapped private key.
	SignMessage(message []byte, doubleHash bool) (*ecdsa.Signature, error)

	// SignMessageCompact signs the given message, single or double SHA256
	// hashing it first, with the wrapped private key and returns the
	// signature in the compact, public key recoverable format.
	SignMessageCompact(message []byte, doubleHash bool) ([]byte, error)
}

// ECDHRing is an interface that abstracts away basic low-level ECDH shared key
// generation on keys within a key ring.
type ECDHRing interface {
	// ECDH performs a scalar multiplication (ECDH-like operation) between
	// the target key descriptor and remote public key. The output
	// returned will be the sha256 of the resulting shared point serialized
	// in compressed format. If k is our private key, and P is the public
	// key, we perform the following operation:
	//
	//  sx := k*P
	//  s := sha256(sx.SerializeCompressed())
	ECDH(keyDesc KeyDescriptor, pubKey *btcec.PublicKey) ([32]byte, error)
}

// SingleKeyECDH is an abstraction interface that hides the implementation of
// an ECDH operation by wrapping a single, specific private key.
type SingleKeyECDH interface {
	// PubKey returns the public key of the wrapped private key.
	PubKey() *btcec.PublicKey

	// ECDH performs a scalar multiplication (ECDH-like operation) between
	// the wrapped private key and remote public key. The output returned
	// will be the sha256 of the resulting shared point serialized in
	// compressed format.
	ECDH(pubKey *btcec.PublicKey) ([32]byte, error)
}
