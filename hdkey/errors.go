package hdkey

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the kind shared by every error caused by malformed
	// input: a bad derivation path, a bad Base58Check string, a checksum
	// mismatch or a payload that violates the extended key layout.
	ErrParse = errors.New("parse error")

	// ErrInvalidEncoding is the kind of errors caused by a malformed
	// compressed secp256k1 point.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrUnsupportedDerivation is the kind of errors returned when a
	// derivation is requested that BIP-32 does not define for the given
	// key, e.g. a hardened child of a public key.
	ErrUnsupportedDerivation = errors.New("unsupported derivation")

	// ErrDerivationInvalid is the kind of the (~2^-127) error returned
	// when a child index produces an invalid key. Callers are expected to
	// move on to the next index.
	ErrDerivationInvalid = errors.New("derivation invalid")
)

// kindError creates a new sentinel error of the given kind.
func kindError(kind error, desc string) error {
	return fmt.Errorf("%w: %s", kind, desc)
}

var (
	// ErrInvalidChild describes an error in which the child at a specific
	// index is invalid due to the derived key falling outside of the valid
	// range for secp256k1 private keys, or the derived public key being
	// the point at infinity. The caller should simply ignore the invalid
	// child and continue to the next index.
	ErrInvalidChild = kindError(ErrDerivationInvalid, "the extended key "+
		"at this index is invalid")

	// ErrDeriveHardFromPublic describes an error in which the caller
	// attempted to derive a hardened extended key from a public key.
	ErrDeriveHardFromPublic = kindError(ErrUnsupportedDerivation,
		"cannot derive a hardened key from a public key")

	// ErrNotPrivExtKey describes an error in which the caller attempted
	// to extract or derive private material from a neutered key.
	ErrNotPrivExtKey = kindError(ErrUnsupportedDerivation,
		"unable to create private keys from a public extended key")

	// ErrDeriveBeyondMaxDepth describes an error in which the caller has
	// attempted to derive more than 255 keys from a root key.
	ErrDeriveBeyondMaxDepth = kindError(ErrUnsupportedDerivation,
		"cannot derive a key with more than 255 indices in its path")

	// ErrNotMaster describes an error in which a derivation path was
	// applied to a key that is not the root of its tree.
	ErrNotMaster = kindError(ErrUnsupportedDerivation,
		"only the master key can derive a full path")

	// ErrInvalidPath describes a malformed derivation path string.
	ErrInvalidPath = kindError(ErrParse, "invalid derivation path")

	// ErrInvalidKeyLen describes an error in which the provided serialized
	// key is not the expected length.
	ErrInvalidKeyLen = kindError(ErrParse, "the provided serialized "+
		"extended key length is invalid")

	// ErrBadChecksum describes an error in which the checksum encoded
	// with a serialized extended key does not match the calculated value.
	ErrBadChecksum = kindError(ErrParse, "bad extended key checksum")

	// ErrUnknownVersion describes a serialized key whose version bytes
	// match none of the known networks.
	ErrUnknownVersion = kindError(ErrParse, "unknown extended key version")

	// ErrInvalidPrivKey describes a serialized private key that is not a
	// valid secp256k1 scalar or lacks the 0x00 padding byte.
	ErrInvalidPrivKey = kindError(ErrParse, "invalid private key data")

	// ErrKeyTypeMismatch describes a serialized key whose key data does
	// not match the key type announced by its version bytes.
	ErrKeyTypeMismatch = kindError(ErrParse, "key data does not match "+
		"the version's key type")

	// ErrInvalidParent describes key parameters whose depth, parent
	// fingerprint or child number are inconsistent with each other.
	ErrInvalidParent = kindError(ErrParse, "inconsistent parent metadata")

	// ErrKeyMaterial describes key parameters carrying both or neither of
	// a private and a public key.
	ErrKeyMaterial = kindError(ErrParse, "exactly one of private and "+
		"public key must be set")

	// ErrInvalidChainCode describes a chain code that is not 32 bytes.
	ErrInvalidChainCode = kindError(ErrParse, "chain code must be 32 bytes")

	// ErrInvalidSeedLen describes an error in which the provided seed or
	// seed length is not in the allowed range.
	ErrInvalidSeedLen = kindError(ErrParse, fmt.Sprintf("seed length "+
		"must be between %d and %d bits", MinSeedBytes*8,
		MaxSeedBytes*8))

	// ErrInvalidMnemonic describes a mnemonic that fails BIP-39 checks.
	ErrInvalidMnemonic = kindError(ErrParse, "invalid mnemonic")

	// ErrInvalidPubKey describes a byte sequence that is not a valid
	// compressed secp256k1 point.
	ErrInvalidPubKey = kindError(ErrInvalidEncoding, "invalid compressed "+
		"public key")
)
