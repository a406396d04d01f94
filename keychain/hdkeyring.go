package keychain

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/hdkey/hdkey"
)

// HDKeyRing is an implementation of both the KeyRing and SecretKeyRing
// interfaces backed by a private BIP-32 master key. Account keys are derived
// with hardened CKDpriv below the key scope and cached, everything below the
// accounts is derived on demand. All key derivation is thus protected under
// the root seed, making each derived key fully deterministic.
type HDKeyRing struct {
	root *hdkey.ExtendedKey

	*keyTree
}

// A compile time check to ensure that HDKeyRing implements the
// SecretKeyRing interface.
var _ SecretKeyRing = (*HDKeyRing)(nil)

// NewHDKeyRing creates a new implementation of the keychain.SecretKeyRing
// interface on top of the passed private master key.
func NewHDKeyRing(root *hdkey.ExtendedKey, scope KeyScope) (*HDKeyRing,
	error) {

	if !root.IsPrivate() {
		return nil, hdkey.ErrNotPrivExtKey
	}
	if root.Depth() != 0 {
		return nil, hdkey.ErrNotMaster
	}

	ring := &HDKeyRing{
		root: root,
	}
	ring.keyTree = newKeyTree(scope, ring.deriveAccount)

	return ring, nil
}

// deriveAccount derives the private account key of a key family:
//
//   - m/purpose'/coinType'/keyFamily'
func (h *HDKeyRing) deriveAccount(keyFam KeyFamily) (*hdkey.ExtendedKey,
	error) {

	path := append(
		h.scope.path(), hdkey.HardenedIndex(uint32(keyFam)),
	)

	acct, err := h.root.DeriveIndices(path)
	if err != nil {
		return nil, fmt.Errorf("unable to derive account %v: %w", path,
			err)
	}

	return acct, nil
}

// DeriveNextKey attempts to derive the *next* key within the key family
// (account in BIP44) specified. This method should return the next external
// child within this branch.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (h *HDKeyRing) DeriveNextKey(keyFam KeyFamily) (KeyDescriptor, error) {
	keyLoc, key, err := h.deriveNextKey(keyFam)
	if err != nil {
		return KeyDescriptor{}, err
	}

	return keyDescriptor(keyLoc, key), nil
}

// DeriveKey attempts to derive an arbitrary key specified by the passed
// KeyLocator. This may be used in several recovery scenarios, or when manually
// rotating something like our current default node key.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (h *HDKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error) {
	key, err := h.deriveKey(keyLoc)
	if err != nil {
		return KeyDescriptor{}, err
	}

	return keyDescriptor(keyLoc, key), nil
}

// SetNextIndex sets the index DeriveNextKey continues from for the given key
// family.
func (h *HDKeyRing) SetNextIndex(keyFam KeyFamily, index uint32) {
	h.setNextIndex(keyFam, index)
}

// DerivePrivKey attempts to derive the private key that corresponds to the
// passed key descriptor.
//
// NOTE: This is part of the keychain.SecretKeyRing interface.
func (h *HDKeyRing) DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey,
	error) {

	// If the public key isn't set or they have a non-zero branch or
	// index, then we know that the caller instead knows the derivation
	// path for a key.
	if keyDesc.PubKey == nil || keyDesc.Branch != 0 || keyDesc.Index != 0 {
		key, err := h.deriveKey(keyDesc.KeyLocator)
		if err != nil {
			return nil, err
		}

		return key.ECPrivKey()
	}

	// If the public key is set, and the index is zero, then we'll scan
	// the external branch of the family for the target key.
	h.mu.Lock()
	branch, err := h.branch(keyDesc.Family, ExternalBranch)
	h.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i := 0; i < MaxKeyRangeScan; i++ {
		key, err := branch.Child(uint32(i))
		if err != nil {
			// Invalid children can't be the target key.
			continue
		}

		if key.ECPubKey().IsEqual(keyDesc.PubKey) {
			log.Debugf("Found key of family %d at index %d",
				keyDesc.Family, i)

			return key.ECPrivKey()
		}
	}

	return nil, ErrCannotDerivePrivKey
}

// AccountXPub returns the extended public key of a key family.
//
// NOTE: This is part of the keychain.SecretKeyRing interface.
func (h *HDKeyRing) AccountXPub(keyFam KeyFamily) (*hdkey.ExtendedKey,
	error) {

	h.mu.Lock()
	defer h.mu.Unlock()

	acct, err := h.account(keyFam)
	if err != nil {
		return nil, err
	}

	return acct.Neuter(), nil
}

// ECDH performs a scalar multiplication (ECDH-like operation) between the
// target key descriptor and remote public key. The output returned will be
// the sha256 of the resulting shared point serialized in compressed format. If
// k is our private key, and P is the public key, we perform the following
// operation:
//
//	sx := k*P
//	s := sha256(sx.SerializeCompressed())
//
// NOTE: This is part of the keychain.ECDHRing interface.
func (h *HDKeyRing) ECDH(keyDesc KeyDescriptor,
	pub *btcec.PublicKey) ([32]byte, error) {

	privKey, err := h.DerivePrivKey(keyDesc)
	if err != nil {
		return [32]byte{}, err
	}

	defer privKey.Zero()

	return sharedSecret(&privKey.Key, pub), nil
}

// SignMessage signs the given message, single or double SHA256 hashing it
// first, with the private key described in the key locator.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (h *HDKeyRing) SignMessage(keyLoc KeyLocator, msg []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	privKey, err := h.DerivePrivKey(KeyDescriptor{
		KeyLocator: keyLoc,
	})
	if err != nil {
		return nil, err
	}

	return ecdsa.Sign(privKey, messageDigest(msg, doubleHash)), nil
}

// SignMessageCompact signs the given message, single or double SHA256 hashing
// it first, with the private key described in the key locator and returns
// the signature in the compact, public key recoverable format.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (h *HDKeyRing) SignMessageCompact(keyLoc KeyLocator, msg []byte,
	doubleHash bool) ([]byte, error) {

	privKey, err := h.DerivePrivKey(KeyDescriptor{
		KeyLocator: keyLoc,
	})
	if err != nil {
		return nil, err
	}

	return ecdsa.SignCompact(
		privKey, messageDigest(msg, doubleHash), true,
	), nil
}

// SignMessageSchnorr uses the Schnorr signature algorithm to sign the given
// message, single or double SHA256 hashing it first, with the private key
// described in the key locator and the optional tweak applied to the private
// key.
//
// NOTE: This is part of the keychain.MessageSignerRing interface.
func (h *HDKeyRing) SignMessageSchnorr(keyLoc KeyLocator, msg []byte,
	doubleHash bool, taprootTweak []byte,
	tag []byte) (*schnorr.Signature, error) {

	privKey, err := h.DerivePrivKey(KeyDescriptor{
		KeyLocator: keyLoc,
	})
	if err != nil {
		return nil, err
	}

	if len(taprootTweak) > 0 {
		privKey = txscript.TweakTaprootPrivKey(*privKey, taprootTweak)
	}

	var digest []byte
	if len(tag) > 0 {
		taggedHash := chainhash.TaggedHash(tag, msg)
		digest = taggedHash[:]
	} else {
		digest = messageDigest(msg, doubleHash)
	}

	return schnorr.Sign(privKey, digest)
}

// messageDigest hashes msg with one or two rounds of SHA256.
func messageDigest(msg []byte, doubleHash bool) []byte {
	if doubleHash {
		return chainhash.DoubleHashB(msg)
	}

	digest := sha256.Sum256(msg)
	return digest[:]
}
