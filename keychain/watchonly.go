package keychain

import (
	"fmt"
	"slices"

	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// WatchOnlyKeyRing is a KeyRing that only knows the extended public keys of
// its accounts. It hands out the same keys as an HDKeyRing on the matching
// master key, but can never sign. Everything below the account level is
// derived with CKDpub, so hardened branches and indices are refused.
type WatchOnlyKeyRing struct {
	*keyTree
}

// A compile time check to ensure that WatchOnlyKeyRing implements the
// KeyRing interface.
var _ KeyRing = (*WatchOnlyKeyRing)(nil)

// NewWatchOnlyKeyRing creates a watch-only ring from the account xpubs of
// the given scope. Every account key must sit at depth 3 and be the hardened
// child matching its key family. Private keys are neutered before use.
func NewWatchOnlyKeyRing(scope KeyScope,
	accounts map[KeyFamily]*hdkey.ExtendedKey) (*WatchOnlyKeyRing, error) {

	tree := newKeyTree(scope, func(keyFam KeyFamily) (*hdkey.ExtendedKey,
		error) {

		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, keyFam)
	})

	for keyFam, acct := range accounts {
		if acct.Depth() != 3 {
			return nil, fmt.Errorf("account key of family %d has "+
				"depth %d, expected 3", keyFam, acct.Depth())
		}

		want := hdkey.HardenedIndex(uint32(keyFam))
		if acct.ChildIndex() != want {
			return nil, fmt.Errorf("account key of family %d has "+
				"child index %d, expected %d", keyFam,
				acct.ChildIndex(), want)
		}

		tree.accounts[keyFam] = acct.Neuter()
	}

	return &WatchOnlyKeyRing{
		keyTree: tree,
	}, nil
}

// DeriveNextKey attempts to derive the *next* key within the key family
// (account in BIP44) specified. This method should return the next external
// child within this branch.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (w *WatchOnlyKeyRing) DeriveNextKey(keyFam KeyFamily) (KeyDescriptor,
	error) {

	keyLoc, key, err := w.deriveNextKey(keyFam)
	if err != nil {
		return KeyDescriptor{}, err
	}

	return keyDescriptor(keyLoc, key), nil
}

// DeriveKey attempts to derive an arbitrary key specified by the passed
// KeyLocator.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (w *WatchOnlyKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor,
	error) {

	key, err := w.deriveKey(keyLoc)
	if err != nil {
		return KeyDescriptor{}, err
	}

	return keyDescriptor(keyLoc, key), nil
}

// SetNextIndex sets the index DeriveNextKey continues from for the given key
// family.
func (w *WatchOnlyKeyRing) SetNextIndex(keyFam KeyFamily, index uint32) {
	w.setNextIndex(keyFam, index)
}

// AccountXPub returns the account key of a key family, if the ring was
// created with one.
func (w *WatchOnlyKeyRing) AccountXPub(
	keyFam KeyFamily) fn.Option[*hdkey.ExtendedKey] {

	w.mu.Lock()
	defer w.mu.Unlock()

	acct, ok := w.accounts[keyFam]
	if !ok {
		return fn.None[*hdkey.ExtendedKey]()
	}

	return fn.Some(acct)
}

// Families returns the key families the ring holds account keys for.
func (w *WatchOnlyKeyRing) Families() []KeyFamily {
	w.mu.Lock()
	defer w.mu.Unlock()

	families := make([]KeyFamily, 0, len(w.accounts))
	for keyFam := range w.accounts {
		families = append(families, keyFam)
	}
	slices.Sort(families)

	return families
}
