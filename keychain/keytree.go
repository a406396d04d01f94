package keychain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lightningnetwork/hdkey/hdkey"
)

// keyTree holds the account keys of a ring together with the next unused
// external index of every key family. It is shared by the secret and the
// watch-only ring.
type keyTree struct {
	scope KeyScope

	// fetchAccount returns the account key of a family that is not cached
	// yet. It is called with mu held.
	fetchAccount func(KeyFamily) (*hdkey.ExtendedKey, error)

	mu        sync.Mutex
	accounts  map[KeyFamily]*hdkey.ExtendedKey
	nextIndex map[KeyFamily]uint32
}

// newKeyTree creates a key tree for the given scope.
func newKeyTree(scope KeyScope,
	fetch func(KeyFamily) (*hdkey.ExtendedKey, error)) *keyTree {

	return &keyTree{
		scope:        scope,
		fetchAccount: fetch,
		accounts:     make(map[KeyFamily]*hdkey.ExtendedKey),
		nextIndex:    make(map[KeyFamily]uint32),
	}
}

// account returns the account key of keyFam, fetching and caching it on
// first use.
//
// NOTE: The mutex MUST be held when calling this method.
func (t *keyTree) account(keyFam KeyFamily) (*hdkey.ExtendedKey, error) {
	if uint32(keyFam) >= hdkey.HardenedKeyStart {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFamily, keyFam)
	}

	if acct, ok := t.accounts[keyFam]; ok {
		return acct, nil
	}

	acct, err := t.fetchAccount(keyFam)
	if err != nil {
		return nil, err
	}
	t.accounts[keyFam] = acct

	log.Debugf("Loaded account %d of scope %v", keyFam, t.scope)

	return acct, nil
}

// branch returns the key at the root of a branch of keyFam.
//
// NOTE: The mutex MUST be held when calling this method.
func (t *keyTree) branch(keyFam KeyFamily,
	branch Branch) (*hdkey.ExtendedKey, error) {

	acct, err := t.account(keyFam)
	if err != nil {
		return nil, err
	}

	key, err := acct.Child(uint32(branch))
	if err != nil {
		return nil, fmt.Errorf("unable to derive branch %d of "+
			"family %d: %w", branch, keyFam, err)
	}

	return key, nil
}

// deriveKey derives the key named by keyLoc.
func (t *keyTree) deriveKey(keyLoc KeyLocator) (*hdkey.ExtendedKey, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	branch, err := t.branch(keyLoc.Family, keyLoc.Branch)
	if err != nil {
		return nil, err
	}

	key, err := branch.Child(keyLoc.Index)
	if err != nil {
		return nil, fmt.Errorf("unable to derive key %v: %w", keyLoc,
			err)
	}

	return key, nil
}

// deriveNextKey hands out the next unused key of the external branch of
// keyFam. Indices that do not yield a valid key are skipped.
func (t *keyTree) deriveNextKey(keyFam KeyFamily) (KeyLocator,
	*hdkey.ExtendedKey, error) {

	t.mu.Lock()
	defer t.mu.Unlock()

	branch, err := t.branch(keyFam, ExternalBranch)
	if err != nil {
		return KeyLocator{}, nil, err
	}

	index := t.nextIndex[keyFam]
	for ; index < hdkey.HardenedKeyStart; index++ {
		key, err := branch.Child(index)
		switch {
		case errors.Is(err, hdkey.ErrDerivationInvalid):
			log.Infof("Skipping invalid index %d of family %d",
				index, keyFam)
			continue

		case err != nil:
			return KeyLocator{}, nil, err
		}

		t.nextIndex[keyFam] = index + 1

		return KeyLocator{
			Family: keyFam,
			Branch: ExternalBranch,
			Index:  index,
		}, key, nil
	}

	return KeyLocator{}, nil, fmt.Errorf("%w: %d", ErrFamilyExhausted,
		keyFam)
}

// setNextIndex moves the external index counter of keyFam, e.g. after a
// restore from seed has found used keys.
func (t *keyTree) setNextIndex(keyFam KeyFamily, index uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextIndex[keyFam] = index
}

// keyDescriptor builds the descriptor of a derived key.
func keyDescriptor(keyLoc KeyLocator, key *hdkey.ExtendedKey) KeyDescriptor {
	return KeyDescriptor{
		KeyLocator: keyLoc,
		PubKey:     key.ECPubKey(),
	}
}
