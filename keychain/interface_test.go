package keychain

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/stretchr/testify/require"
)

// testFamilies is the set of key families every ring implementation is
// exercised with.
var testFamilies = []KeyFamily{0, 1, 2, 6, 1017}

var (
	testHDSeed = chainhash.Hash{
		0xb7, 0x94, 0x38, 0x5f, 0x2d, 0x1e, 0xf7, 0xab,
		0x4d, 0x92, 0x73, 0xd1, 0x90, 0x63, 0x81, 0xb4,
		0x4f, 0x2f, 0x6f, 0x25, 0x98, 0xa3, 0xef, 0xb9,
		0x69, 0x49, 0x18, 0x83, 0x31, 0x98, 0x47, 0x53,
	}
)

// createTestKeyRing creates a secret key ring on the test seed.
func createTestKeyRing(t testing.TB, net hdkey.Network) *HDKeyRing {
	t.Helper()

	master := hdkey.NewMaster(testHDSeed[:], net)
	keyRing, err := NewHDKeyRing(master, DefaultScope(net))
	require.NoError(t, err)

	return keyRing
}

// createWatchOnlyRing creates a watch-only ring from the account xpubs of
// the test families of keyRing.
func createWatchOnlyRing(t testing.TB, keyRing *HDKeyRing) *WatchOnlyKeyRing {
	t.Helper()

	accounts := make(map[KeyFamily]*hdkey.ExtendedKey)
	for _, keyFam := range testFamilies {
		xpub, err := keyRing.AccountXPub(keyFam)
		require.NoError(t, err)

		// Round trip through the string form, as a real watch-only
		// setup would.
		accounts[keyFam], err = hdkey.NewKeyFromString(xpub.String())
		require.NoError(t, err)
	}

	watchOnly, err := NewWatchOnlyKeyRing(keyRing.scope, accounts)
	require.NoError(t, err)

	return watchOnly
}

// keyRingConstructor is a function signature that's used as a generic
// constructor for various implementations of the KeyRing interface. A string
// naming the returned interface and the interface itself are to be returned.
type keyRingConstructor func(t *testing.T) (string, KeyRing)

var keyRingImplementations = []keyRingConstructor{
	func(t *testing.T) (string, KeyRing) {
		return "hdkeyring", createTestKeyRing(t, hdkey.MainNet)
	},
	func(t *testing.T) (string, KeyRing) {
		return "testnet", createTestKeyRing(t, hdkey.TestNet)
	},
	func(t *testing.T) (string, KeyRing) {
		keyRing := createTestKeyRing(t, hdkey.MainNet)
		return "watchonly", createWatchOnlyRing(t, keyRing)
	},
}

// TestKeyRingDerivation tests that each known KeyRing implementation properly
// adheres to the expected behavior of the set of interfaces.
func TestKeyRingDerivation(t *testing.T) {
	t.Parallel()

	for _, keyRingConstructor := range keyRingImplementations {
		keyRingName, keyRing := keyRingConstructor(t)

		success := t.Run(keyRingName, func(t *testing.T) {
			// First, we'll ensure that we're able to derive keys
			// from each of the known key families.
			for _, keyFam := range testFamilies {
				// First, we'll ensure that we can derive the
				// *next* key in the keychain.
				keyDesc, err := keyRing.DeriveNextKey(keyFam)
				require.NoError(t, err)
				require.Equal(t, keyFam, keyDesc.Family)
				require.Equal(t, ExternalBranch, keyDesc.Branch)
				require.EqualValues(t, 0, keyDesc.Index)

				// If we now try to manually derive the *first*
				// key, then we should get an identical public
				// key back.
				keyLoc := KeyLocator{
					Family: keyFam,
					Index:  0,
				}
				firstKeyDesc, err := keyRing.DeriveKey(keyLoc)
				require.NoError(t, err)
				require.True(t, keyDesc.PubKey.IsEqual(
					firstKeyDesc.PubKey,
				))

				// The next key moves on to the next index.
				nextKeyDesc, err := keyRing.DeriveNextKey(keyFam)
				require.NoError(t, err)
				require.EqualValues(t, 1, nextKeyDesc.Index)
				require.False(t, nextKeyDesc.PubKey.IsEqual(
					keyDesc.PubKey,
				))

				// If this succeeds, then we'll also try to
				// derive a random index within the range.
				randKeyIndex := uint32(rand.Int31())
				keyLoc = KeyLocator{
					Family: keyFam,
					Branch: InternalBranch,
					Index:  randKeyIndex,
				}
				_, err = keyRing.DeriveKey(keyLoc)
				require.NoError(t, err)
			}
		})
		if !success {
			break
		}
	}
}

// TestKeyLocatorPath asserts that the keys of a ring are the keys found at
// the locator paths below the master key.
func TestKeyLocatorPath(t *testing.T) {
	t.Parallel()

	master := hdkey.NewMaster(testHDSeed[:], hdkey.MainNet)
	keyRing := createTestKeyRing(t, hdkey.MainNet)

	keyLoc := KeyLocator{
		Family: 3,
		Branch: InternalBranch,
		Index:  42,
	}
	require.Equal(t, "m/44'/0'/3'/1/42",
		keyLoc.Path(keyRing.scope).String())

	key, err := master.DerivePath("m/44'/0'/3'/1/42")
	require.NoError(t, err)

	keyDesc, err := keyRing.DeriveKey(keyLoc)
	require.NoError(t, err)
	require.True(t, keyDesc.PubKey.IsEqual(key.ECPubKey()))

	xpub, err := keyRing.AccountXPub(3)
	require.NoError(t, err)
	acct, err := master.DerivePath("m/44'/0'/3'")
	require.NoError(t, err)
	require.Equal(t, acct.Neuter().String(), xpub.String())
	require.False(t, xpub.IsPrivate())

	require.Equal(t, "m/44'/1'", DefaultScope(hdkey.TestNet).String())
	require.True(t, KeyLocator{}.IsEmpty())
	require.False(t, keyLoc.IsEmpty())
}

// TestWatchOnlyMatchesSecretRing asserts that a watch-only ring built from
// the account xpubs of a secret ring hands out the same keys.
func TestWatchOnlyMatchesSecretRing(t *testing.T) {
	t.Parallel()

	keyRing := createTestKeyRing(t, hdkey.MainNet)
	watchOnly := createWatchOnlyRing(t, keyRing)
	require.Equal(t, testFamilies, watchOnly.Families())

	for _, keyFam := range testFamilies {
		for _, branch := range []Branch{ExternalBranch, InternalBranch} {
			keyLoc := KeyLocator{
				Family: keyFam,
				Branch: branch,
				Index:  uint32(rand.Int31()),
			}

			secretDesc, err := keyRing.DeriveKey(keyLoc)
			require.NoError(t, err)
			watchDesc, err := watchOnly.DeriveKey(keyLoc)
			require.NoError(t, err)

			require.True(t, secretDesc.PubKey.IsEqual(
				watchDesc.PubKey,
			))
		}
	}

	// Hardened steps below the account need the private key.
	_, err := watchOnly.DeriveKey(KeyLocator{
		Family: 0,
		Index:  hdkey.HardenedIndex(0),
	})
	require.ErrorIs(t, err, hdkey.ErrDeriveHardFromPublic)
	require.ErrorIs(t, err, hdkey.ErrUnsupportedDerivation)

	_, err = keyRing.DeriveKey(KeyLocator{
		Family: 0,
		Index:  hdkey.HardenedIndex(0),
	})
	require.NoError(t, err)

	// Families without an account key are refused.
	_, err = watchOnly.DeriveNextKey(5)
	require.ErrorIs(t, err, ErrUnknownFamily)
}

// TestWatchOnlyValidation asserts that only account level keys are accepted
// by the watch-only ring.
func TestWatchOnlyValidation(t *testing.T) {
	t.Parallel()

	keyRing := createTestKeyRing(t, hdkey.MainNet)
	xpub, err := keyRing.AccountXPub(2)
	require.NoError(t, err)

	_, err = NewWatchOnlyKeyRing(keyRing.scope, map[KeyFamily]*hdkey.ExtendedKey{
		3: xpub,
	})
	require.Error(t, err)

	child, err := xpub.Child(0)
	require.NoError(t, err)
	_, err = NewWatchOnlyKeyRing(keyRing.scope, map[KeyFamily]*hdkey.ExtendedKey{
		2: child,
	})
	require.Error(t, err)

	// A private account key is neutered.
	master := hdkey.NewMaster(testHDSeed[:], hdkey.MainNet)
	acct, err := master.DerivePath("m/44'/0'/2'")
	require.NoError(t, err)
	watchOnly, err := NewWatchOnlyKeyRing(keyRing.scope,
		map[KeyFamily]*hdkey.ExtendedKey{2: acct})
	require.NoError(t, err)

	keyDesc, err := watchOnly.DeriveNextKey(2)
	require.NoError(t, err)
	expected, err := keyRing.DeriveKey(keyDesc.KeyLocator)
	require.NoError(t, err)
	require.True(t, expected.PubKey.IsEqual(keyDesc.PubKey))

	stored := watchOnly.AccountXPub(2).UnwrapOrFail(t)
	require.False(t, stored.IsPrivate())
	require.Equal(t, acct.Neuter().String(), stored.String())
	require.True(t, watchOnly.AccountXPub(3).IsNone())
}

// TestKeyRingErrors asserts the errors of invalid ring requests.
func TestKeyRingErrors(t *testing.T) {
	t.Parallel()

	master := hdkey.NewMaster(testHDSeed[:], hdkey.MainNet)

	_, err := NewHDKeyRing(master.Neuter(), DefaultScope(hdkey.MainNet))
	require.ErrorIs(t, err, hdkey.ErrNotPrivExtKey)

	child, err := master.Child(0)
	require.NoError(t, err)
	_, err = NewHDKeyRing(child, DefaultScope(hdkey.MainNet))
	require.ErrorIs(t, err, hdkey.ErrNotMaster)

	keyRing := createTestKeyRing(t, hdkey.MainNet)
	_, err = keyRing.DeriveNextKey(KeyFamily(hdkey.HardenedKeyStart))
	require.ErrorIs(t, err, ErrInvalidFamily)

	keyRing.SetNextIndex(1, hdkey.HardenedKeyStart-1)
	keyDesc, err := keyRing.DeriveNextKey(1)
	require.NoError(t, err)
	require.Equal(t, hdkey.HardenedKeyStart-1, keyDesc.Index)

	_, err = keyRing.DeriveNextKey(1)
	require.ErrorIs(t, err, ErrFamilyExhausted)
}

// TestConcurrentDeriveNextKey asserts that concurrent callers never receive
// the same key.
func TestConcurrentDeriveNextKey(t *testing.T) {
	t.Parallel()

	const numWorkers = 8
	const keysPerWorker = 20

	keyRing := createTestKeyRing(t, hdkey.MainNet)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indices = make(map[uint32]struct{})
		errs    = make(chan error, numWorkers)
	)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < keysPerWorker; j++ {
				keyDesc, err := keyRing.DeriveNextKey(4)
				if err != nil {
					errs <- err
					return
				}

				mu.Lock()
				_, dup := indices[keyDesc.Index]
				indices[keyDesc.Index] = struct{}{}
				mu.Unlock()

				if dup {
					errs <- fmt.Errorf("index %d handed "+
						"out twice", keyDesc.Index)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, indices, numWorkers*keysPerWorker)
}

// TestSecretKeyRingDerivation tests that the private keys of the secret ring
// match its public keys, both for known locators and by scanning.
func TestSecretKeyRingDerivation(t *testing.T) {
	t.Parallel()

	secretKeyRing := createTestKeyRing(t, hdkey.MainNet)

	for _, keyFam := range testFamilies {
		randKeyIndex := uint32(rand.Int31())
		keyLoc := KeyLocator{
			Family: keyFam,
			Index:  randKeyIndex,
		}

		// First, we'll query for the public key for this target key
		// locator.
		pubKeyDesc, err := secretKeyRing.DeriveKey(keyLoc)
		require.NoError(t, err)

		// With the public key derive, ensure that we're able to obtain
		// the corresponding private key correctly.
		privKey, err := secretKeyRing.DerivePrivKey(KeyDescriptor{
			KeyLocator: keyLoc,
		})
		require.NoError(t, err)
		require.True(t, pubKeyDesc.PubKey.IsEqual(privKey.PubKey()))

		// A key with a low index is found by scanning the family
		// when only the public key is known.
		lowKey, err := secretKeyRing.DeriveKey(KeyLocator{
			Family: keyFam,
			Index:  17,
		})
		require.NoError(t, err)

		privKey, err = secretKeyRing.DerivePrivKey(KeyDescriptor{
			KeyLocator: KeyLocator{Family: keyFam},
			PubKey:     lowKey.PubKey,
		})
		require.NoError(t, err)
		require.True(t, lowKey.PubKey.IsEqual(privKey.PubKey()))
	}
}

// TestDerivePrivKeyScanLimit asserts that a key outside of the scan range is
// not found. It changes MaxKeyRangeScan, so it must not run in parallel.
func TestDerivePrivKeyScanLimit(t *testing.T) {
	defer func(scan int) {
		MaxKeyRangeScan = scan
	}(MaxKeyRangeScan)
	MaxKeyRangeScan = 50

	secretKeyRing := createTestKeyRing(t, hdkey.MainNet)

	// A key just past the scan range is not found.
	far, err := secretKeyRing.DeriveKey(KeyLocator{Family: 2, Index: 60})
	require.NoError(t, err)

	_, err = secretKeyRing.DerivePrivKey(KeyDescriptor{
		KeyLocator: KeyLocator{Family: 2},
		PubKey:     far.PubKey,
	})
	require.ErrorIs(t, err, ErrCannotDerivePrivKey)

	// A key of another family is never found.
	other, err := secretKeyRing.DeriveKey(KeyLocator{Family: 1, Index: 3})
	require.NoError(t, err)

	_, err = secretKeyRing.DerivePrivKey(KeyDescriptor{
		KeyLocator: KeyLocator{Family: 2},
		PubKey:     other.PubKey,
	})
	require.True(t, errors.Is(err, ErrCannotDerivePrivKey))
}

// TestECDH asserts that both sides of an ECDH exchange arrive at the same
// secret.
func TestECDH(t *testing.T) {
	t.Parallel()

	alice := createTestKeyRing(t, hdkey.MainNet)
	bob, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	aliceDesc, err := alice.DeriveNextKey(6)
	require.NoError(t, err)

	aliceECDH := NewPubKeyECDH(aliceDesc, alice)
	require.True(t, aliceECDH.PubKey().IsEqual(aliceDesc.PubKey))

	aliceSecret, err := aliceECDH.ECDH(bob.PubKey())
	require.NoError(t, err)

	bobECDH := &PrivKeyECDH{PrivKey: bob}
	bobSecret, err := bobECDH.ECDH(aliceDesc.PubKey)
	require.NoError(t, err)

	require.Equal(t, aliceSecret, bobSecret)
}

// TestSignMessage asserts that the signatures created by the secret ring and
// the single key signers verify against the derived public keys.
func TestSignMessage(t *testing.T) {
	t.Parallel()

	keyRing := createTestKeyRing(t, hdkey.MainNet)
	msg := []byte("the quick brown fox")

	keyDesc, err := keyRing.DeriveNextKey(0)
	require.NoError(t, err)

	for _, doubleHash := range []bool{false, true} {
		digest := messageDigest(msg, doubleHash)

		sig, err := keyRing.SignMessage(
			keyDesc.KeyLocator, msg, doubleHash,
		)
		require.NoError(t, err)
		require.True(t, sig.Verify(digest, keyDesc.PubKey))

		compact, err := keyRing.SignMessageCompact(
			keyDesc.KeyLocator, msg, doubleHash,
		)
		require.NoError(t, err)
		recovered, wasCompressed, err := ecdsa.RecoverCompact(
			compact, digest,
		)
		require.NoError(t, err)
		require.True(t, wasCompressed)
		require.True(t, recovered.IsEqual(keyDesc.PubKey))

		schnorrSig, err := keyRing.SignMessageSchnorr(
			keyDesc.KeyLocator, msg, doubleHash, nil, nil,
		)
		require.NoError(t, err)
		require.True(t, schnorrSig.Verify(digest, keyDesc.PubKey))
	}

	// A tagged, tweaked Schnorr signature verifies against the tweaked
	// key.
	tweak := chainhash.HashB([]byte("script root"))
	tag := []byte("test/tag")
	sig, err := keyRing.SignMessageSchnorr(
		keyDesc.KeyLocator, msg, false, tweak, tag,
	)
	require.NoError(t, err)

	tweakedKey := txscript.ComputeTaprootOutputKey(keyDesc.PubKey, tweak)
	taggedHash := chainhash.TaggedHash(tag, msg)
	require.True(t, sig.Verify(taggedHash[:], tweakedKey))

	parsed, err := schnorr.ParseSignature(sig.Serialize())
	require.NoError(t, err)
	require.True(t, parsed.IsEqual(sig))

	// The single key signers produce verifiable signatures too.
	privKey, err := keyRing.DerivePrivKey(keyDesc)
	require.NoError(t, err)

	signers := []SingleKeyMessageSigner{
		NewPubKeyMessageSigner(
			keyDesc.PubKey, keyDesc.KeyLocator, keyRing,
		),
		NewPrivKeyMessageSigner(privKey, keyDesc.KeyLocator),
	}
	for _, signer := range signers {
		require.True(t, signer.PubKey().IsEqual(keyDesc.PubKey))
		require.Equal(t, keyDesc.KeyLocator, signer.KeyLocator())

		sig, err := signer.SignMessage(msg, true)
		require.NoError(t, err)
		require.True(t, sig.Verify(
			chainhash.DoubleHashB(msg), keyDesc.PubKey,
		))

		compact, err := signer.SignMessageCompact(msg, false)
		require.NoError(t, err)
		recovered, _, err := ecdsa.RecoverCompact(
			compact, chainhash.HashB(msg),
		)
		require.NoError(t, err)
		require.True(t, recovered.IsEqual(keyDesc.PubKey))
	}
}
