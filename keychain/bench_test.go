package keychain

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/stretchr/testify/require"
)

func BenchmarkDerivePrivKey(t *testing.B) {
	keyRing := createTestKeyRing(t, hdkey.MainNet)

	var (
		privKey *btcec.PrivateKey
		err     error
	)

	keyDesc := KeyDescriptor{
		KeyLocator: KeyLocator{
			Family: 0,
			Index:  1,
		},
	}

	t.ReportAllocs()
	t.ResetTimer()

	for i := 0; i < t.N; i++ {
		privKey, err = keyRing.DerivePrivKey(keyDesc)
	}
	require.NoError(t, err)
	require.NotNil(t, privKey)
}

func BenchmarkDerivePrivKeyScan(t *testing.B) {
	keyRing := createTestKeyRing(t, hdkey.MainNet)

	target, err := keyRing.DeriveKey(KeyLocator{Family: 0, Index: 50})
	require.NoError(t, err)

	keyDesc := KeyDescriptor{
		PubKey: target.PubKey,
	}

	t.ReportAllocs()
	t.ResetTimer()

	var privKey *btcec.PrivateKey
	for i := 0; i < t.N; i++ {
		privKey, err = keyRing.DerivePrivKey(keyDesc)
	}
	require.NoError(t, err)
	require.NotNil(t, privKey)
}
