package hdkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// BenchmarkDerivePrivate benchmarks hardened CKDpriv.
func BenchmarkDerivePrivate(b *testing.B) {
	master := NewMaster(mustSeed(b, bip32Vectors[0].seed), MainNet)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := master.DerivePrivate(HardenedIndex(uint32(i) % 1000))
		require.NoError(b, err)
	}
}

// BenchmarkDerivePublic benchmarks CKDpub.
func BenchmarkDerivePublic(b *testing.B) {
	master := NewMaster(mustSeed(b, bip32Vectors[0].seed), MainNet)
	pub := master.Neuter()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := pub.DerivePublic(uint32(i) % 1000)
		require.NoError(b, err)
	}
}

// BenchmarkParseString benchmarks decoding an extended private key.
func BenchmarkParseString(b *testing.B) {
	xprv := bip32Vectors[0].steps[5].xprv

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := NewKeyFromString(xprv)
		require.NoError(b, err)
	}
}
