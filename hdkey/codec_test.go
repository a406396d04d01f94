package hdkey

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSer32 asserts big-endian serialization of child indices.
func TestSer32(t *testing.T) {
	t.Parallel()

	require.Equal(t, [4]byte{0x80, 0x00, 0x00, 0x00}, Ser32(HardenedKeyStart))
	require.Equal(t, [4]byte{0x00, 0x00, 0x01, 0x02}, Ser32(0x0102))
}

// TestSer256 asserts padding and reduction of 256-bit integers.
func TestSer256(t *testing.T) {
	t.Parallel()

	one := Ser256(big.NewInt(1))
	require.Equal(t, byte(1), one[31])
	require.True(t, bytes.Equal(make([]byte, 31), one[:31]))

	// 2^256 + 5 wraps around to 5.
	big5 := new(big.Int).Add(twoTo256, big.NewInt(5))
	require.Equal(t, Ser256(big.NewInt(5)), Ser256(big5))

	// -1 wraps around to 2^256 - 1.
	allOnes := Ser256(big.NewInt(-1))
	require.Equal(t, bytes.Repeat([]byte{0xff}, 32), allOnes[:])

	require.Zero(t, Parse256(one[:]).Cmp(big.NewInt(1)))
	require.Zero(t, Parse256(nil).Sign())
}

// TestParseP asserts that only compressed encodings of curve points are
// accepted.
func TestParseP(t *testing.T) {
	t.Parallel()

	master := NewMaster(mustSeed(t, bip32Vectors[0].seed), MainNet)
	serialized := SerP(master.ECPubKey())
	require.Equal(t, master.PubKeyBytes(), serialized[:])

	pub, err := ParseP(serialized[:])
	require.NoError(t, err)
	require.True(t, pub.IsEqual(master.ECPubKey()))

	_, err = ParseP(serialized[:32])
	require.ErrorIs(t, err, ErrInvalidPubKey)

	_, err = ParseP(master.ECPubKey().SerializeUncompressed())
	require.ErrorIs(t, err, ErrInvalidPubKey)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	bad := serialized
	bad[0] = 0x05
	_, err = ParseP(bad[:])
	require.ErrorIs(t, err, ErrInvalidPubKey)

	require.Len(t, Hash160(master.ECPubKey()), 20)
	fp := master.Fingerprint()
	require.Equal(t, Hash160(master.ECPubKey())[:4], fp[:])
}
