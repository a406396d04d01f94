package hdkey

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGenerateSeed asserts the accepted seed lengths.
func TestGenerateSeed(t *testing.T) {
	t.Parallel()

	for _, length := range []uint8{MinSeedBytes, RecommendedSeedLen,
		MaxSeedBytes} {

		seed, err := GenerateSeed(length)
		require.NoError(t, err)
		require.Len(t, seed, int(length))
	}

	_, err := GenerateSeed(MinSeedBytes - 1)
	require.ErrorIs(t, err, ErrInvalidSeedLen)

	_, err = GenerateSeed(MaxSeedBytes + 1)
	require.ErrorIs(t, err, ErrInvalidSeedLen)

	a, err := GenerateSeed(RecommendedSeedLen)
	require.NoError(t, err)
	b, err := GenerateSeed(RecommendedSeedLen)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

// TestMnemonicSeed asserts that mnemonics stretch to the BIP-39 reference
// seed and that corrupted mnemonics are refused.
func TestMnemonicSeed(t *testing.T) {
	t.Parallel()

	mnemonic := strings.Repeat("abandon ", 11) + "about"
	seed, err := SeedFromMnemonic(mnemonic, "TREZOR")
	require.NoError(t, err)
	require.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e5"+
			"3495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b"+
			"2f001698e7463b04",
		hex.EncodeToString(seed))

	_, err = SeedFromMnemonic(strings.Repeat("abandon ", 12), "")
	require.ErrorIs(t, err, ErrInvalidMnemonic)
	require.ErrorIs(t, err, ErrParse)

	fresh, err := NewMnemonic(128)
	require.NoError(t, err)
	require.Len(t, strings.Fields(fresh), 12)

	fresh, err = NewMnemonic(256)
	require.NoError(t, err)
	require.Len(t, strings.Fields(fresh), 24)

	seed, err = SeedFromMnemonic(fresh, "")
	require.NoError(t, err)
	require.Len(t, seed, MaxSeedBytes)

	_, err = NewMnemonic(100)
	require.Error(t, err)
}

// TestMasterFromShortSeed asserts that NewMaster accepts any seed length,
// including an empty one.
func TestMasterFromShortSeed(t *testing.T) {
	t.Parallel()

	for _, seed := range [][]byte{nil, {0x01}, make([]byte, 200)} {
		master := NewMaster(seed, MainNet)
		require.True(t, master.IsPrivate())
		require.EqualValues(t, 0, master.Depth())

		parsed, err := NewKeyFromString(master.String())
		require.NoError(t, err)
		require.True(t, parsed.Equal(master))
	}
}
