package hdkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParsePath asserts the accepted and rejected derivation path forms.
func TestParsePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path  string
		want  Path
		valid bool
	}{
		{path: "m", want: Path{}, valid: true},
		{path: "m/0", want: Path{0}, valid: true},
		{
			path:  "m/0'/1h/2H",
			want: Path{
				HardenedIndex(0), HardenedIndex(1),
				HardenedIndex(2),
			},
			valid: true,
		},
		{
			path:  "m/2147483647/2147483647'",
			want:  Path{0x7fffffff, 0xffffffff},
			valid: true,
		},
		{path: "m/007", want: Path{7}, valid: true},
		{path: ""},
		{path: "M/0"},
		{path: "0/1"},
		{path: "/0"},
		{path: "m/"},
		{path: "m//1"},
		{path: "m/'"},
		{path: "m/1''"},
		{path: "m/-1"},
		{path: "m/+1"},
		{path: "m/ 1"},
		{path: "m/1x"},
		{path: "m/0x10"},
		{path: "m/2147483648"},
		{path: "m/2147483648'"},
		{path: "m/99999999999999999999"},
	}

	for _, tc := range testCases {
		path, err := ParsePath(tc.path)
		if !tc.valid {
			require.ErrorIs(t, err, ErrInvalidPath, tc.path)
			require.ErrorIs(t, err, ErrParse, tc.path)
			continue
		}

		require.NoError(t, err, tc.path)
		require.Equal(t, tc.want, path, tc.path)
	}
}

// TestPathString asserts that paths render in the canonical form and parse
// back to themselves.
func TestPathString(t *testing.T) {
	t.Parallel()

	path := Path{
		HardenedIndex(44), HardenedIndex(0), HardenedIndex(0), 0, 7,
	}
	require.Equal(t, "m/44'/0'/0'/0/7", path.String())

	parsed, err := ParsePath(path.String())
	require.NoError(t, err)
	require.Equal(t, path, parsed)

	require.Equal(t, "m", Path{}.String())

	child := path[:2].Child(9)
	require.Equal(t, "m/44'/0'/9", child.String())

	// Extending a prefix must not clobber the original path.
	require.Equal(t, "m/44'/0'/0'/0/7", path.String())
}

// TestDerivePathEquivalence asserts that DerivePath and DeriveIndices agree
// with manual stepwise derivation, including for public masters.
func TestDerivePathEquivalence(t *testing.T) {
	t.Parallel()

	master := NewMaster(mustSeed(t, bip32Vectors[1].seed), MainNet)

	key, err := master.DerivePath("m/1/2/3")
	require.NoError(t, err)

	step := master
	for _, i := range []uint32{1, 2, 3} {
		step, err = step.Child(i)
		require.NoError(t, err)
	}
	require.True(t, key.Equal(step))

	pubKey, err := master.Neuter().DeriveIndices(Path{1, 2, 3})
	require.NoError(t, err)
	require.True(t, pubKey.Equal(key.Neuter()))

	same, err := master.DerivePath("m")
	require.NoError(t, err)
	require.Same(t, master, same)
}
