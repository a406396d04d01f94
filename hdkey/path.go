package hdkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a parsed derivation path: the child indices to apply, in order,
// starting from the master key. Hardened indices have bit 31 set.
type Path []uint32

// String renders the path in the "m/44'/0'/0" form accepted by ParsePath.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, i := range p {
		b.WriteString("/")
		b.WriteString(formatIndex(i))
	}

	return b.String()
}

// Child returns a new path that extends p by the index i.
func (p Path) Child(i uint32) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)

	return append(child, i)
}

// formatIndex renders a single child index, marking hardened indices with a
// trailing apostrophe.
func formatIndex(i uint32) string {
	if IsHardened(i) {
		return strconv.FormatUint(uint64(i-HardenedKeyStart), 10) + "'"
	}

	return strconv.FormatUint(uint64(i), 10)
}

// ParsePath parses a derivation path of the form "m/0'/1/2h". A segment
// ending in "'", "h" or "H" denotes a hardened index. Segment values must be
// below 2^31 before hardening.
func ParsePath(path string) (Path, error) {
	segments := strings.Split(path, "/")
	if segments[0] != "m" {
		return nil, fmt.Errorf("%w: %q does not start with \"m\"",
			ErrInvalidPath, path)
	}

	indices := make(Path, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		i, err := parseIndex(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q of %q: %v",
				ErrInvalidPath, segment, path, err)
		}
		indices = append(indices, i)
	}

	return indices, nil
}

// parseIndex parses one path segment into a child index.
func parseIndex(segment string) (uint32, error) {
	hardened := false
	if n := len(segment); n > 0 {
		switch segment[n-1] {
		case '\'', 'h', 'H':
			hardened = true
			segment = segment[:n-1]
		}
	}

	if segment == "" {
		return 0, fmt.Errorf("empty index")
	}
	for _, c := range segment {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-numeric index")
		}
	}

	index, err := strconv.ParseUint(segment, 10, 32)
	if err != nil {
		return 0, err
	}
	if index >= uint64(HardenedKeyStart) {
		return 0, fmt.Errorf("index %d exceeds %d", index,
			HardenedKeyStart-1)
	}

	if hardened {
		return HardenedIndex(uint32(index)), nil
	}

	return uint32(index), nil
}

// DerivePath parses path and derives the key it names. The receiver must be
// a master key (depth 0); a private master walks the path with CKDpriv, a
// public one with CKDpub. Any failure along the way aborts the walk and no
// partial result is returned.
func (k *ExtendedKey) DerivePath(path string) (*ExtendedKey, error) {
	if k.depth != 0 {
		return nil, ErrNotMaster
	}

	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	return k.DeriveIndices(indices)
}

// DeriveIndices walks a parsed path from the master key k. See DerivePath.
func (k *ExtendedKey) DeriveIndices(path Path) (*ExtendedKey, error) {
	if k.depth != 0 {
		return nil, ErrNotMaster
	}

	var (
		key = k
		err error
	)
	for n, i := range path {
		key, err = key.Child(i)
		if err != nil {
			return nil, fmt.Errorf("unable to derive %v: %w",
				path[:n+1], err)
		}
	}

	return key, nil
}
