package hdkey

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// twoTo256 is the modulus used to bring out of range integers back into the
// domain of ser256.
var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Ser32 serializes a 32-bit unsigned integer as 4 bytes, most significant
// byte first.
func Ser32(i uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], i)
	return b
}

// Ser256 serializes p as a 32-byte big-endian unsigned integer. Values that
// are negative or do not fit in 256 bits are reduced modulo 2^256 first, so
// the result is always exactly 32 bytes.
func Ser256(p *big.Int) [32]byte {
	var b [32]byte

	v := p
	if p.Sign() < 0 || p.BitLen() > 256 {
		// Mod (unlike Rem) always yields a non-negative result.
		v = new(big.Int).Mod(p, twoTo256)
	}
	v.FillBytes(b[:])

	return b
}

// Parse256 interprets b as an unsigned big-endian integer.
func Parse256(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// SerP serializes a point in SEC1 compressed form: (0x02|0x03) || X.
func SerP(pub *btcec.PublicKey) [btcec.PubKeyBytesLenCompressed]byte {
	var b [btcec.PubKeyBytesLenCompressed]byte
	copy(b[:], pub.SerializeCompressed())
	return b
}

// ParseP decodes a 33-byte compressed point. Uncompressed or hybrid
// encodings, as well as points not on the curve, are rejected.
func ParseP(b []byte) (*btcec.PublicKey, error) {
	if len(b) != btcec.PubKeyBytesLenCompressed {
		return nil, ErrInvalidPubKey
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return nil, ErrInvalidPubKey
	}

	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}

	return pub, nil
}

// Hash160 returns RIPEMD160(SHA256(serP(pub))).
func Hash160(pub *btcec.PublicKey) []byte {
	return btcutil.Hash160(pub.SerializeCompressed())
}

// fingerprint returns the first four bytes of the Hash160 of pub.
func fingerprint(pub *btcec.PublicKey) [4]byte {
	var fp [4]byte
	copy(fp[:], Hash160(pub))
	return fp
}
