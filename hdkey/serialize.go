package hdkey

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// checksumLen is the length of the double SHA-256 checksum appended to a
// serialized key before Base58 encoding.
const checksumLen = 4

// Serialize returns the 78-byte serialization of the key:
//
//	version(4) || depth(1) || parent fingerprint(4) ||
//	child number(4) || chain code(32) || key data(33)
//
// The key data of a private key is 0x00 || ser256(k), that of a public key
// is serP(K).
func (k *ExtendedKey) Serialize() [SerializedKeyLen]byte {
	var b [SerializedKeyLen]byte

	version := k.net.PublicVersion()
	if k.IsPrivate() {
		version = k.net.PrivateVersion()
	}
	binary.BigEndian.PutUint32(b[0:4], version)
	b[4] = k.depth
	copy(b[5:9], k.parentFP[:])
	binary.BigEndian.PutUint32(b[9:13], k.childNum)
	copy(b[13:45], k.chainCode[:])

	switch m := k.material.(type) {
	case *privateMaterial:
		m.scalar.PutBytesUnchecked(b[46:78])

	case *publicMaterial:
		copy(b[45:78], m.pub.SerializeCompressed())
	}

	return b
}

// String returns the extended key as a human-readable Base58Check string.
func (k *ExtendedKey) String() string {
	payload := k.Serialize()
	checksum := chainhash.DoubleHashB(payload[:])[:checksumLen]

	return base58.Encode(append(payload[:], checksum...))
}

// NewKeyFromString returns a new extended key instance from a Base58Check
// encoded extended key. A checksum mismatch is always fatal.
func NewKeyFromString(key string) (*ExtendedKey, error) {
	// The Base58-decoded extended key must consist of a serialized payload
	// plus an additional 4 bytes for the checksum.
	decoded := base58.Decode(key)
	if len(decoded) != SerializedKeyLen+checksumLen {
		return nil, ErrInvalidKeyLen
	}

	// The serialized format is:
	//   version (4) || depth (1) || parent fingerprint (4)) ||
	//   child num (4) || chain code (32) || key data (33) || checksum (4)

	// Split the payload and checksum up and ensure the checksum matches.
	payload := decoded[:SerializedKeyLen]
	checksum := decoded[SerializedKeyLen:]
	expected := chainhash.DoubleHashB(payload)[:checksumLen]
	if !bytes.Equal(checksum, expected) {
		return nil, ErrBadChecksum
	}

	return Deserialize(payload)
}

// Deserialize parses a 78-byte serialized extended key as produced by
// Serialize.
func Deserialize(payload []byte) (*ExtendedKey, error) {
	if len(payload) != SerializedKeyLen {
		return nil, ErrInvalidKeyLen
	}

	net, isPrivate, err := versionInfo(
		binary.BigEndian.Uint32(payload[0:4]),
	)
	if err != nil {
		return nil, err
	}

	params := &KeyParams{
		ChainCode: payload[13:45],
		Depth:     payload[4],
		ChildNum:  binary.BigEndian.Uint32(payload[9:13]),
		Net:       net,
	}
	copy(params.ParentFP[:], payload[5:9])

	keyData := payload[45:78]
	switch {
	case isPrivate && keyData[0] != 0x00:
		return nil, ErrKeyTypeMismatch

	case isPrivate:
		var d btcec.ModNScalar
		overflow := d.SetByteSlice(keyData[1:])
		if overflow || d.IsZero() {
			return nil, ErrInvalidPrivKey
		}
		params.PrivKey = &btcec.PrivateKey{Key: d}

	case keyData[0] == 0x00:
		return nil, ErrKeyTypeMismatch

	default:
		pub, err := ParseP(keyData)
		if err != nil {
			return nil, err
		}
		params.PubKey = pub
	}

	return NewExtendedKey(params)
}

// describeKey renders the public metadata of a key for log output. Private
// material is never included.
func describeKey(k *ExtendedKey) string {
	kind := "public"
	if k.IsPrivate() {
		kind = "private"
	}

	return fmt.Sprintf("%s key depth=%d child=%s parent=%x pub=%x", kind,
		k.depth, formatIndex(k.childNum), k.parentFP, k.PubKeyBytes())
}
