package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcec/v2"
)

// masterKey is the HMAC key used along with a seed to generate the master
// node of the hierarchical tree.
var masterKey = []byte("Bitcoin seed")

// hmacSplit computes I = HMAC-SHA512(key, data) and splits it into the two
// 32-byte halves I_L and I_R.
func hmacSplit(key, data []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, key)
	_, _ = mac.Write(data)
	lr := mac.Sum(nil)

	return lr[:len(lr)/2], lr[len(lr)/2:]
}

// NewMaster creates a new master node for use in creating a hierarchical
// deterministic key chain. The seed may be of any length, including zero;
// GenerateSeed produces seeds of a recommended size.
//
// The master scalar is parse256(I_L) reduced modulo the curve order. It is not
// rejected when it falls outside [1, n-1], which happens with negligible
// probability.
func NewMaster(seed []byte, net Network) *ExtendedKey {
	// First take the HMAC-SHA512 of the master key and the seed data:
	//   I = HMAC-SHA512(Key = "Bitcoin seed", Data = S)
	//
	// Split "I" into two 32-byte sequences Il and Ir where:
	//   Il = master secret key
	//   Ir = master chain code
	il, ir := hmacSplit(masterKey, seed)

	var d btcec.ModNScalar
	d.SetByteSlice(il)

	key := &ExtendedKey{
		material: newPrivateMaterial(&d),
		net:      net,
	}
	copy(key.chainCode[:], ir)

	log.Debugf("Created %v master key with fingerprint %x", net,
		key.Fingerprint())

	return key
}
