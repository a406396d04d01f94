package hdkey

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// HardenedKeyStart is the index at which a hardened key starts. Each
	// extended key has 2^31 normal child keys and 2^31 hardened child
	// keys. Thus the range for normal child keys is [0, 2^31 - 1] and the
	// range for hardened child keys is [2^31, 2^32 - 1].
	HardenedKeyStart uint32 = 0x80000000

	// ChainCodeLen is the length of the chain code carried by every
	// extended key.
	ChainCodeLen = 32

	// SerializedKeyLen is the length of a serialized extended key,
	// without its checksum.
	SerializedKeyLen = 4 + 1 + 4 + 4 + ChainCodeLen + 33

	// MaxDepth is the depth of the deepest key that can be represented.
	// Keys at this depth can not have children.
	MaxDepth = 255
)

// IsHardened returns true if the child index i selects hardened derivation.
func IsHardened(i uint32) bool {
	return i >= HardenedKeyStart
}

// HardenedIndex returns the hardened form of the child index i.
func HardenedIndex(i uint32) uint32 {
	return i | HardenedKeyStart
}

// keyMaterial is the key held by an extended key: either a private scalar
// (privateMaterial) or a public point (publicMaterial).
type keyMaterial interface {
	// pubKey returns the public projection of the key material.
	pubKey() *btcec.PublicKey
}

// privateMaterial is a private scalar together with its memoised public
// point.
type privateMaterial struct {
	scalar btcec.ModNScalar
	pub    *btcec.PublicKey
}

// newPrivateMaterial computes point(d) for the scalar d and returns the
// resulting key material.
func newPrivateMaterial(d *btcec.ModNScalar) *privateMaterial {
	var point btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(d, &point)
	point.ToAffine()

	return &privateMaterial{
		scalar: *d,
		pub:    btcec.NewPublicKey(&point.X, &point.Y),
	}
}

func (p *privateMaterial) pubKey() *btcec.PublicKey {
	return p.pub
}

// publicMaterial is a public point without its private scalar.
type publicMaterial struct {
	pub *btcec.PublicKey
}

func (p *publicMaterial) pubKey() *btcec.PublicKey {
	return p.pub
}

// ExtendedKey houses all the information needed to support a hierarchical
// deterministic extended key. An ExtendedKey is never modified after it has
// been created, so it can be shared between goroutines freely. See the
// package overview documentation for more details on how to use extended
// keys.
type ExtendedKey struct {
	material  keyMaterial
	chainCode [ChainCodeLen]byte
	depth     uint8
	parentFP  [4]byte
	childNum  uint32
	net       Network

	// parent is the key this key was derived from, if it was derived in
	// this process. It is only kept for provenance.
	parent fn.Option[*ExtendedKey]
}

// KeyParams holds the raw fields of an extended key to be validated by
// NewExtendedKey.
type KeyParams struct {
	// PrivKey is the private key of a private extended key. Exactly one
	// of PrivKey and PubKey must be set.
	PrivKey *btcec.PrivateKey

	// PubKey is the public key of a public extended key.
	PubKey *btcec.PublicKey

	// ChainCode must be exactly ChainCodeLen bytes.
	ChainCode []byte

	// Depth is the number of derivation steps from the master key.
	Depth uint8

	// ParentFP is the fingerprint of the parent key. If Parent is set the
	// fingerprint is computed from it and ParentFP may be left empty.
	ParentFP [4]byte

	// ChildNum is the index used to derive this key from its parent.
	ChildNum uint32

	// Net selects the serialization version bytes.
	Net Network

	// Parent optionally references the parent extended key.
	Parent fn.Option[*ExtendedKey]
}

// NewExtendedKey returns a new extended key built from the passed params. The
// params are validated so that the returned key satisfies every invariant of
// an extended key.
func NewExtendedKey(params *KeyParams) (*ExtendedKey, error) {
	var material keyMaterial
	switch {
	case (params.PrivKey == nil) == (params.PubKey == nil):
		return nil, ErrKeyMaterial

	case params.PrivKey != nil:
		if params.PrivKey.Key.IsZero() {
			return nil, ErrInvalidPrivKey
		}
		material = newPrivateMaterial(&params.PrivKey.Key)

	default:
		material = &publicMaterial{pub: params.PubKey}
	}

	if len(params.ChainCode) != ChainCodeLen {
		return nil, ErrInvalidChainCode
	}

	parentFP := params.ParentFP
	if params.Depth == 0 {
		if parentFP != ([4]byte{}) || params.ChildNum != 0 ||
			params.Parent.IsSome() {

			return nil, fmt.Errorf("%w: master key with parent "+
				"data", ErrInvalidParent)
		}
	}

	var parentErr error
	params.Parent.WhenSome(func(parent *ExtendedKey) {
		if uint16(parent.depth)+1 != uint16(params.Depth) {
			parentErr = fmt.Errorf("%w: parent depth %d, child "+
				"depth %d", ErrInvalidParent, parent.depth,
				params.Depth)
			return
		}

		fp := parent.Fingerprint()
		if parentFP != ([4]byte{}) && parentFP != fp {
			parentErr = fmt.Errorf("%w: fingerprint %x does not "+
				"match parent %x", ErrInvalidParent, parentFP,
				fp)
			return
		}
		parentFP = fp
	})
	if parentErr != nil {
		return nil, parentErr
	}

	key := &ExtendedKey{
		material: material,
		depth:    params.Depth,
		parentFP: parentFP,
		childNum: params.ChildNum,
		net:      params.Net,
		parent:   params.Parent,
	}
	copy(key.chainCode[:], params.ChainCode)

	return key, nil
}

// IsPrivate returns whether or not the extended key is a private extended
// key.
func (k *ExtendedKey) IsPrivate() bool {
	_, ok := k.material.(*privateMaterial)
	return ok
}

// Depth returns the number of derivation steps between this key and the
// master key.
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ChildIndex returns the index at which the child extended key was derived.
// Hardened indices have bit 31 set.
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.childNum
}

// IsHardened returns true if the key was reached by hardened derivation.
func (k *ExtendedKey) IsHardened() bool {
	return IsHardened(k.childNum)
}

// ParentFingerprint returns the fingerprint of the parent extended key from
// which this one was derived. It is all zero for the master key.
func (k *ExtendedKey) ParentFingerprint() [4]byte {
	return k.parentFP
}

// Fingerprint returns the fingerprint of this key, which is what its
// children record as their parent fingerprint.
func (k *ExtendedKey) Fingerprint() [4]byte {
	return fingerprint(k.material.pubKey())
}

// ChainCode returns a copy of the chain code.
func (k *ExtendedKey) ChainCode() []byte {
	return append([]byte(nil), k.chainCode[:]...)
}

// Network returns the network the key serializes for.
func (k *ExtendedKey) Network() Network {
	return k.net
}

// IsForNet returns whether or not the extended key is associated with the
// passed network.
func (k *ExtendedKey) IsForNet(net Network) bool {
	return k.net == net
}

// WithNetwork returns a copy of the key that serializes for net.
func (k *ExtendedKey) WithNetwork(net Network) *ExtendedKey {
	clone := *k
	clone.net = net

	// The scalar is copied so that Zero on one key leaves the other
	// intact.
	if priv, ok := k.material.(*privateMaterial); ok {
		material := *priv
		clone.material = &material
	}

	return &clone
}

// Parent returns the key this key was derived from, if it is known.
func (k *ExtendedKey) Parent() fn.Option[*ExtendedKey] {
	return k.parent
}

// ECPubKey returns the public point of the key, which for a private key is
// point(d).
func (k *ExtendedKey) ECPubKey() *btcec.PublicKey {
	return k.material.pubKey()
}

// PubKeyBytes returns serP of the key's public point.
func (k *ExtendedKey) PubKeyBytes() []byte {
	return k.material.pubKey().SerializeCompressed()
}

// ECPrivKey converts the extended key to a btcec private key and returns it.
// As you might imagine this is only possible if the extended key is a private
// extended key (as determined by the IsPrivate function). The
// ErrNotPrivExtKey error will be returned if this function is called on a
// public extended key.
func (k *ExtendedKey) ECPrivKey() (*btcec.PrivateKey, error) {
	priv, ok := k.material.(*privateMaterial)
	if !ok {
		return nil, ErrNotPrivExtKey
	}

	b := priv.scalar.Bytes()
	privKey, _ := btcec.PrivKeyFromBytes(b[:])

	return privKey, nil
}

// Equal reports whether both keys have the same serialized form.
func (k *ExtendedKey) Equal(other *ExtendedKey) bool {
	return k.Serialize() == other.Serialize()
}

// Zero manually clears all fields and bytes in the extended key. This can be
// used to explicitly clear key material from memory for enhanced security
// against memory scraping. The key is left as a public key with an all zero
// chain code. It must not be called while other goroutines still use the
// key.
func (k *ExtendedKey) Zero() {
	if priv, ok := k.material.(*privateMaterial); ok {
		priv.scalar.Zero()
		k.material = &publicMaterial{pub: priv.pub}
	}

	for i := range k.chainCode {
		k.chainCode[i] = 0
	}
	k.depth = 0
	k.parentFP = [4]byte{}
	k.childNum = 0
	k.parent = fn.None[*ExtendedKey]()
}
