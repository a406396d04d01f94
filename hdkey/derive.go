package hdkey

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// childDataLen is the length of the HMAC input used for child derivation.
// Both forms are 37 bytes:
//
//	hardened: 0x00 || ser256(k) || ser32(i)
//	normal:   serP(K) || ser32(i)
const childDataLen = btcec.PubKeyBytesLenCompressed + 4

// newChild assembles the child of k at index i from its key material and the
// right half of the derivation HMAC.
func (k *ExtendedKey) newChild(material keyMaterial, chainCode []byte,
	i uint32) *ExtendedKey {

	child := &ExtendedKey{
		material: material,
		depth:    k.depth + 1,
		parentFP: k.Fingerprint(),
		childNum: i,
		net:      k.net,
		parent:   fn.Some(k),
	}
	copy(child.chainCode[:], chainCode)

	log.Tracef("Derived %v", newLogClosure(func() string {
		return describeKey(child)
	}))

	return child
}

// DerivePrivate computes the private child of a private extended key at index
// i (CKDpriv). Indices at or above HardenedKeyStart produce hardened
// children.
//
// ErrInvalidChild is returned for the rare indices that do not produce a
// valid key. The derivation is not retried: the caller is expected to move on
// to the next index.
func (k *ExtendedKey) DerivePrivate(i uint32) (*ExtendedKey, error) {
	priv, ok := k.material.(*privateMaterial)
	if !ok {
		return nil, ErrNotPrivExtKey
	}

	// Prevent derivation of children beyond the max allowed depth.
	if k.depth == MaxDepth {
		return nil, ErrDeriveBeyondMaxDepth
	}

	var data [childDataLen]byte
	if IsHardened(i) {
		// Pad the private key with a leading zero as required by
		// [BIP32] for deriving the child.
		priv.scalar.PutBytesUnchecked(data[1:33])
	} else {
		copy(data[:33], priv.pub.SerializeCompressed())
	}
	index := Ser32(i)
	copy(data[33:], index[:])

	// Take the HMAC-SHA512 of the current key's chain code and the derived
	// data:
	//   I = HMAC-SHA512(Key = chainCode, Data = data)
	il, ir := hmacSplit(k.chainCode[:], data[:])

	// childKey = parse256(Il) + parentKey, invalid if parse256(Il) >= n
	// or the sum is zero.
	var childKey btcec.ModNScalar
	if overflow := childKey.SetByteSlice(il); overflow {
		log.Debugf("Child %d of %x has I_L >= n", i, k.Fingerprint())
		return nil, ErrInvalidChild
	}
	childKey.Add(&priv.scalar)
	if childKey.IsZero() {
		log.Debugf("Child %d of %x is the zero scalar", i,
			k.Fingerprint())
		return nil, ErrInvalidChild
	}

	return k.newChild(newPrivateMaterial(&childKey), ir, i), nil
}

// DerivePublic computes the public child of an extended key at index i
// (CKDpub). Only the public point of k is used, so the result is the same
// for a private key and its neutered form. Hardened indices are rejected
// with ErrDeriveHardFromPublic.
//
// As with DerivePrivate, ErrInvalidChild signals an index that must be
// skipped.
func (k *ExtendedKey) DerivePublic(i uint32) (*ExtendedKey, error) {
	// A hardened child extended key may not be created from a public
	// extended key.
	if IsHardened(i) {
		return nil, ErrDeriveHardFromPublic
	}

	if k.depth == MaxDepth {
		return nil, ErrDeriveBeyondMaxDepth
	}

	parentPub := k.material.pubKey()

	var data [childDataLen]byte
	copy(data[:33], parentPub.SerializeCompressed())
	index := Ser32(i)
	copy(data[33:], index[:])

	il, ir := hmacSplit(k.chainCode[:], data[:])

	var ilNum btcec.ModNScalar
	if overflow := ilNum.SetByteSlice(il); overflow {
		log.Debugf("Child %d of %x has I_L >= n", i, k.Fingerprint())
		return nil, ErrInvalidChild
	}

	// childKey = point(parse256(Il)) + parentKey
	var ilPoint, parentPoint, childPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&ilNum, &ilPoint)
	parentPub.AsJacobian(&parentPoint)
	btcec.AddNonConst(&ilPoint, &parentPoint, &childPoint)

	if isInfinity(&childPoint) {
		log.Debugf("Child %d of %x is the point at infinity", i,
			k.Fingerprint())
		return nil, ErrInvalidChild
	}
	childPoint.ToAffine()

	material := &publicMaterial{
		pub: btcec.NewPublicKey(&childPoint.X, &childPoint.Y),
	}

	return k.newChild(material, ir, i), nil
}

// Child returns a derived child extended key at the given index. A private
// key derives a private child with DerivePrivate, a public key derives a
// public child with DerivePublic.
func (k *ExtendedKey) Child(i uint32) (*ExtendedKey, error) {
	if k.IsPrivate() {
		return k.DerivePrivate(i)
	}

	return k.DerivePublic(i)
}

// Neuter returns a new extended public key from this extended private key. The
// same extended key will be returned unaltered if it is already an extended
// public key.
//
// As the name implies, an extended public key does not have access to the
// private key, so it is not capable of signing transactions or deriving
// child extended private keys. However, it is capable of deriving further
// child extended public keys.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	priv, ok := k.material.(*privateMaterial)
	if !ok {
		return k
	}

	return &ExtendedKey{
		material:  &publicMaterial{pub: priv.pub},
		chainCode: k.chainCode,
		depth:     k.depth,
		parentFP:  k.parentFP,
		childNum:  k.childNum,
		net:       k.net,
		parent:    k.parent,
	}
}

// isInfinity reports whether p is the point at infinity.
func isInfinity(p *btcec.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}
