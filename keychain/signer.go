package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// NewPubKeyMessageSigner wraps the key of a signer ring so it adheres to the
// SingleKeyMessageSigner interface.
func NewPubKeyMessageSigner(pubKey *btcec.PublicKey, keyLoc KeyLocator,
	signer MessageSignerRing) *PubKeyMessageSigner {

	return &PubKeyMessageSigner{
		pubKey:       pubKey,
		keyLoc:       keyLoc,
		digestSigner: signer,
	}
}

// PubKeyMessageSigner signs with the private key a MessageSignerRing holds
// for a single key locator.
type PubKeyMessageSigner struct {
	pubKey       *btcec.PublicKey
	keyLoc       KeyLocator
	digestSigner MessageSignerRing
}

// PubKey returns the public key of the wrapped private key.
func (p *PubKeyMessageSigner) PubKey() *btcec.PublicKey {
	return p.pubKey
}

// KeyLocator returns the locator that describes the wrapped private key.
func (p *PubKeyMessageSigner) KeyLocator() KeyLocator {
	return p.keyLoc
}

// SignMessage signs the message with the ring's key.
func (p *PubKeyMessageSigner) SignMessage(message []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	return p.digestSigner.SignMessage(p.keyLoc, message, doubleHash)
}

// SignMessageCompact signs the message with the ring's key and returns a
// public key recoverable signature.
func (p *PubKeyMessageSigner) SignMessageCompact(msg []byte,
	doubleHash bool) ([]byte, error) {

	return p.digestSigner.SignMessageCompact(p.keyLoc, msg, doubleHash)
}

// PrivKeyMessageSigner is a SingleKeyMessageSigner over a private key held
// in memory.
type PrivKeyMessageSigner struct {
	privKey *btcec.PrivateKey
	keyLoc  KeyLocator
}

// NewPrivKeyMessageSigner wraps privKey, described by keyLoc.
func NewPrivKeyMessageSigner(privKey *btcec.PrivateKey,
	keyLoc KeyLocator) *PrivKeyMessageSigner {

	return &PrivKeyMessageSigner{
		privKey: privKey,
		keyLoc:  keyLoc,
	}
}

// PubKey returns the public key of the wrapped private key.
func (p *PrivKeyMessageSigner) PubKey() *btcec.PublicKey {
	return p.privKey.PubKey()
}

// KeyLocator returns the locator that describes the wrapped private key.
func (p *PrivKeyMessageSigner) KeyLocator() KeyLocator {
	return p.keyLoc
}

// SignMessage signs the message with the wrapped key.
func (p *PrivKeyMessageSigner) SignMessage(msg []byte,
	doubleHash bool) (*ecdsa.Signature, error) {

	return ecdsa.Sign(p.privKey, messageDigest(msg, doubleHash)), nil
}

// SignMessageCompact signs the message with the wrapped key and returns a
// public key recoverable signature.
func (p *PrivKeyMessageSigner) SignMessageCompact(msg []byte,
	doubleHash bool) ([]byte, error) {

	return ecdsa.SignCompact(
		p.privKey, messageDigest(msg, doubleHash), true,
	), nil
}

var _ SingleKeyMessageSigner = (*PubKeyMessageSigner)(nil)
var _ SingleKeyMessageSigner = (*PrivKeyMessageSigner)(nil)
