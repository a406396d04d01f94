/*
Package hdkey implements BIP-32 hierarchical deterministic extended keys on
the secp256k1 curve.

A master key is created from a seed with NewMaster. Children are derived with
Child, which uses CKDpriv for private keys and CKDpub for public ones. Neuter
strips the private scalar from a key, after which only normal (non-hardened)
children can be derived:

	master := hdkey.NewMaster(seed, hdkey.MainNet)
	acct, err := master.DerivePath("m/44'/0'/0'")
	if err != nil {
		return err
	}
	xpub := acct.Neuter().String()

Keys serialize to the 78-byte layout of BIP-32 and to the Base58Check
strings prefixed xprv, xpub, tprv and tpub. NewKeyFromString parses them
back.

Every error returned by this package wraps exactly one of the kinds ErrParse,
ErrInvalidEncoding, ErrUnsupportedDerivation and ErrDerivationInvalid, so
callers can branch with errors.Is on either the specific error or its kind.

Extended keys are immutable once created, with the single exception of Zero,
and are safe for concurrent use.
*/
package hdkey
