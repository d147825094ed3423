package crypto

import "fmt"

// Signature pairs a signer key with its signature over an operation message.
type Signature struct {
	Signer    PublicKey
	Signature []byte
}

// SignerSet holds the keys whose signatures were verified for a single
// operation. Authorization policies are evaluated against it.
type SignerSet map[PublicKey]struct{}

// NewSignerSet builds a set from keys that were authenticated elsewhere, for
// example by the transport.
func NewSignerSet(keys ...PublicKey) SignerSet {
	set := make(SignerSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// VerifySigners checks every signature against msg and returns the set of
// signers. A single bad signature rejects the whole set.
func VerifySigners(msg []byte, sigs []Signature) (SignerSet, error) {
	set := make(SignerSet, len(sigs))
	for i, sig := range sigs {
		if !Verify(sig.Signer, msg, sig.Signature) {
			return nil, fmt.Errorf("%w: signature %d by %s", ErrInvalidSignature, i, sig.Signer)
		}
		set[sig.Signer] = struct{}{}
	}
	return set, nil
}

// Has reports whether key signed.
func (s SignerSet) Has(key PublicKey) bool {
	if s == nil {
		return false
	}
	_, ok := s[key]
	return ok
}
