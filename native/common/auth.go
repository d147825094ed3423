package common

import (
	stderrors "optimex/core/errors"
	"optimex/crypto"
)

// Policy decides whether a verified signer set may perform an operation.
type Policy interface {
	Authorize(signers crypto.SignerSet) error
}

// RequireSigner demands a signature from Key. Err defaults to Unauthorized.
type RequireSigner struct {
	Key crypto.PublicKey
	Err error
}

func (p RequireSigner) Authorize(signers crypto.SignerSet) error {
	if signers.Has(p.Key) {
		return nil
	}
	if p.Err != nil {
		return p.Err
	}
	return stderrors.ErrUnauthorized
}

// RequireAll passes when every member policy passes. The first failure is
// returned.
type RequireAll []Policy

func (p RequireAll) Authorize(signers crypto.SignerSet) error {
	for _, member := range p {
		if err := member.Authorize(signers); err != nil {
			return err
		}
	}
	return nil
}

// RequireAnyOf passes when at least one of Keys signed.
type RequireAnyOf struct {
	Keys []crypto.PublicKey
	Err  error
}

func (p RequireAnyOf) Authorize(signers crypto.SignerSet) error {
	for _, k := range p.Keys {
		if signers.Has(k) {
			return nil
		}
	}
	if p.Err != nil {
		return p.Err
	}
	return stderrors.ErrUnauthorized
}

// DualSignature requires two designated keys to sign the same operation.
func DualSignature(first, second crypto.PublicKey) Policy {
	return RequireAll{RequireSigner{Key: first}, RequireSigner{Key: second}}
}
