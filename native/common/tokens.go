package common

import (
	stderrors "optimex/core/errors"
	"optimex/crypto"
)

// TokenAccounts names the token accounts a token movement touches. Callers
// supply them and the engines re-derive each one before moving funds.
type TokenAccounts struct {
	Mint        crypto.PublicKey
	Source      crypto.PublicKey
	Destination crypto.PublicKey
	// Protocol is the fee pool token account. Only checked when a fee moves.
	Protocol crypto.PublicKey
}

// TokenRoute describes a token movement from From to To, with an optional
// fee leg into the pool account owned by Protocol.
type TokenRoute struct {
	Mint     crypto.PublicKey
	From     crypto.PublicKey
	To       crypto.PublicKey
	Protocol crypto.PublicKey
	WithFee  bool
}

// CheckTokenRoute verifies the supplied accounts match the canonical token
// accounts of the route.
func CheckTokenRoute(accts *TokenAccounts, route TokenRoute) error {
	if accts == nil {
		return stderrors.ErrInvalidTokenAccount
	}
	if accts.Mint != route.Mint {
		return stderrors.ErrInvalidMintKey
	}
	if accts.Source != crypto.TokenAccountAddress(route.From, route.Mint) {
		return stderrors.ErrInvalidSourceAta
	}
	if accts.Destination != crypto.TokenAccountAddress(route.To, route.Mint) {
		return stderrors.ErrInvalidDestinationAta
	}
	if route.WithFee && accts.Protocol != crypto.TokenAccountAddress(route.Protocol, route.Mint) {
		return stderrors.ErrInvalidDestinationAta
	}
	return nil
}

// CanonicalTokenAccounts builds the accounts CheckTokenRoute expects. Clients
// and tests use it to fill requests.
func CanonicalTokenAccounts(route TokenRoute) *TokenAccounts {
	out := &TokenAccounts{
		Mint:        route.Mint,
		Source:      crypto.TokenAccountAddress(route.From, route.Mint),
		Destination: crypto.TokenAccountAddress(route.To, route.Mint),
	}
	if route.WithFee {
		out.Protocol = crypto.TokenAccountAddress(route.Protocol, route.Mint)
	}
	return out
}
