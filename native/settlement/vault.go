package settlement

import (
	"optimex/crypto"
)

var (
	vaultSeed       = []byte("vault")
	nonceSeed       = []byte("nonce")
	tradeDetailSeed = []byte("trade_detail")
)

// VaultDerivation describes the escrow vault of a trade.
func VaultDerivation(program crypto.PublicKey, tradeID [32]byte) crypto.Derivation {
	return crypto.NewDerivation(program, vaultSeed, tradeID[:])
}

// VaultAddress returns the escrow vault of a trade.
func VaultAddress(program crypto.PublicKey, tradeID [32]byte) crypto.PublicKey {
	return VaultDerivation(program, tradeID).Address()
}

// NonceDerivation describes the nonce guard of an ephemeral key.
func NonceDerivation(program, ephemeral crypto.PublicKey) crypto.Derivation {
	return crypto.NewDerivation(program, nonceSeed, ephemeral[:])
}

// NonceAddress returns the nonce guard of an ephemeral key. The account
// exists exactly while a trade bound to the key is open.
func NonceAddress(program, ephemeral crypto.PublicKey) crypto.PublicKey {
	return NonceDerivation(program, ephemeral).Address()
}

// TradeDetailDerivation describes the account holding the trade record's
// storage reservation.
func TradeDetailDerivation(program crypto.PublicKey, tradeID [32]byte) crypto.Derivation {
	return crypto.NewDerivation(program, tradeDetailSeed, tradeID[:])
}

// vaultHandle binds a vault to the derivation that authorizes debits from it.
type vaultHandle struct {
	tradeID    [32]byte
	derivation crypto.Derivation
}

func (e *Engine) vault(tradeID [32]byte) vaultHandle {
	return vaultHandle{tradeID: tradeID, derivation: VaultDerivation(e.program, tradeID)}
}

func (v vaultHandle) address() crypto.PublicKey { return v.derivation.Address() }

func (e *Engine) nonceInUse(ephemeral crypto.PublicKey) (bool, error) {
	return e.state.AccountExists(NonceAddress(e.program, ephemeral))
}

func (e *Engine) releaseNonce(ephemeral, recipient crypto.PublicKey) error {
	return e.state.CloseDerived(NonceDerivation(e.program, ephemeral), recipient)
}
