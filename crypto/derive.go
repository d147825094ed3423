package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var derivationMarker = []byte("ProgramDerivedAddress")

var (
	// NativeMint is the wrapped-native mint. Native currency is whitelisted
	// under this key.
	NativeMint = MustParsePublicKey("So11111111111111111111111111111111111111112")
	// TokenProgramID owns every token account.
	TokenProgramID = MustParsePublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	// DefaultProgramID is the settlement program used when none is configured.
	DefaultProgramID = PublicKey(ethcrypto.Keccak256Hash([]byte("optimex/settlement")))
)

// Derivation is the input an account address is derived from. Presenting it
// to the ledger proves that the caller speaks for the owning program.
type Derivation struct {
	Program PublicKey
	Seeds   [][]byte
}

// NewDerivation copies the seeds so later mutation by the caller cannot
// change the derived address.
func NewDerivation(program PublicKey, seeds ...[]byte) Derivation {
	cp := make([][]byte, len(seeds))
	for i, s := range seeds {
		cp[i] = append([]byte(nil), s...)
	}
	return Derivation{Program: program, Seeds: cp}
}

// Address returns the derived account address.
func (d Derivation) Address() PublicKey {
	return DeriveAddress(d.Program, d.Seeds...)
}

// DeriveAddress hashes the seeds with the program id. The result has no
// corresponding private key.
func DeriveAddress(program PublicKey, seeds ...[]byte) PublicKey {
	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, program[:], derivationMarker)
	return PublicKey(ethcrypto.Keccak256Hash(parts...))
}

// TokenAccountAddress returns the canonical token account holding mint for
// owner.
func TokenAccountAddress(owner, mint PublicKey) PublicKey {
	return DeriveAddress(TokenProgramID, owner[:], TokenProgramID[:], mint[:])
}
