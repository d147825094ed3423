package settlement

import "github.com/holiman/uint256"

// DecodeAmount reads a big-endian 256-bit cross-chain amount. Values wider
// than 64 bits keep only their low 8 bytes.
func DecodeAmount(raw [32]byte) uint64 {
	return new(uint256.Int).SetBytes32(raw[:]).Uint64()
}

// EncodeAmount writes amount as a big-endian 256-bit value.
func EncodeAmount(amount uint64) [32]byte {
	return uint256.NewInt(amount).Bytes32()
}
