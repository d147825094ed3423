package settlement

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"optimex/crypto"
)

const (
	chainFieldAddress = 0
	chainFieldNetwork = 1
	chainFieldToken   = 2

	nativeAssetMarker = "native"
)

// TradeInfo carries the cross-chain leg description of a trade. FromChain and
// ToChain hold [address text, network id, token address text or "native"].
type TradeInfo struct {
	AmountIn  [32]byte
	FromChain [3][]byte
	ToChain   [3][]byte
}

// TradeInput is the canonical parameter set a trade id is derived from.
type TradeInput struct {
	SessionID [32]byte
	Solver    [20]byte
	TradeInfo TradeInfo
}

// abiTradeInfo mirrors TradeInfo with the Go types the ABI packer expects.
type abiTradeInfo struct {
	AmountIn  *big.Int
	FromChain [3][]byte
	ToChain   [3][]byte
}

var tradeInputArgs = mustTradeInputArgs()

func mustTradeInputArgs() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	infoType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "amountIn", Type: "uint256"},
		{Name: "fromChain", Type: "bytes[3]"},
		{Name: "toChain", Type: "bytes[3]"},
	})
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: uint256Type}, {Type: addressType}, {Type: infoType}}
}

// Encode returns the ABI encoding of (uint256 sessionId, address solver,
// (uint256 amountIn, bytes[3] fromChain, bytes[3] toChain)).
func (in TradeInput) Encode() ([]byte, error) {
	info := abiTradeInfo{
		AmountIn:  new(big.Int).SetBytes(in.TradeInfo.AmountIn[:]),
		FromChain: in.TradeInfo.FromChain,
		ToChain:   in.TradeInfo.ToChain,
	}
	for i := range info.FromChain {
		if info.FromChain[i] == nil {
			info.FromChain[i] = []byte{}
		}
		if info.ToChain[i] == nil {
			info.ToChain[i] = []byte{}
		}
	}
	packed, err := tradeInputArgs.Pack(
		new(big.Int).SetBytes(in.SessionID[:]),
		common.Address(in.Solver),
		info,
	)
	if err != nil {
		return nil, fmt.Errorf("settlement: encode trade input: %w", err)
	}
	return packed, nil
}

// TradeID hashes the canonical encoding with SHA-256.
func (in TradeInput) TradeID() ([32]byte, error) {
	encoded, err := in.Encode()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(encoded), nil
}

// Amount decodes AmountIn as the deposit amount.
func (in TradeInput) Amount() uint64 {
	return DecodeAmount(in.TradeInfo.AmountIn)
}

// Depositor parses the source chain address as a public key.
func (in TradeInput) Depositor() (crypto.PublicKey, error) {
	return crypto.ParsePublicKey(string(in.TradeInfo.FromChain[chainFieldAddress]))
}

// Asset parses the source chain token. "native" yields nil.
func (in TradeInput) Asset() (*crypto.PublicKey, error) {
	raw := string(in.TradeInfo.FromChain[chainFieldToken])
	if raw == nativeAssetMarker {
		return nil, nil
	}
	key, err := crypto.ParsePublicKey(raw)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
