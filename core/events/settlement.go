package events

import (
	"encoding/hex"
	"strconv"

	"optimex/core/types"
	"optimex/crypto"
)

const (
	TypeTradeDeposited     = "settlement.deposited"
	TypeTradeSettled       = "settlement.settled"
	TypeTradeClaimed       = "settlement.claimed"
	TypePaymentTransferred = "payment.transferred"
	TypeFeeWithdrawn       = "fees.withdrawn"
)

// NativeAsset is the token attribute value used for native currency.
const NativeAsset = "native"

// TradeDeposited is emitted when a depositor funds a trade vault.
type TradeDeposited struct {
	TradeID [32]byte
	From    crypto.PublicKey
	Token   *crypto.PublicKey
	Amount  uint64
	Vault   crypto.PublicKey
}

func (TradeDeposited) EventType() string { return TypeTradeDeposited }

func (e TradeDeposited) Event() *types.Event {
	return &types.Event{Type: TypeTradeDeposited, Attributes: map[string]string{
		"tradeId": tradeIDHex(e.TradeID),
		"from":    e.From.String(),
		"token":   assetString(e.Token),
		"amount":  strconv.FormatUint(e.Amount, 10),
		"vault":   e.Vault.String(),
	}}
}

// TradeSettled is emitted when the MPC releases a vault to the market maker.
// SettlementAmount is net of TotalFee.
type TradeSettled struct {
	TradeID          [32]byte
	Operator         crypto.PublicKey
	To               crypto.PublicKey
	Token            *crypto.PublicKey
	SettlementAmount uint64
	TotalFee         uint64
	Vault            crypto.PublicKey
	Protocol         crypto.PublicKey
}

func (TradeSettled) EventType() string { return TypeTradeSettled }

func (e TradeSettled) Event() *types.Event {
	return &types.Event{Type: TypeTradeSettled, Attributes: map[string]string{
		"tradeId":          tradeIDHex(e.TradeID),
		"operator":         e.Operator.String(),
		"to":               e.To.String(),
		"token":            assetString(e.Token),
		"settlementAmount": strconv.FormatUint(e.SettlementAmount, 10),
		"totalFee":         strconv.FormatUint(e.TotalFee, 10),
		"vault":            e.Vault.String(),
		"protocol":         e.Protocol.String(),
	}}
}

// TradeClaimed is emitted when an expired deposit is refunded.
type TradeClaimed struct {
	TradeID  [32]byte
	Token    *crypto.PublicKey
	To       crypto.PublicKey
	Operator crypto.PublicKey
	Amount   uint64
}

func (TradeClaimed) EventType() string { return TypeTradeClaimed }

func (e TradeClaimed) Event() *types.Event {
	return &types.Event{Type: TypeTradeClaimed, Attributes: map[string]string{
		"tradeId":  tradeIDHex(e.TradeID),
		"token":    assetString(e.Token),
		"to":       e.To.String(),
		"operator": e.Operator.String(),
		"amount":   strconv.FormatUint(e.Amount, 10),
	}}
}

// PaymentTransferred is emitted when a market maker pays a user directly.
// PaymentAmount is net of TotalFee.
type PaymentTransferred struct {
	TradeID       [32]byte
	From          crypto.PublicKey
	To            crypto.PublicKey
	Token         *crypto.PublicKey
	PaymentAmount uint64
	TotalFee      uint64
	Protocol      crypto.PublicKey
}

func (PaymentTransferred) EventType() string { return TypePaymentTransferred }

func (e PaymentTransferred) Event() *types.Event {
	return &types.Event{Type: TypePaymentTransferred, Attributes: map[string]string{
		"tradeId":       tradeIDHex(e.TradeID),
		"from":          e.From.String(),
		"to":            e.To.String(),
		"token":         assetString(e.Token),
		"paymentAmount": strconv.FormatUint(e.PaymentAmount, 10),
		"totalFee":      strconv.FormatUint(e.TotalFee, 10),
		"protocol":      e.Protocol.String(),
	}}
}

// FeeWithdrawn is emitted when collected protocol fees leave the pool.
type FeeWithdrawn struct {
	Token    *crypto.PublicKey
	To       crypto.PublicKey
	Operator crypto.PublicKey
	Amount   uint64
}

func (FeeWithdrawn) EventType() string { return TypeFeeWithdrawn }

func (e FeeWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeFeeWithdrawn, Attributes: map[string]string{
		"token":    assetString(e.Token),
		"to":       e.To.String(),
		"operator": e.Operator.String(),
		"amount":   strconv.FormatUint(e.Amount, 10),
	}}
}

func tradeIDHex(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func assetString(token *crypto.PublicKey) string {
	if token == nil {
		return NativeAsset
	}
	return token.String()
}
