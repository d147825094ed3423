package payment

import (
	"encoding/binary"

	"optimex/crypto"
)

var receiptSeed = []byte("payment_receipt")

// Receipt records a direct payment from a market maker to a user.
type Receipt struct {
	TradeID [32]byte
	From    crypto.PublicKey
	To      crypto.PublicKey
	// Token is nil for native currency.
	Token *crypto.PublicKey
	// PaymentAmount is the gross amount, fee included.
	PaymentAmount uint64
	TotalFee      uint64
	PaymentTime   int64
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	out := *r
	if r.Token != nil {
		token := *r.Token
		out.Token = &token
	}
	return &out
}

// Key returns the identifying fields of the receipt.
func (r *Receipt) Key() ReceiptKey {
	return ReceiptKey{
		TradeID:  r.TradeID,
		From:     r.From,
		To:       r.To,
		Token:    r.Token,
		Amount:   r.PaymentAmount,
		TotalFee: r.TotalFee,
	}
}

// ReceiptKey identifies a receipt. Two payments with identical keys collide.
type ReceiptKey struct {
	TradeID  [32]byte
	From     crypto.PublicKey
	To       crypto.PublicKey
	Token    *crypto.PublicKey
	Amount   uint64
	TotalFee uint64
}

// Seeds returns the derivation seeds of the receipt account. Native payments
// use the zero key in the token slot.
func (k ReceiptKey) Seeds() [][]byte {
	amount := make([]byte, 8)
	binary.LittleEndian.PutUint64(amount, k.Amount)
	fee := make([]byte, 8)
	binary.LittleEndian.PutUint64(fee, k.TotalFee)
	var token crypto.PublicKey
	if k.Token != nil {
		token = *k.Token
	}
	return [][]byte{receiptSeed, k.TradeID[:], k.From[:], k.To[:], amount, fee, token[:]}
}

// Derivation returns the receipt account derivation under program.
func (k ReceiptKey) Derivation(program crypto.PublicKey) crypto.Derivation {
	return crypto.NewDerivation(program, k.Seeds()...)
}
