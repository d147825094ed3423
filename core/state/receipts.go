package state

import (
	"fmt"

	"optimex/crypto"
	"optimex/native/payment"
)

const receiptReservedBytes = 128

func receiptStorageKey(addr crypto.PublicKey) []byte {
	return hashKey(receiptPrefix, addr[:])
}

type storedReceipt struct {
	TradeID       [32]byte
	From          crypto.PublicKey
	To            crypto.PublicKey
	HasToken      bool
	Token         crypto.PublicKey
	PaymentAmount uint64
	TotalFee      uint64
	PaymentTime   uint64
	Reserved      [receiptReservedBytes]byte
}

// ReceiptPut stores the receipt held by the account at addr.
func (m *Manager) ReceiptPut(addr crypto.PublicKey, r *payment.Receipt) error {
	if r == nil {
		return fmt.Errorf("receipt: nil record")
	}
	stored := &storedReceipt{
		TradeID:       r.TradeID,
		From:          r.From,
		To:            r.To,
		PaymentAmount: r.PaymentAmount,
		TotalFee:      r.TotalFee,
		PaymentTime:   uint64(r.PaymentTime),
	}
	if r.Token != nil {
		stored.HasToken = true
		stored.Token = *r.Token
	}
	return m.putRLP(receiptStorageKey(addr), stored)
}

// ReceiptGet loads the receipt held by the account at addr.
func (m *Manager) ReceiptGet(addr crypto.PublicKey) (*payment.Receipt, bool, error) {
	stored := new(storedReceipt)
	ok, err := m.getRLP(receiptStorageKey(addr), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	out := &payment.Receipt{
		TradeID:       stored.TradeID,
		From:          stored.From,
		To:            stored.To,
		PaymentAmount: stored.PaymentAmount,
		TotalFee:      stored.TotalFee,
		PaymentTime:   int64(stored.PaymentTime),
	}
	if stored.HasToken {
		token := stored.Token
		out.Token = &token
	}
	return out, true, nil
}

// ReceiptDelete removes the receipt held by the account at addr.
func (m *Manager) ReceiptDelete(addr crypto.PublicKey) error {
	m.remove(receiptStorageKey(addr))
	return nil
}
