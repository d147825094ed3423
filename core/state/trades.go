package state

import (
	"fmt"

	"optimex/crypto"
	"optimex/native/settlement"
)

// tradeReservedBytes keeps room for fields added by later record versions.
const tradeReservedBytes = 128

func tradeStorageKey(id [32]byte) []byte {
	return hashKey(tradePrefix, id[:])
}

type storedTrade struct {
	ID          [32]byte
	User        crypto.PublicKey
	HasToken    bool
	Token       crypto.PublicKey
	Amount      uint64
	Timeout     uint64
	MPC         crypto.PublicKey
	Ephemeral   crypto.PublicKey
	Refund      crypto.PublicKey
	HasTotalFee bool
	TotalFee    uint64
	Status      uint8
	SettledPMM  crypto.PublicKey
	Reserved    [tradeReservedBytes]byte
}

func newStoredTrade(t *settlement.Trade) *storedTrade {
	out := &storedTrade{
		ID:         t.ID,
		User:       t.User,
		Amount:     t.Amount,
		Timeout:    uint64(t.Timeout),
		MPC:        t.MPC,
		Ephemeral:  t.Ephemeral,
		Refund:     t.Refund,
		Status:     uint8(t.Status),
		SettledPMM: t.SettledPMM,
	}
	if t.Token != nil {
		out.HasToken = true
		out.Token = *t.Token
	}
	if t.TotalFee != nil {
		out.HasTotalFee = true
		out.TotalFee = *t.TotalFee
	}
	return out
}

func (s *storedTrade) toTrade() (*settlement.Trade, error) {
	out := &settlement.Trade{
		ID:         s.ID,
		User:       s.User,
		Amount:     s.Amount,
		Timeout:    int64(s.Timeout),
		MPC:        s.MPC,
		Ephemeral:  s.Ephemeral,
		Refund:     s.Refund,
		Status:     settlement.TradeStatus(s.Status),
		SettledPMM: s.SettledPMM,
	}
	if s.HasToken {
		token := s.Token
		out.Token = &token
	}
	if s.HasTotalFee {
		fee := s.TotalFee
		out.TotalFee = &fee
	}
	if err := out.Sanitize(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradePut persists the trade record.
func (m *Manager) TradePut(t *settlement.Trade) error {
	if t == nil {
		return fmt.Errorf("trade: nil record")
	}
	if err := t.Sanitize(); err != nil {
		return err
	}
	return m.putRLP(tradeStorageKey(t.ID), newStoredTrade(t))
}

// TradeGet loads the trade record by id.
func (m *Manager) TradeGet(id [32]byte) (*settlement.Trade, bool, error) {
	stored := new(storedTrade)
	ok, err := m.getRLP(tradeStorageKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	trade, err := stored.toTrade()
	if err != nil {
		return nil, false, err
	}
	return trade, true, nil
}

// TradeDelete removes the trade record.
func (m *Manager) TradeDelete(id [32]byte) error {
	m.remove(tradeStorageKey(id))
	return nil
}
