package state

import (
	"fmt"

	"optimex/crypto"
	"optimex/native/params"
)

const (
	configReservedBytes      = 112
	whitelistReservedBytes   = 64
	feeReceiverReservedBytes = 64
)

type storedConfig struct {
	Admin                crypto.PublicKey
	Operators            []crypto.PublicKey
	CloseTradeDuration   uint64
	ClosePaymentDuration uint64
	Reserved             [configReservedBytes]byte
}

type storedWhitelist struct {
	Token     crypto.PublicKey
	MinAmount uint64
	Reserved  [whitelistReservedBytes]byte
}

type storedFeeReceiver struct {
	Receiver crypto.PublicKey
	Reserved [feeReceiverReservedBytes]byte
}

func whitelistKey(token crypto.PublicKey) []byte {
	return hashKey(whitelistPrefix, token[:])
}

func feeReceiverKey(receiver crypto.PublicKey) []byte {
	return hashKey(feeReceiverPrefix, receiver[:])
}

// ProtocolConfig loads the protocol configuration.
func (m *Manager) ProtocolConfig() (*params.Config, bool, error) {
	stored := new(storedConfig)
	ok, err := m.getRLP(hashKey(configKeyBytes), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &params.Config{
		Admin:                stored.Admin,
		Operators:            append([]crypto.PublicKey(nil), stored.Operators...),
		CloseTradeDuration:   stored.CloseTradeDuration,
		ClosePaymentDuration: stored.ClosePaymentDuration,
	}, true, nil
}

// SetProtocolConfig replaces the protocol configuration.
func (m *Manager) SetProtocolConfig(cfg *params.Config) error {
	if cfg == nil {
		return fmt.Errorf("params: nil config")
	}
	return m.putRLP(hashKey(configKeyBytes), &storedConfig{
		Admin:                cfg.Admin,
		Operators:            append([]crypto.PublicKey{}, cfg.Operators...),
		CloseTradeDuration:   cfg.CloseTradeDuration,
		ClosePaymentDuration: cfg.ClosePaymentDuration,
	})
}

func (m *Manager) WhitelistGet(token crypto.PublicKey) (*params.WhitelistEntry, bool, error) {
	stored := new(storedWhitelist)
	ok, err := m.getRLP(whitelistKey(token), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &params.WhitelistEntry{Token: stored.Token, MinAmount: stored.MinAmount}, true, nil
}

func (m *Manager) WhitelistPut(entry *params.WhitelistEntry) error {
	if entry == nil {
		return fmt.Errorf("params: nil whitelist entry")
	}
	return m.putRLP(whitelistKey(entry.Token), &storedWhitelist{Token: entry.Token, MinAmount: entry.MinAmount})
}

func (m *Manager) WhitelistDelete(token crypto.PublicKey) error {
	m.remove(whitelistKey(token))
	return nil
}

// FeeReceivers lists registered fee receivers in registration order.
func (m *Manager) FeeReceivers() ([]crypto.PublicKey, error) {
	var list []crypto.PublicKey
	if _, err := m.getRLP(hashKey(feeReceiverIndex), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) FeeReceiverGet(receiver crypto.PublicKey) (*params.FeeReceiver, bool, error) {
	stored := new(storedFeeReceiver)
	ok, err := m.getRLP(feeReceiverKey(receiver), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &params.FeeReceiver{Receiver: stored.Receiver}, true, nil
}

func (m *Manager) FeeReceiverPut(fr *params.FeeReceiver) error {
	if fr == nil {
		return fmt.Errorf("params: nil fee receiver")
	}
	list, err := m.FeeReceivers()
	if err != nil {
		return err
	}
	known := false
	for _, existing := range list {
		if existing == fr.Receiver {
			known = true
			break
		}
	}
	if !known {
		list = append(list, fr.Receiver)
		if err := m.putRLP(hashKey(feeReceiverIndex), list); err != nil {
			return err
		}
	}
	return m.putRLP(feeReceiverKey(fr.Receiver), &storedFeeReceiver{Receiver: fr.Receiver})
}

func (m *Manager) FeeReceiverDelete(receiver crypto.PublicKey) error {
	list, err := m.FeeReceivers()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, existing := range list {
		if existing != receiver {
			kept = append(kept, existing)
		}
	}
	if err := m.putRLP(hashKey(feeReceiverIndex), kept); err != nil {
		return err
	}
	m.remove(feeReceiverKey(receiver))
	return nil
}
