package params

import (
	"optimex/crypto"
)

// DefaultMaxOperators bounds the operator set.
const DefaultMaxOperators = 3

// Config is the protocol wide configuration record.
type Config struct {
	Admin                crypto.PublicKey
	Operators            []crypto.PublicKey
	CloseTradeDuration   uint64
	ClosePaymentDuration uint64
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Operators = append([]crypto.PublicKey(nil), c.Operators...)
	return &out
}

// IsOperator reports whether key is a registered operator.
func (c *Config) IsOperator(key crypto.PublicKey) bool {
	if c == nil {
		return false
	}
	for _, op := range c.Operators {
		if op == key {
			return true
		}
	}
	return false
}

// WhitelistEntry admits an asset and sets its minimum deposit.
type WhitelistEntry struct {
	Token     crypto.PublicKey
	MinAmount uint64
}

// FeeReceiver is an address allowed to receive withdrawn protocol fees.
type FeeReceiver struct {
	Receiver crypto.PublicKey
}
