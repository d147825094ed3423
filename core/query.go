package core

import (
	"optimex/crypto"
	"optimex/native/fees"
	"optimex/native/params"
	"optimex/native/payment"
	"optimex/native/settlement"
)

// TradeView is a stored trade together with its derived accounts.
type TradeView struct {
	Trade *settlement.Trade
	Vault crypto.PublicKey
	// VaultBalance is the vault holding in the trade asset.
	VaultBalance uint64
}

// Trade returns the trade stored under id.
func (n *Node) Trade(id [32]byte) (*TradeView, error) {
	var view *TradeView
	err := n.query(func() error {
		trade, err := n.settlement.Trade(id)
		if err != nil {
			return err
		}
		vault := settlement.VaultAddress(n.program, id)
		balance, err := n.state.Balance(vault, trade.Token)
		if err != nil {
			return err
		}
		view = &TradeView{Trade: trade, Vault: vault, VaultBalance: balance}
		return nil
	})
	return view, err
}

// ComputeTradeID derives the trade id of input without touching state.
func (n *Node) ComputeTradeID(input settlement.TradeInput) ([32]byte, error) {
	return input.TradeID()
}

// Receipt returns the payment receipt stored at addr.
func (n *Node) Receipt(addr crypto.PublicKey) (*payment.Receipt, error) {
	var receipt *payment.Receipt
	err := n.query(func() (err error) {
		receipt, err = n.payments.Receipt(addr)
		return err
	})
	return receipt, err
}

// Balance returns the holdings of owner in mint; nil mint is native.
func (n *Node) Balance(owner crypto.PublicKey, mint *crypto.PublicKey) (uint64, error) {
	var bal uint64
	err := n.query(func() (err error) {
		bal, err = n.state.Balance(owner, mint)
		return err
	})
	return bal, err
}

// ProtocolState is the read view of the configuration store.
type ProtocolState struct {
	Config       *params.Config
	FeeReceivers []crypto.PublicKey
	Pool         crypto.PublicKey
	Policy       params.Policy
}

// Config returns the protocol configuration, fee receivers and pool address.
func (n *Node) Config() (*ProtocolState, error) {
	var out *ProtocolState
	err := n.query(func() error {
		cfg, err := n.params.Config()
		if err != nil {
			return err
		}
		receivers, err := n.params.FeeReceivers()
		if err != nil {
			return err
		}
		out = &ProtocolState{
			Config:       cfg,
			FeeReceivers: receivers,
			Pool:         fees.ProtocolAddress(n.program),
			Policy:       n.params.Policy(),
		}
		return nil
	})
	return out, err
}

// Whitelist returns the whitelist entry of asset; nil asset is native.
func (n *Node) Whitelist(asset *crypto.PublicKey) (*params.WhitelistEntry, error) {
	var entry *params.WhitelistEntry
	err := n.query(func() (err error) {
		entry, err = n.params.Whitelist(asset)
		return err
	})
	return entry, err
}
