package settlement

import (
	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/crypto"
	"optimex/native/common"
)

// ClaimAccounts names the parties of a refund. Anyone may sign; funds always
// go to the refund key stored at deposit.
type ClaimAccounts struct {
	Signer crypto.PublicKey
	User   crypto.PublicKey
	Refund crypto.PublicKey
	Tokens *common.TokenAccounts
}

// Claim returns the full deposit to the refund key once the trade timed out
// without settlement.
func (e *Engine) Claim(signers crypto.SignerSet, accts ClaimAccounts, tradeID [32]byte) (*Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := (common.RequireSigner{Key: accts.Signer}).Authorize(signers); err != nil {
		return nil, err
	}
	trade, err := e.loadTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if accts.User != trade.User {
		return nil, stderrors.ErrInvalidUserAccount
	}
	if accts.Refund != trade.Refund {
		return nil, stderrors.ErrInvalidRefundPubkey
	}
	if err := trade.AssertClaim(e.now()); err != nil {
		return nil, err
	}
	if err := e.payFromVault(trade, trade.Refund, trade.Amount, 0, accts.Tokens); err != nil {
		return nil, err
	}
	trade.Status = TradeClaimed
	if err := e.state.TradePut(trade); err != nil {
		return nil, err
	}
	if err := e.releaseNonce(trade.Ephemeral, trade.User); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TradeClaimed{
		TradeID:  trade.ID,
		Token:    trade.Token,
		To:       trade.Refund,
		Operator: accts.Signer,
		Amount:   trade.Amount,
	})
	return trade.Clone(), nil
}
