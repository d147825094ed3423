package settlement

import (
	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/fees"
)

// SetTotalFee records the protocol fee the MPC will deduct at settlement.
// Later calls overwrite earlier ones until the trade settles or times out.
func (e *Engine) SetTotalFee(signers crypto.SignerSet, signer crypto.PublicKey, tradeID [32]byte, amount uint64) (*Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	trade, err := e.loadTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if signer != trade.MPC {
		return nil, stderrors.ErrUnauthorized
	}
	if err := (common.RequireSigner{Key: trade.MPC}).Authorize(signers); err != nil {
		return nil, err
	}
	if e.now() > trade.Timeout {
		return nil, stderrors.ErrTimeOut
	}
	if trade.Status != TradeDeposited {
		return nil, stderrors.ErrInvalidTradeStatus
	}
	if amount > trade.Amount {
		return nil, stderrors.ErrInvalidTotalFee
	}
	trade.TotalFee = &amount
	if err := e.state.TradePut(trade); err != nil {
		return nil, err
	}
	return trade.Clone(), nil
}

// SettlementAccounts names the parties of a settlement. Signer must be the
// trade MPC; User and Refund must repeat the values stored at deposit.
type SettlementAccounts struct {
	Signer crypto.PublicKey
	User   crypto.PublicKey
	Refund crypto.PublicKey
	PMM    crypto.PublicKey
	Tokens *common.TokenAccounts
}

// Settle releases the vault to the market maker minus the fee. It needs both
// the MPC and the ephemeral key signatures.
func (e *Engine) Settle(signers crypto.SignerSet, accts SettlementAccounts, tradeID [32]byte) (*Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	trade, err := e.loadTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if accts.Signer != trade.MPC {
		return nil, stderrors.ErrUnauthorized
	}
	if err := common.DualSignature(trade.MPC, trade.Ephemeral).Authorize(signers); err != nil {
		return nil, err
	}
	if accts.User != trade.User {
		return nil, stderrors.ErrInvalidUserAccount
	}
	if accts.Refund != trade.Refund {
		return nil, stderrors.ErrInvalidRefundPubkey
	}
	if err := trade.AssertSettlement(e.now()); err != nil {
		return nil, err
	}
	split, err := fees.Settlement(trade.Amount, trade.TotalFee)
	if err != nil {
		return nil, err
	}
	if err := e.payFromVault(trade, accts.PMM, split.Net, split.Fee, accts.Tokens); err != nil {
		return nil, err
	}
	trade.Status = TradeSettled
	trade.SettledPMM = accts.PMM
	if err := e.state.TradePut(trade); err != nil {
		return nil, err
	}
	if err := e.releaseNonce(trade.Ephemeral, trade.User); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TradeSettled{
		TradeID:          trade.ID,
		Operator:         accts.Signer,
		To:               accts.PMM,
		Token:            trade.Token,
		SettlementAmount: split.Net,
		TotalFee:         split.Fee,
		Vault:            e.vault(trade.ID).address(),
		Protocol:         e.ProtocolAddress(),
	})
	return trade.Clone(), nil
}
