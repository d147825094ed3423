package settlement

import (
	"fmt"

	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/crypto"
	"optimex/native/common"
)

// DepositArgs carries the trade parameters and the claimed trade id.
type DepositArgs struct {
	Input   TradeInput
	TradeID [32]byte
	Timeout int64
	MPC     crypto.PublicKey
	Refund  crypto.PublicKey
}

// DepositAccounts names the depositor and the ephemeral key bound to the
// trade. Token deposits also name their token accounts.
type DepositAccounts struct {
	Signer    crypto.PublicKey
	Ephemeral crypto.PublicKey
	Tokens    *common.TokenAccounts
}

// Deposit locks the trade amount in a fresh vault and binds the ephemeral key
// to the trade. Every check runs before any funds move.
func (e *Engine) Deposit(signers crypto.SignerSet, accts DepositAccounts, args DepositArgs) (*Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := (common.RequireAll{
		common.RequireSigner{Key: accts.Signer},
		common.RequireSigner{Key: accts.Ephemeral},
	}).Authorize(signers); err != nil {
		return nil, err
	}
	inUse, err := e.nonceInUse(accts.Ephemeral)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, stderrors.ErrNonceAccountBeingUsed
	}
	depositor, err := args.Input.Depositor()
	if err != nil {
		return nil, stderrors.ErrInvalidPublicKey
	}
	if depositor != accts.Signer {
		return nil, stderrors.ErrUnauthorized
	}
	asset, err := args.Input.Asset()
	if err != nil {
		return nil, stderrors.ErrInvalidPublicKey
	}
	whitelist, err := e.config.Whitelist(asset)
	if err != nil {
		return nil, err
	}
	if e.now() > args.Timeout {
		return nil, stderrors.ErrInvalidTimeout
	}
	amount := args.Input.Amount()
	if amount == 0 {
		return nil, stderrors.ErrDepositZeroAmount
	}
	if whitelist.MinAmount > amount {
		return nil, stderrors.ErrInvalidAmount
	}
	tradeID, err := args.Input.TradeID()
	if err != nil {
		return nil, err
	}
	if tradeID != args.TradeID {
		return nil, stderrors.ErrInvalidTradeID
	}
	v := e.vault(tradeID)
	if asset != nil {
		route := common.TokenRoute{Mint: *asset, From: accts.Signer, To: v.address()}
		if err := common.CheckTokenRoute(accts.Tokens, route); err != nil {
			return nil, err
		}
	}
	if _, exists, err := e.state.TradeGet(tradeID); err != nil {
		return nil, err
	} else if exists {
		return nil, stderrors.ErrTradeAlreadyExists
	}
	vaultExists, err := e.state.AccountExists(v.address())
	if err != nil {
		return nil, err
	}
	if vaultExists {
		return nil, stderrors.ErrTradeAlreadyExists
	}

	for _, d := range []crypto.Derivation{
		NonceDerivation(e.program, accts.Ephemeral),
		TradeDetailDerivation(e.program, tradeID),
		v.derivation,
	} {
		if _, err := e.state.CreateDerived(accts.Signer, d); err != nil {
			return nil, fmt.Errorf("settlement: open account: %w", err)
		}
	}
	if err := e.state.Transfer(accts.Signer, v.address(), asset, amount); err != nil {
		return nil, fmt.Errorf("settlement: fund vault: %w", err)
	}

	trade := &Trade{
		ID:        tradeID,
		User:      accts.Signer,
		Token:     asset,
		Amount:    amount,
		Timeout:   args.Timeout,
		MPC:       args.MPC,
		Ephemeral: accts.Ephemeral,
		Refund:    args.Refund,
		Status:    TradeDeposited,
	}
	if err := e.state.TradePut(trade); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TradeDeposited{
		TradeID: tradeID,
		From:    accts.Signer,
		Token:   asset,
		Amount:  amount,
		Vault:   v.address(),
	})
	return trade.Clone(), nil
}
