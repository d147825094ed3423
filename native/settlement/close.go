package settlement

import (
	"fmt"

	stderrors "optimex/core/errors"
	"optimex/crypto"
	"optimex/native/common"
)

// CloseTokenAccounts names the vault and depositor token accounts a token
// trade sweeps on close.
type CloseTokenAccounts struct {
	Vault crypto.PublicKey
	User  crypto.PublicKey
}

// CloseAccounts names the caller and the depositor receiving residual value.
type CloseAccounts struct {
	Signer crypto.PublicKey
	User   crypto.PublicKey
	Tokens *CloseTokenAccounts
}

// CloseFinishedTrade destroys the vault and trade record of a settled or
// claimed trade. Residual funds and every storage reservation go back to the
// depositor.
func (e *Engine) CloseFinishedTrade(signers crypto.SignerSet, accts CloseAccounts, tradeID [32]byte) (*Trade, error) {
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
	cfg, err := e.config.Config()
	if err != nil {
		return nil, err
	}
	isMPC := accts.Signer == trade.MPC
	if err := trade.AssertCloseFinishedTrade(e.now(), cfg.CloseTradeDuration, isMPC); err != nil {
		return nil, err
	}

	v := e.vault(trade.ID)
	if trade.Token != nil {
		if accts.Tokens == nil ||
			accts.Tokens.Vault != crypto.TokenAccountAddress(v.address(), *trade.Token) ||
			accts.Tokens.User != crypto.TokenAccountAddress(trade.User, *trade.Token) {
			return nil, stderrors.ErrInvalidTokenAccount
		}
		residual, err := e.state.Balance(v.address(), trade.Token)
		if err != nil {
			return nil, err
		}
		if err := e.state.TransferFromDerived(v.derivation, trade.User, trade.Token, residual); err != nil {
			return nil, fmt.Errorf("settlement: sweep vault: %w", err)
		}
	}
	if err := e.state.CloseDerived(v.derivation, trade.User); err != nil {
		return nil, fmt.Errorf("settlement: close vault: %w", err)
	}
	if err := e.state.CloseDerived(TradeDetailDerivation(e.program, trade.ID), trade.User); err != nil {
		return nil, fmt.Errorf("settlement: close trade record: %w", err)
	}
	if err := e.state.TradeDelete(trade.ID); err != nil {
		return nil, err
	}
	return trade, nil
}
