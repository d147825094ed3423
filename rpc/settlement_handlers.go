package rpc

import (
	"context"

	"optimex/native/settlement"
)

type depositPayload struct {
	Input     tradeInputJSON     `json:"input"`
	TradeID   string             `json:"tradeId"`
	Timeout   int64              `json:"timeout"`
	MPC       string             `json:"mpc"`
	Refund    string             `json:"refund"`
	Signer    string             `json:"signer"`
	Ephemeral string             `json:"ephemeral"`
	Tokens    *tokenAccountsJSON `json:"tokens,omitempty"`
}

type setTotalFeePayload struct {
	TradeID string `json:"tradeId"`
	Signer  string `json:"signer"`
	Amount  string `json:"amount"`
}

type settlePayload struct {
	TradeID string             `json:"tradeId"`
	Signer  string             `json:"signer"`
	User    string             `json:"user"`
	Refund  string             `json:"refund"`
	PMM     string             `json:"pmm"`
	Tokens  *tokenAccountsJSON `json:"tokens,omitempty"`
}

type claimPayload struct {
	TradeID string             `json:"tradeId"`
	Signer  string             `json:"signer"`
	User    string             `json:"user"`
	Refund  string             `json:"refund"`
	Tokens  *tokenAccountsJSON `json:"tokens,omitempty"`
}

type closeTradePayload struct {
	TradeID string `json:"tradeId"`
	Signer  string `json:"signer"`
	User    string `json:"user"`
	Vault   string `json:"vaultTokenAccount,omitempty"`
	UserATA string `json:"userTokenAccount,omitempty"`
}

type tradeIDParams struct {
	TradeID string `json:"tradeId"`
}

type tradeIDResult struct {
	TradeID string `json:"tradeId"`
}

func (s *Server) handleDeposit(ctx context.Context, c *call) (interface{}, error) {
	var p depositPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	input, err := p.Input.parse()
	if err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	args := settlement.DepositArgs{Input: input, TradeID: tradeID, Timeout: p.Timeout}
	if args.MPC, err = parseKey(p.MPC, "mpc"); err != nil {
		return nil, err
	}
	if args.Refund, err = parseKey(p.Refund, "refund"); err != nil {
		return nil, err
	}
	var accts settlement.DepositAccounts
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.Ephemeral, err = parseKey(p.Ephemeral, "ephemeral"); err != nil {
		return nil, err
	}
	if accts.Tokens, err = p.Tokens.parse(); err != nil {
		return nil, err
	}
	trade, err := s.node.Deposit(ctx, c.signers, accts, args)
	if err != nil {
		return nil, err
	}
	return formatTrade(trade), nil
}

func (s *Server) handleSetTotalFee(ctx context.Context, c *call) (interface{}, error) {
	var p setTotalFeePayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	signer, err := parseKey(p.Signer, "signer")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount, "amount")
	if err != nil {
		return nil, err
	}
	trade, err := s.node.SetTotalFee(ctx, c.signers, signer, tradeID, amount)
	if err != nil {
		return nil, err
	}
	return formatTrade(trade), nil
}

func (s *Server) handleSettle(ctx context.Context, c *call) (interface{}, error) {
	var p settlePayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	var accts settlement.SettlementAccounts
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.User, err = parseKey(p.User, "user"); err != nil {
		return nil, err
	}
	if accts.Refund, err = parseKey(p.Refund, "refund"); err != nil {
		return nil, err
	}
	if accts.PMM, err = parseKey(p.PMM, "pmm"); err != nil {
		return nil, err
	}
	if accts.Tokens, err = p.Tokens.parse(); err != nil {
		return nil, err
	}
	trade, err := s.node.Settle(ctx, c.signers, accts, tradeID)
	if err != nil {
		return nil, err
	}
	return formatTrade(trade), nil
}

func (s *Server) handleClaim(ctx context.Context, c *call) (interface{}, error) {
	var p claimPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	var accts settlement.ClaimAccounts
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.User, err = parseKey(p.User, "user"); err != nil {
		return nil, err
	}
	if accts.Refund, err = parseKey(p.Refund, "refund"); err != nil {
		return nil, err
	}
	if accts.Tokens, err = p.Tokens.parse(); err != nil {
		return nil, err
	}
	trade, err := s.node.Claim(ctx, c.signers, accts, tradeID)
	if err != nil {
		return nil, err
	}
	return formatTrade(trade), nil
}

func (s *Server) handleCloseFinishedTrade(ctx context.Context, c *call) (interface{}, error) {
	var p closeTradePayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	var accts settlement.CloseAccounts
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.User, err = parseKey(p.User, "user"); err != nil {
		return nil, err
	}
	if p.Vault != "" || p.UserATA != "" {
		tokens := &settlement.CloseTokenAccounts{}
		if tokens.Vault, err = parseKey(p.Vault, "vaultTokenAccount"); err != nil {
			return nil, err
		}
		if tokens.User, err = parseKey(p.UserATA, "userTokenAccount"); err != nil {
			return nil, err
		}
		accts.Tokens = tokens
	}
	trade, err := s.node.CloseFinishedTrade(ctx, c.signers, accts, tradeID)
	if err != nil {
		return nil, err
	}
	return formatTrade(trade), nil
}

func (s *Server) handleGetTrade(_ context.Context, c *call) (interface{}, error) {
	var p tradeIDParams
	if err := decodeParam(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	view, err := s.node.Trade(tradeID)
	if err != nil {
		return nil, err
	}
	return formatTradeView(view), nil
}

func (s *Server) handleComputeTradeID(_ context.Context, c *call) (interface{}, error) {
	var p tradeInputJSON
	if err := decodeParam(c, &p); err != nil {
		return nil, err
	}
	input, err := p.parse()
	if err != nil {
		return nil, err
	}
	id, err := s.node.ComputeTradeID(input)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	return tradeIDResult{TradeID: hexBytes(id[:])}, nil
}
