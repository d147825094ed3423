package rpc

import (
	"context"

	"optimex/native/common"
	"optimex/native/fees"
	"optimex/native/payment"
)

type payPayload struct {
	TradeID  string             `json:"tradeId"`
	Signer   string             `json:"signer"`
	To       string             `json:"to"`
	Token    string             `json:"token,omitempty"`
	Amount   string             `json:"amount"`
	TotalFee string             `json:"totalFee"`
	Deadline int64              `json:"deadline"`
	Tokens   *tokenAccountsJSON `json:"tokens,omitempty"`
}

type closeReceiptPayload struct {
	Signer  string `json:"signer"`
	Receipt string `json:"receipt"`
}

type withdrawPayload struct {
	Signer string             `json:"signer"`
	ToUser string             `json:"toUser"`
	Token  string             `json:"token,omitempty"`
	Amount string             `json:"amount"`
	Tokens *tokenAccountsJSON `json:"tokens,omitempty"`
}

type receiptParams struct {
	Receipt string `json:"receipt"`
}

type balanceParams struct {
	Owner string `json:"owner"`
	Mint  string `json:"mint,omitempty"`
}

type balanceResult struct {
	Owner   string  `json:"owner"`
	Mint    *string `json:"mint,omitempty"`
	Balance string  `json:"balance"`
}

// tokenAccountsParams names a token movement. From and To are owners; the
// protocol fee pool is added when WithFee is set.
type tokenAccountsParams struct {
	Mint    string `json:"mint"`
	From    string `json:"from"`
	To      string `json:"to"`
	WithFee bool   `json:"withFee,omitempty"`
}

type okResult struct {
	OK bool `json:"ok"`
}

func (s *Server) handlePay(ctx context.Context, c *call) (interface{}, error) {
	var p payPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	tradeID, err := parseTradeID(p.TradeID)
	if err != nil {
		return nil, err
	}
	args := payment.PayArgs{TradeID: tradeID, Deadline: p.Deadline}
	if args.Token, err = parseOptionalKey(p.Token, "token"); err != nil {
		return nil, err
	}
	if args.Amount, err = parseAmount(p.Amount, "amount"); err != nil {
		return nil, err
	}
	if args.TotalFee, err = parseAmount(p.TotalFee, "totalFee"); err != nil {
		return nil, err
	}
	var accts payment.PayAccounts
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.To, err = parseKey(p.To, "to"); err != nil {
		return nil, err
	}
	if accts.Tokens, err = p.Tokens.parse(); err != nil {
		return nil, err
	}
	receipt, addr, err := s.node.Pay(ctx, c.signers, accts, args)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt, addr), nil
}

func (s *Server) handleCloseReceipt(ctx context.Context, c *call) (interface{}, error) {
	var p closeReceiptPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	signer, err := parseKey(p.Signer, "signer")
	if err != nil {
		return nil, err
	}
	addr, err := parseKey(p.Receipt, "receipt")
	if err != nil {
		return nil, err
	}
	if err := s.node.ClosePaymentReceipt(ctx, c.signers, signer, addr); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleWithdraw(ctx context.Context, c *call) (interface{}, error) {
	var p withdrawPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	var (
		args  fees.WithdrawArgs
		accts fees.WithdrawAccounts
		err   error
	)
	if args.Token, err = parseOptionalKey(p.Token, "token"); err != nil {
		return nil, err
	}
	if args.Amount, err = parseAmount(p.Amount, "amount"); err != nil {
		return nil, err
	}
	if accts.Signer, err = parseKey(p.Signer, "signer"); err != nil {
		return nil, err
	}
	if accts.ToUser, err = parseKey(p.ToUser, "toUser"); err != nil {
		return nil, err
	}
	if accts.Tokens, err = p.Tokens.parse(); err != nil {
		return nil, err
	}
	if err := s.node.WithdrawTotalFee(ctx, c.signers, accts, args); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleGetReceipt(_ context.Context, c *call) (interface{}, error) {
	var p receiptParams
	if err := decodeParam(c, &p); err != nil {
		return nil, err
	}
	addr, err := parseKey(p.Receipt, "receipt")
	if err != nil {
		return nil, err
	}
	receipt, err := s.node.Receipt(addr)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt, addr), nil
}

func (s *Server) handleGetBalance(_ context.Context, c *call) (interface{}, error) {
	var p balanceParams
	if err := decodeParam(c, &p); err != nil {
		return nil, err
	}
	owner, err := parseKey(p.Owner, "owner")
	if err != nil {
		return nil, err
	}
	mint, err := parseOptionalKey(p.Mint, "mint")
	if err != nil {
		return nil, err
	}
	bal, err := s.node.Balance(owner, mint)
	if err != nil {
		return nil, err
	}
	return balanceResult{Owner: owner.String(), Mint: optionalKeyString(mint), Balance: formatAmount(bal)}, nil
}

// handleGetTokenAccounts returns the token accounts a request moving tokens
// along the given route must name.
func (s *Server) handleGetTokenAccounts(_ context.Context, c *call) (interface{}, error) {
	var p tokenAccountsParams
	if err := decodeParam(c, &p); err != nil {
		return nil, err
	}
	route := common.TokenRoute{WithFee: p.WithFee, Protocol: fees.ProtocolAddress(s.node.Program())}
	var err error
	if route.Mint, err = parseKey(p.Mint, "mint"); err != nil {
		return nil, err
	}
	if route.From, err = parseKey(p.From, "from"); err != nil {
		return nil, err
	}
	if route.To, err = parseKey(p.To, "to"); err != nil {
		return nil, err
	}
	return formatTokenAccounts(common.CanonicalTokenAccounts(route)), nil
}
