package rpc

import (
	"context"

	"optimex/native/params"
)

type initPayload struct {
	Payer string `json:"payer"`
	Admin string `json:"admin,omitempty"`
}

type operatorPayload struct {
	Operator string `json:"operator"`
	IsAdd    bool   `json:"isAdd"`
}

type whitelistPayload struct {
	Token     string `json:"token"`
	MinAmount string `json:"minAmount,omitempty"`
}

type closeWaitPayload struct {
	CloseTradeDuration   *uint64 `json:"closeTradeDuration,omitempty"`
	ClosePaymentDuration *uint64 `json:"closePaymentDuration,omitempty"`
}

type feeReceiverPayload struct {
	Receiver string `json:"receiver"`
}

type configParams struct {
	// Asset selects a whitelist entry to include; "native" for native currency.
	Asset string `json:"asset,omitempty"`
}

type configResult struct {
	configJSON
	Whitelist *whitelistJSON `json:"whitelist,omitempty"`
}

func (s *Server) handleInit(ctx context.Context, c *call) (interface{}, error) {
	var p initPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	payer, err := parseKey(p.Payer, "payer")
	if err != nil {
		return nil, err
	}
	var args params.InitArgs
	if args.Admin, err = parseOptionalKey(p.Admin, "admin"); err != nil {
		return nil, err
	}
	if err := s.node.Init(ctx, c.signers, payer, args); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleOperator(ctx context.Context, c *call) (interface{}, error) {
	var p operatorPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	operator, err := parseKey(p.Operator, "operator")
	if err != nil {
		return nil, err
	}
	if err := s.node.AddOrRemoveOperator(ctx, c.signers, operator, p.IsAdd); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleAddOrUpdateWhitelist(ctx context.Context, c *call) (interface{}, error) {
	var p whitelistPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	token, err := parseKey(p.Token, "token")
	if err != nil {
		return nil, err
	}
	minAmount, err := parseAmount(p.MinAmount, "minAmount")
	if err != nil {
		return nil, err
	}
	if err := s.node.AddOrUpdateWhitelist(ctx, c.signers, token, minAmount); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleRemoveWhitelist(ctx context.Context, c *call) (interface{}, error) {
	var p whitelistPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	token, err := parseKey(p.Token, "token")
	if err != nil {
		return nil, err
	}
	if err := s.node.RemoveWhitelist(ctx, c.signers, token); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleSetCloseWait(ctx context.Context, c *call) (interface{}, error) {
	var p closeWaitPayload
	if err := decodePayload(c, &p); err != nil {
		return nil, err
	}
	args := params.CloseWaitArgs{
		CloseTradeDuration:   p.CloseTradeDuration,
		ClosePaymentDuration: p.ClosePaymentDuration,
	}
	if err := s.node.SetCloseWaitDuration(ctx, c.signers, args); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (s *Server) feeReceiverHandler(add bool) handlerFunc {
	return func(ctx context.Context, c *call) (interface{}, error) {
		var p feeReceiverPayload
		if err := decodePayload(c, &p); err != nil {
			return nil, err
		}
		receiver, err := parseKey(p.Receiver, "receiver")
		if err != nil {
			return nil, err
		}
		if add {
			err = s.node.AddFeeReceiver(ctx, c.signers, receiver)
		} else {
			err = s.node.RemoveFeeReceiver(ctx, c.signers, receiver)
		}
		if err != nil {
			return nil, err
		}
		return okResult{OK: true}, nil
	}
}

func (s *Server) handleGetConfig(_ context.Context, c *call) (interface{}, error) {
	var p configParams
	if len(c.params) > 0 {
		if err := decodeParam(c, &p); err != nil {
			return nil, err
		}
	}
	state, err := s.node.Config()
	if err != nil {
		return nil, err
	}
	out := configResult{configJSON: formatConfig(state)}
	if p.Asset != "" {
		asset, err := parseOptionalKey(p.Asset, "asset")
		if err != nil {
			return nil, err
		}
		entry, err := s.node.Whitelist(asset)
		if err != nil {
			return nil, err
		}
		wl := formatWhitelist(entry)
		out.Whitelist = &wl
	}
	return out, nil
}
