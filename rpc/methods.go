package rpc

func (s *Server) registerMethods() map[string]method {
	signed := func(module string, h handlerFunc) method { return method{module: module, signed: true, handle: h} }
	query := func(module string, h handlerFunc) method { return method{module: module, handle: h} }

	return map[string]method{
		"settlement_deposit":            signed("settlement", s.handleDeposit),
		"settlement_setTotalFee":        signed("settlement", s.handleSetTotalFee),
		"settlement_settle":             signed("settlement", s.handleSettle),
		"settlement_claim":              signed("settlement", s.handleClaim),
		"settlement_closeFinishedTrade": signed("settlement", s.handleCloseFinishedTrade),
		"settlement_getTrade":           query("settlement", s.handleGetTrade),
		"settlement_computeTradeId":     query("settlement", s.handleComputeTradeID),

		"payment_pay":          signed("payment", s.handlePay),
		"payment_closeReceipt": signed("payment", s.handleCloseReceipt),
		"payment_getReceipt":   query("payment", s.handleGetReceipt),

		"fees_withdraw":           signed("fees", s.handleWithdraw),
		"ledger_getBalance":       query("ledger", s.handleGetBalance),
		"ledger_getTokenAccounts": query("ledger", s.handleGetTokenAccounts),

		"admin_init":                 signed("admin", s.handleInit),
		"admin_addOrRemoveOperator":  signed("admin", s.handleOperator),
		"admin_addOrUpdateWhitelist": signed("admin", s.handleAddOrUpdateWhitelist),
		"admin_removeWhitelist":      signed("admin", s.handleRemoveWhitelist),
		"admin_setCloseWaitDuration": signed("admin", s.handleSetCloseWait),
		"admin_addFeeReceiver":       signed("admin", s.feeReceiverHandler(true)),
		"admin_removeFeeReceiver":    signed("admin", s.feeReceiverHandler(false)),
		"params_getConfig":           query("params", s.handleGetConfig),
	}
}
