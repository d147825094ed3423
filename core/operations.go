package core

import (
	"context"

	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/fees"
	"optimex/native/params"
	"optimex/native/payment"
	"optimex/native/settlement"
)

// Deposit escrows a new trade.
func (n *Node) Deposit(ctx context.Context, signers crypto.SignerSet, accts settlement.DepositAccounts, args settlement.DepositArgs) (*settlement.Trade, error) {
	var trade *settlement.Trade
	err := n.execute(ctx, "deposit", &args.TradeID, func() (err error) {
		trade, err = n.settlement.Deposit(signers, accts, args)
		return err
	})
	return trade, err
}

// SetTotalFee records the settlement fee of a trade.
func (n *Node) SetTotalFee(ctx context.Context, signers crypto.SignerSet, signer crypto.PublicKey, tradeID [32]byte, amount uint64) (*settlement.Trade, error) {
	var trade *settlement.Trade
	err := n.execute(ctx, "set_total_fee", &tradeID, func() (err error) {
		trade, err = n.settlement.SetTotalFee(signers, signer, tradeID, amount)
		return err
	})
	return trade, err
}

// Settle releases an escrowed trade to the market maker.
func (n *Node) Settle(ctx context.Context, signers crypto.SignerSet, accts settlement.SettlementAccounts, tradeID [32]byte) (*settlement.Trade, error) {
	var trade *settlement.Trade
	err := n.execute(ctx, "settlement", &tradeID, func() (err error) {
		trade, err = n.settlement.Settle(signers, accts, tradeID)
		return err
	})
	return trade, err
}

// Claim refunds a timed out trade.
func (n *Node) Claim(ctx context.Context, signers crypto.SignerSet, accts settlement.ClaimAccounts, tradeID [32]byte) (*settlement.Trade, error) {
	var trade *settlement.Trade
	err := n.execute(ctx, "claim", &tradeID, func() (err error) {
		trade, err = n.settlement.Claim(signers, accts, tradeID)
		return err
	})
	return trade, err
}

// CloseFinishedTrade destroys a settled or claimed trade.
func (n *Node) CloseFinishedTrade(ctx context.Context, signers crypto.SignerSet, accts settlement.CloseAccounts, tradeID [32]byte) (*settlement.Trade, error) {
	var trade *settlement.Trade
	err := n.execute(ctx, "close_finished_trade", &tradeID, func() (err error) {
		trade, err = n.settlement.CloseFinishedTrade(signers, accts, tradeID)
		return err
	})
	return trade, err
}

// Pay executes a direct payment and returns its receipt and receipt address.
func (n *Node) Pay(ctx context.Context, signers crypto.SignerSet, accts payment.PayAccounts, args payment.PayArgs) (*payment.Receipt, crypto.PublicKey, error) {
	var (
		receipt *payment.Receipt
		addr    crypto.PublicKey
	)
	err := n.execute(ctx, "payment", &args.TradeID, func() (err error) {
		receipt, addr, err = n.payments.Pay(signers, accts, args)
		return err
	})
	return receipt, addr, err
}

// ClosePaymentReceipt destroys the receipt at addr.
func (n *Node) ClosePaymentReceipt(ctx context.Context, signers crypto.SignerSet, signer, addr crypto.PublicKey) error {
	return n.execute(ctx, "close_payment_receipt", nil, func() error {
		return n.payments.CloseReceipt(signers, signer, addr)
	})
}

// WithdrawTotalFee pays collected fees to a registered receiver.
func (n *Node) WithdrawTotalFee(ctx context.Context, signers crypto.SignerSet, accts fees.WithdrawAccounts, args fees.WithdrawArgs) error {
	return n.execute(ctx, "withdraw_total_fee", nil, func() error {
		return n.pool.Withdraw(signers, accts, args)
	})
}

// Init creates or updates the protocol configuration and opens the fee pool,
// charging its reservation to payer. The payer must be among the signers.
func (n *Node) Init(ctx context.Context, signers crypto.SignerSet, payer crypto.PublicKey, args params.InitArgs) error {
	return n.execute(ctx, "init", nil, func() error {
		if err := n.params.Init(signers, args); err != nil {
			return err
		}
		if err := (common.RequireSigner{Key: payer}).Authorize(signers); err != nil {
			return err
		}
		return n.pool.Ensure(payer)
	})
}

func (n *Node) AddOrRemoveOperator(ctx context.Context, signers crypto.SignerSet, operator crypto.PublicKey, isAdd bool) error {
	return n.execute(ctx, "add_or_remove_operator", nil, func() error {
		return n.params.AddOrRemoveOperator(signers, operator, isAdd)
	})
}

func (n *Node) AddOrUpdateWhitelist(ctx context.Context, signers crypto.SignerSet, token crypto.PublicKey, minAmount uint64) error {
	return n.execute(ctx, "add_or_update_whitelist", nil, func() error {
		return n.params.AddOrUpdateWhitelist(signers, token, minAmount)
	})
}

func (n *Node) RemoveWhitelist(ctx context.Context, signers crypto.SignerSet, token crypto.PublicKey) error {
	return n.execute(ctx, "remove_whitelist", nil, func() error {
		return n.params.RemoveWhitelist(signers, token)
	})
}

func (n *Node) SetCloseWaitDuration(ctx context.Context, signers crypto.SignerSet, args params.CloseWaitArgs) error {
	return n.execute(ctx, "set_close_wait_duration", nil, func() error {
		return n.params.SetCloseWaitDuration(signers, args)
	})
}

func (n *Node) AddFeeReceiver(ctx context.Context, signers crypto.SignerSet, receiver crypto.PublicKey) error {
	return n.execute(ctx, "add_fee_receiver", nil, func() error {
		return n.params.AddFeeReceiver(signers, receiver)
	})
}

func (n *Node) RemoveFeeReceiver(ctx context.Context, signers crypto.SignerSet, receiver crypto.PublicKey) error {
	return n.execute(ctx, "remove_fee_receiver", nil, func() error {
		return n.params.RemoveFeeReceiver(signers, receiver)
	})
}
