package payment

import (
	"errors"
	"fmt"
	"time"

	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/fees"
	"optimex/native/params"
)

var errNilState = errors.New("payment engine: state not configured")

type engineState interface {
	Transfer(from, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error
	AccountExists(addr crypto.PublicKey) (bool, error)
	CreateDerived(payer crypto.PublicKey, d crypto.Derivation) (crypto.PublicKey, error)
	CloseDerived(d crypto.Derivation, recipient crypto.PublicKey) error
	ReceiptPut(addr crypto.PublicKey, r *Receipt) error
	ReceiptGet(addr crypto.PublicKey) (*Receipt, bool, error)
	ReceiptDelete(addr crypto.PublicKey) error
}

// ConfigView exposes the feature switches and configuration payments rely on.
type ConfigView interface {
	common.FeatureView
	Config() (*params.Config, error)
	Whitelist(asset *crypto.PublicKey) (*params.WhitelistEntry, error)
}

// Engine executes direct payments and keeps a receipt per payment.
type Engine struct {
	state   engineState
	config  ConfigView
	program crypto.PublicKey
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a payment engine deriving receipts under program.
func NewEngine(program crypto.PublicKey) *Engine {
	return &Engine{
		program: program,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the ledger and receipt store.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetConfig wires the configuration view payments are checked against.
func (e *Engine) SetConfig(cfg ConfigView) { e.config = cfg }

// SetEmitter configures the event emitter used by the engine. A nil emitter
// discards events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.config == nil {
		return errNilState
	}
	return nil
}

// PayAccounts names the paying market maker and the recipient.
type PayAccounts struct {
	Signer crypto.PublicKey
	To     crypto.PublicKey
	Tokens *common.TokenAccounts
}

// PayArgs describes a payment. Amount is gross; the recipient receives
// Amount - TotalFee.
type PayArgs struct {
	TradeID  [32]byte
	Token    *crypto.PublicKey
	Amount   uint64
	TotalFee uint64
	Deadline int64
}

// Pay transfers funds from the signer to the recipient, routes the fee to the
// pool and records a receipt. It returns the receipt and its account address.
func (e *Engine) Pay(signers crypto.SignerSet, accts PayAccounts, args PayArgs) (*Receipt, crypto.PublicKey, error) {
	if err := e.ready(); err != nil {
		return nil, crypto.PublicKey{}, err
	}
	if err := common.Guard(e.config, params.FeaturePayments); err != nil {
		return nil, crypto.PublicKey{}, err
	}
	if err := (common.RequireSigner{Key: accts.Signer}).Authorize(signers); err != nil {
		return nil, crypto.PublicKey{}, err
	}
	if _, err := e.config.Whitelist(args.Token); err != nil {
		return nil, crypto.PublicKey{}, err
	}
	now := e.now()
	if now > args.Deadline {
		return nil, crypto.PublicKey{}, stderrors.ErrDeadlineExceeded
	}
	split, err := fees.Payment(args.Amount, args.TotalFee)
	if err != nil {
		return nil, crypto.PublicKey{}, err
	}
	protocol := fees.ProtocolAddress(e.program)
	if args.Token != nil {
		route := common.TokenRoute{
			Mint:     *args.Token,
			From:     accts.Signer,
			To:       accts.To,
			Protocol: protocol,
			WithFee:  split.Fee > 0,
		}
		if err := common.CheckTokenRoute(accts.Tokens, route); err != nil {
			return nil, crypto.PublicKey{}, err
		}
	}

	receipt := &Receipt{
		TradeID:       args.TradeID,
		From:          accts.Signer,
		To:            accts.To,
		Token:         args.Token,
		PaymentAmount: args.Amount,
		TotalFee:      args.TotalFee,
		PaymentTime:   now,
	}
	derivation := receipt.Key().Derivation(e.program)
	addr := derivation.Address()
	exists, err := e.state.AccountExists(addr)
	if err != nil {
		return nil, crypto.PublicKey{}, err
	}
	if exists {
		return nil, crypto.PublicKey{}, stderrors.ErrReceiptAlreadyExists
	}

	if err := e.state.Transfer(accts.Signer, accts.To, args.Token, split.Net); err != nil {
		return nil, crypto.PublicKey{}, fmt.Errorf("payment: transfer: %w", err)
	}
	if split.Fee > 0 {
		if err := e.state.Transfer(accts.Signer, protocol, args.Token, split.Fee); err != nil {
			return nil, crypto.PublicKey{}, fmt.Errorf("payment: fee transfer: %w", err)
		}
	}
	if _, err := e.state.CreateDerived(accts.Signer, derivation); err != nil {
		return nil, crypto.PublicKey{}, fmt.Errorf("payment: open receipt: %w", err)
	}
	if err := e.state.ReceiptPut(addr, receipt); err != nil {
		return nil, crypto.PublicKey{}, err
	}
	e.emitter.Emit(events.PaymentTransferred{
		TradeID:       args.TradeID,
		From:          accts.Signer,
		To:            accts.To,
		Token:         args.Token,
		PaymentAmount: split.Net,
		TotalFee:      split.Fee,
		Protocol:      protocol,
	})
	return receipt.Clone(), addr, nil
}

// Receipt loads the receipt stored at addr.
func (e *Engine) Receipt(addr crypto.PublicKey) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	receipt, ok, err := e.state.ReceiptGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stderrors.ErrReceiptNotFound
	}
	return receipt, nil
}

// CloseReceipt destroys the receipt at addr and refunds its reservation to
// the payer. Only the payer may close it, and only after the close window.
func (e *Engine) CloseReceipt(signers crypto.SignerSet, signer, addr crypto.PublicKey) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := (common.RequireSigner{Key: signer}).Authorize(signers); err != nil {
		return err
	}
	receipt, err := e.Receipt(addr)
	if err != nil {
		return err
	}
	if signer != receipt.From {
		return stderrors.ErrInvalidUserAccount
	}
	cfg, err := e.config.Config()
	if err != nil {
		return err
	}
	if !closeWindowElapsed(receipt.PaymentTime, cfg.ClosePaymentDuration, e.now()) {
		return stderrors.ErrCloseNotAvailable
	}
	derivation := receipt.Key().Derivation(e.program)
	if derivation.Address() != addr {
		return stderrors.ErrReceiptNotFound
	}
	if err := e.state.CloseDerived(derivation, signer); err != nil {
		return fmt.Errorf("payment: close receipt: %w", err)
	}
	return e.state.ReceiptDelete(addr)
}

// closeWindowElapsed reports now > paid + wait without overflowing.
func closeWindowElapsed(paid int64, wait uint64, now int64) bool {
	if now <= paid {
		return false
	}
	return uint64(now-paid) > wait
}
