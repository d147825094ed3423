package settlement

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

var (
	errNilState  = errors.New("settlement engine: state not configured")
	errNilConfig = errors.New("settlement engine: config not configured")
)

// ledger is the value-moving capability the engine needs. Program-derived
// accounts are debited only by presenting their derivation.
type ledger interface {
	Balance(owner crypto.PublicKey, mint *crypto.PublicKey) (uint64, error)
	Transfer(from, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error
	AccountExists(addr crypto.PublicKey) (bool, error)
	CreateDerived(payer crypto.PublicKey, d crypto.Derivation) (crypto.PublicKey, error)
	TransferFromDerived(d crypto.Derivation, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error
	CloseDerived(d crypto.Derivation, recipient crypto.PublicKey) error
}

type engineState interface {
	ledger
	TradePut(*Trade) error
	TradeGet(id [32]byte) (*Trade, bool, error)
	TradeDelete(id [32]byte) error
}

// ConfigView is the read-only configuration the engine consults.
type ConfigView interface {
	Config() (*params.Config, error)
	Whitelist(asset *crypto.PublicKey) (*params.WhitelistEntry, error)
}

// Engine runs the trade lifecycle: deposit, fee assignment, settlement,
// claim and close.
type Engine struct {
	state   engineState
	config  ConfigView
	program crypto.PublicKey
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a settlement engine owning accounts derived from
// program.
func NewEngine(program crypto.PublicKey) *Engine {
	return &Engine{
		program: program,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetConfig configures the configuration source.
func (e *Engine) SetConfig(cfg ConfigView) { e.config = cfg }

// SetEmitter configures the event emitter used by the engine.
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

// Program returns the program id the engine derives accounts under.
func (e *Engine) Program() crypto.PublicKey { return e.program }

// ProtocolAddress returns the fee pool account.
func (e *Engine) ProtocolAddress() crypto.PublicKey { return fees.ProtocolAddress(e.program) }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.config == nil {
		return errNilConfig
	}
	return nil
}

// Trade returns a copy of the stored trade.
func (e *Engine) Trade(id [32]byte) (*Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadTrade(id)
}

func (e *Engine) loadTrade(id [32]byte) (*Trade, error) {
	trade, ok, err := e.state.TradeGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stderrors.ErrTradeNotFound
	}
	return trade, nil
}

// payFromVault moves net to recipient and fee to the fee pool. Token trades
// verify the supplied token accounts first.
func (e *Engine) payFromVault(trade *Trade, recipient crypto.PublicKey, net, fee uint64, tokens *common.TokenAccounts) error {
	v := e.vault(trade.ID)
	if trade.Token != nil {
		route := common.TokenRoute{
			Mint:     *trade.Token,
			From:     v.address(),
			To:       recipient,
			Protocol: e.ProtocolAddress(),
			WithFee:  fee > 0,
		}
		if err := common.CheckTokenRoute(tokens, route); err != nil {
			return err
		}
	}
	if err := e.state.TransferFromDerived(v.derivation, recipient, trade.Token, net); err != nil {
		return fmt.Errorf("settlement: vault payout: %w", err)
	}
	if fee > 0 {
		if err := e.state.TransferFromDerived(v.derivation, e.ProtocolAddress(), trade.Token, fee); err != nil {
			return fmt.Errorf("settlement: fee payout: %w", err)
		}
	}
	return nil
}
