package fees

import (
	"errors"
	"fmt"

	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/crypto"
	"optimex/native/common"
)

var errPoolNilState = errors.New("fees: state not configured")

var protocolSeed = []byte("protocol")

// ProtocolDerivation describes the fee pool account of program.
func ProtocolDerivation(program crypto.PublicKey) crypto.Derivation {
	return crypto.NewDerivation(program, protocolSeed)
}

// ProtocolAddress returns the fee pool account of program.
func ProtocolAddress(program crypto.PublicKey) crypto.PublicKey {
	return ProtocolDerivation(program).Address()
}

type poolState interface {
	Balance(owner crypto.PublicKey, mint *crypto.PublicKey) (uint64, error)
	AccountExists(addr crypto.PublicKey) (bool, error)
	CreateDerived(payer crypto.PublicKey, d crypto.Derivation) (crypto.PublicKey, error)
	TransferFromDerived(d crypto.Derivation, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error
	MinimumReserve() uint64
}

// ReceiverRegistry answers whether an address may receive withdrawn fees.
type ReceiverRegistry interface {
	IsFeeReceiver(addr crypto.PublicKey) (bool, error)
}

// Pool holds fees collected by settlements and payments until a registered
// fee receiver withdraws them.
type Pool struct {
	state     poolState
	receivers ReceiverRegistry
	program   crypto.PublicKey
	emitter   events.Emitter
}

// NewPool constructs the fee pool of program.
func NewPool(program crypto.PublicKey) *Pool {
	return &Pool{program: program, emitter: events.NoopEmitter{}}
}

func (p *Pool) SetState(state poolState) { p.state = state }

func (p *Pool) SetReceivers(r ReceiverRegistry) { p.receivers = r }

func (p *Pool) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

// Address returns the pool account.
func (p *Pool) Address() crypto.PublicKey { return ProtocolAddress(p.program) }

// Ensure opens the pool account when it does not exist yet.
func (p *Pool) Ensure(payer crypto.PublicKey) error {
	if p.state == nil {
		return errPoolNilState
	}
	exists, err := p.state.AccountExists(p.Address())
	if err != nil || exists {
		return err
	}
	_, err = p.state.CreateDerived(payer, ProtocolDerivation(p.program))
	return err
}

// Balance returns the pool holdings of mint. A nil mint selects native
// currency, reservation included.
func (p *Pool) Balance(mint *crypto.PublicKey) (uint64, error) {
	if p.state == nil {
		return 0, errPoolNilState
	}
	return p.state.Balance(p.Address(), mint)
}

// WithdrawAccounts names the parties of a fee withdrawal.
type WithdrawAccounts struct {
	Signer crypto.PublicKey
	ToUser crypto.PublicKey
	Tokens *common.TokenAccounts
}

// WithdrawArgs selects the asset and amount to withdraw.
type WithdrawArgs struct {
	Token  *crypto.PublicKey
	Amount uint64
}

// Withdraw moves collected fees to a registered fee receiver. Anyone may
// trigger it. The native pool never drops below its reservation.
func (p *Pool) Withdraw(signers crypto.SignerSet, accts WithdrawAccounts, args WithdrawArgs) error {
	if p.state == nil || p.receivers == nil {
		return errPoolNilState
	}
	if err := (common.RequireSigner{Key: accts.Signer}).Authorize(signers); err != nil {
		return err
	}
	registered, err := p.receivers.IsFeeReceiver(accts.ToUser)
	if err != nil {
		return err
	}
	if !registered {
		return stderrors.ErrInvalidFeeReceiver
	}
	balance, err := p.Balance(args.Token)
	if err != nil {
		return err
	}
	if balance < args.Amount {
		return stderrors.ErrInvalidAmount
	}
	if args.Token == nil {
		if balance-args.Amount < p.state.MinimumReserve() {
			return stderrors.ErrInvalidAmount
		}
	} else {
		route := common.TokenRoute{Mint: *args.Token, From: p.Address(), To: accts.ToUser}
		if err := common.CheckTokenRoute(accts.Tokens, route); err != nil {
			return err
		}
	}
	if err := p.state.TransferFromDerived(ProtocolDerivation(p.program), accts.ToUser, args.Token, args.Amount); err != nil {
		return fmt.Errorf("fees: withdraw: %w", err)
	}
	p.emitter.Emit(events.FeeWithdrawn{
		Token:    args.Token,
		To:       accts.ToUser,
		Operator: accts.Signer,
		Amount:   args.Amount,
	})
	return nil
}
