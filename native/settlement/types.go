package settlement

import (
	"fmt"

	stderrors "optimex/core/errors"
	"optimex/crypto"
)

// TradeStatus tracks the lifecycle of an escrowed trade.
type TradeStatus uint8

const (
	TradeDeposited TradeStatus = iota
	TradeSettled
	TradeClaimed
)

func (s TradeStatus) String() string {
	switch s {
	case TradeDeposited:
		return "deposited"
	case TradeSettled:
		return "settled"
	case TradeClaimed:
		return "claimed"
	default:
		return fmt.Sprintf("TradeStatus(%d)", uint8(s))
	}
}

// Valid reports whether the status is a known lifecycle state.
func (s TradeStatus) Valid() bool {
	return s <= TradeClaimed
}

// Trade is the persisted record of a deposit bound to a trade id.
type Trade struct {
	ID [32]byte
	// User deposited the funds and receives every reservation back on close.
	User crypto.PublicKey
	// Token is nil for native currency.
	Token     *crypto.PublicKey
	Amount    uint64
	Timeout   int64
	MPC       crypto.PublicKey
	Ephemeral crypto.PublicKey
	Refund    crypto.PublicKey
	// TotalFee stays nil until the MPC sets it.
	TotalFee   *uint64
	Status     TradeStatus
	SettledPMM crypto.PublicKey
}

// Clone returns a deep copy of the trade.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	out := *t
	if t.Token != nil {
		token := *t.Token
		out.Token = &token
	}
	if t.TotalFee != nil {
		fee := *t.TotalFee
		out.TotalFee = &fee
	}
	return &out
}

// Fee returns the total fee, zero when unset.
func (t *Trade) Fee() uint64 {
	if t == nil || t.TotalFee == nil {
		return 0
	}
	return *t.TotalFee
}

// Sanitize validates a record loaded from storage.
func (t *Trade) Sanitize() error {
	if t == nil {
		return fmt.Errorf("settlement: nil trade")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("settlement: invalid status %d", t.Status)
	}
	if t.TotalFee != nil && *t.TotalFee > t.Amount {
		return fmt.Errorf("settlement: total fee %d exceeds amount %d", *t.TotalFee, t.Amount)
	}
	return nil
}

// AssertSettlement checks the trade can still be settled at now.
func (t *Trade) AssertSettlement(now int64) error {
	if now > t.Timeout {
		return stderrors.ErrTimeOut
	}
	if t.Status != TradeDeposited {
		return stderrors.ErrInvalidTradeStatus
	}
	return nil
}

// AssertClaim checks the depositor may reclaim the trade at now.
func (t *Trade) AssertClaim(now int64) error {
	if now <= t.Timeout {
		return stderrors.ErrClaimNotAvailable
	}
	if t.Status != TradeDeposited {
		return stderrors.ErrInvalidTradeStatus
	}
	return nil
}

// AssertCloseFinishedTrade checks the trade records may be destroyed. The MPC
// can close a settled trade at any time; anyone else waits closeWait seconds
// past the timeout. A claimed trade can be closed by anyone.
func (t *Trade) AssertCloseFinishedTrade(now int64, closeWait uint64, isMPC bool) error {
	switch t.Status {
	case TradeDeposited:
		return stderrors.ErrInvalidTradeStatus
	case TradeClaimed:
		return nil
	case TradeSettled:
		if isMPC {
			return nil
		}
		if closeAfter(t.Timeout, closeWait, now) {
			return nil
		}
		return stderrors.ErrCloseNotAvailable
	default:
		return stderrors.ErrInvalidTradeStatus
	}
}

// closeAfter reports now > timeout + wait without overflowing.
func closeAfter(timeout int64, wait uint64, now int64) bool {
	if now <= timeout {
		return false
	}
	return uint64(now-timeout) > wait
}
