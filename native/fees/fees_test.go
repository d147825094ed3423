package fees_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/core/state"
	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/fees"
	"optimex/native/params"
	"optimex/storage"
)

func key(t *testing.T, b byte) crypto.PublicKey {
	t.Helper()
	k, err := crypto.PrivateKeyFromSeed(bytes.Repeat([]byte{b}, 32))
	require.NoError(t, err)
	return k.PubKey()
}

func TestSettlementSplit(t *testing.T) {
	split, err := fees.Settlement(1_000, nil)
	require.NoError(t, err)
	require.Equal(t, fees.Split{Gross: 1_000, Net: 1_000}, split)

	fee := uint64(1_000)
	split, err = fees.Settlement(1_000, &fee)
	require.NoError(t, err)
	require.Zero(t, split.Net)

	fee = 1_001
	_, err = fees.Settlement(1_000, &fee)
	require.ErrorIs(t, err, stderrors.ErrInvalidTotalFee)
}

func TestPaymentSplit(t *testing.T) {
	split, err := fees.Payment(1_000, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(999), split.Net)
	require.Equal(t, split.Gross, split.Net+split.Fee)

	_, err = fees.Payment(1_000, 1_000)
	require.ErrorIs(t, err, stderrors.ErrInvalidAmount)
	_, err = fees.Payment(0, 0)
	require.ErrorIs(t, err, stderrors.ErrInvalidAmount)
}

type poolHarness struct {
	state    *state.Manager
	store    *params.Store
	pool     *fees.Pool
	events   *events.Buffer
	admin    crypto.PublicKey
	receiver crypto.PublicKey
}

func newPoolHarness(t *testing.T) *poolHarness {
	t.Helper()
	authority := key(t, 1)
	h := &poolHarness{
		state:    state.NewManager(storage.NewMemDB()),
		events:   &events.Buffer{},
		admin:    key(t, 2),
		receiver: key(t, 3),
	}
	h.store = params.NewStore(h.state, params.OptimexPolicy(), authority)
	require.NoError(t, h.store.Init(crypto.NewSignerSet(authority), params.InitArgs{Admin: &h.admin}))
	require.NoError(t, h.store.AddFeeReceiver(crypto.NewSignerSet(h.admin), h.receiver))

	h.pool = fees.NewPool(crypto.DefaultProgramID)
	h.pool.SetState(h.state)
	h.pool.SetReceivers(h.store)
	h.pool.SetEmitter(h.events)
	require.NoError(t, h.state.Credit(h.admin, nil, 10_000_000))
	require.NoError(t, h.pool.Ensure(h.admin))
	require.NoError(t, h.pool.Ensure(h.admin))
	return h
}

func TestWithdrawNativeKeepsReserve(t *testing.T) {
	h := newPoolHarness(t)
	reserve := h.state.MinimumReserve()
	require.NoError(t, h.state.Credit(h.pool.Address(), nil, 500))

	bal, err := h.pool.Balance(nil)
	require.NoError(t, err)
	require.Equal(t, reserve+500, bal)

	caller := key(t, 9)
	signers := crypto.NewSignerSet(caller)
	accts := fees.WithdrawAccounts{Signer: caller, ToUser: h.receiver}

	err = h.pool.Withdraw(signers, accts, fees.WithdrawArgs{Amount: 501})
	require.ErrorIs(t, err, stderrors.ErrInvalidAmount)

	require.NoError(t, h.pool.Withdraw(signers, accts, fees.WithdrawArgs{Amount: 500}))
	got, err := h.state.Balance(h.receiver, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(500), got)

	emitted := h.events.Drain()
	require.Len(t, emitted, 1)
	evt := emitted[0].(events.FeeWithdrawn)
	require.Equal(t, caller, evt.Operator)
	require.Equal(t, uint64(500), evt.Amount)
}

func TestWithdrawRequiresRegisteredReceiver(t *testing.T) {
	h := newPoolHarness(t)
	require.NoError(t, h.state.Credit(h.pool.Address(), nil, 500))
	stranger := key(t, 9)

	err := h.pool.Withdraw(crypto.NewSignerSet(stranger), fees.WithdrawAccounts{Signer: stranger, ToUser: stranger}, fees.WithdrawArgs{Amount: 1})
	require.ErrorIs(t, err, stderrors.ErrInvalidFeeReceiver)

	err = h.pool.Withdraw(crypto.NewSignerSet(), fees.WithdrawAccounts{Signer: stranger, ToUser: h.receiver}, fees.WithdrawArgs{Amount: 1})
	require.ErrorIs(t, err, stderrors.ErrUnauthorized)
}

func TestWithdrawToken(t *testing.T) {
	h := newPoolHarness(t)
	mint := key(t, 40)
	require.NoError(t, h.state.Credit(h.pool.Address(), &mint, 75))
	signers := crypto.NewSignerSet(h.receiver)

	accts := fees.WithdrawAccounts{Signer: h.receiver, ToUser: h.receiver}
	err := h.pool.Withdraw(signers, accts, fees.WithdrawArgs{Token: &mint, Amount: 75})
	require.ErrorIs(t, err, stderrors.ErrInvalidTokenAccount)

	accts.Tokens = common.CanonicalTokenAccounts(common.TokenRoute{Mint: mint, From: h.pool.Address(), To: h.receiver})
	require.NoError(t, h.pool.Withdraw(signers, accts, fees.WithdrawArgs{Token: &mint, Amount: 75}))

	left, err := h.pool.Balance(&mint)
	require.NoError(t, err)
	require.Zero(t, left)
}
