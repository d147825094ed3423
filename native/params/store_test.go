package params_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	stderrors "optimex/core/errors"
	"optimex/core/state"
	"optimex/crypto"
	"optimex/native/params"
	"optimex/storage"
)

func key(t *testing.T, b byte) crypto.PublicKey {
	t.Helper()
	k, err := crypto.PrivateKeyFromSeed(bytes.Repeat([]byte{b}, 32))
	require.NoError(t, err)
	return k.PubKey()
}

func signedBy(keys ...crypto.PublicKey) crypto.SignerSet { return crypto.NewSignerSet(keys...) }

func newStore(t *testing.T, policy params.Policy) (*params.Store, crypto.PublicKey, crypto.PublicKey) {
	t.Helper()
	authority := key(t, 1)
	admin := key(t, 2)
	store := params.NewStore(state.NewManager(storage.NewMemDB()), policy, authority)
	require.NoError(t, store.Init(signedBy(authority), params.InitArgs{Admin: &admin}))
	return store, authority, admin
}

func TestInitRequiresUpgradeAuthority(t *testing.T) {
	authority := key(t, 1)
	admin := key(t, 2)
	store := params.NewStore(state.NewManager(storage.NewMemDB()), params.OptimexPolicy(), authority)

	_, err := store.Config()
	require.ErrorIs(t, err, stderrors.ErrConfigNotInitialized)

	require.ErrorIs(t, store.Init(signedBy(admin), params.InitArgs{Admin: &admin}), stderrors.ErrUnauthorized)
	require.NoError(t, store.Init(signedBy(authority), params.InitArgs{Admin: &admin}))

	cfg, err := store.Config()
	require.NoError(t, err)
	require.Equal(t, admin, cfg.Admin)
	require.Empty(t, cfg.Operators)

	// re-running init without an admin keeps the current one
	require.NoError(t, store.Init(signedBy(authority), params.InitArgs{}))
	cfg, err = store.Config()
	require.NoError(t, err)
	require.Equal(t, admin, cfg.Admin)
}

func TestOperatorManagement(t *testing.T) {
	store, _, admin := newStore(t, params.OptimexPolicy())
	op1, op2, op3, op4 := key(t, 10), key(t, 11), key(t, 12), key(t, 13)

	require.ErrorIs(t, store.AddOrRemoveOperator(signedBy(op1), op1, true), stderrors.ErrUnauthorized)
	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op1, true))
	require.ErrorIs(t, store.AddOrRemoveOperator(signedBy(admin), op1, true), stderrors.ErrOperatorAlreadyExists)
	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op2, true))
	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op3, true))
	require.ErrorIs(t, store.AddOrRemoveOperator(signedBy(admin), op4, true), stderrors.ErrOperatorLimitReached)

	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op2, false))
	require.ErrorIs(t, store.AddOrRemoveOperator(signedBy(admin), op2, false), stderrors.ErrOperatorNotFound)

	cfg, err := store.Config()
	require.NoError(t, err)
	require.Equal(t, []crypto.PublicKey{op1, op3}, cfg.Operators)
}

func TestWhitelistManagement(t *testing.T) {
	store, _, admin := newStore(t, params.OptimexPolicy())
	op := key(t, 10)
	mint := key(t, 20)
	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op, true))

	require.ErrorIs(t, store.AddOrUpdateWhitelist(signedBy(admin), mint, 5), stderrors.ErrUnauthorized)
	require.NoError(t, store.AddOrUpdateWhitelist(signedBy(op), mint, 5))
	require.NoError(t, store.AddOrUpdateWhitelist(signedBy(op), mint, 7))

	entry, err := store.Whitelist(&mint)
	require.NoError(t, err)
	require.Equal(t, uint64(7), entry.MinAmount)

	_, err = store.Whitelist(nil)
	require.ErrorIs(t, err, stderrors.ErrNotWhitelistedToken)
	require.NoError(t, store.AddOrUpdateWhitelist(signedBy(op), crypto.NativeMint, 1))
	entry, err = store.Whitelist(nil)
	require.NoError(t, err)
	require.Equal(t, crypto.NativeMint, entry.Token)

	require.NoError(t, store.RemoveWhitelist(signedBy(op), mint))
	require.ErrorIs(t, store.RemoveWhitelist(signedBy(op), mint), stderrors.ErrNotWhitelistedToken)
	_, err = store.Whitelist(&mint)
	require.ErrorIs(t, err, stderrors.ErrNotWhitelistedToken)
}

func TestSetCloseWaitDuration(t *testing.T) {
	store, _, admin := newStore(t, params.OptimexPolicy())
	op := key(t, 10)
	require.NoError(t, store.AddOrRemoveOperator(signedBy(admin), op, true))

	trade := uint64(3600)
	require.ErrorIs(t, store.SetCloseWaitDuration(signedBy(admin), params.CloseWaitArgs{CloseTradeDuration: &trade}), stderrors.ErrUnauthorized)
	require.NoError(t, store.SetCloseWaitDuration(signedBy(op), params.CloseWaitArgs{CloseTradeDuration: &trade}))

	pay := uint64(60)
	require.NoError(t, store.SetCloseWaitDuration(signedBy(op), params.CloseWaitArgs{ClosePaymentDuration: &pay}))

	cfg, err := store.Config()
	require.NoError(t, err)
	require.Equal(t, uint64(3600), cfg.CloseTradeDuration)
	require.Equal(t, uint64(60), cfg.ClosePaymentDuration)
}

func TestFeeReceivers(t *testing.T) {
	store, _, admin := newStore(t, params.OptimexPolicy())
	r1, r2 := key(t, 30), key(t, 31)

	require.ErrorIs(t, store.AddFeeReceiver(signedBy(r1), r1), stderrors.ErrUnauthorized)
	require.NoError(t, store.AddFeeReceiver(signedBy(admin), r1))
	require.ErrorIs(t, store.AddFeeReceiver(signedBy(admin), r1), stderrors.ErrFeeReceiverAlreadyExists)
	require.NoError(t, store.AddFeeReceiver(signedBy(admin), r2))

	list, err := store.FeeReceivers()
	require.NoError(t, err)
	require.Equal(t, []crypto.PublicKey{r1, r2}, list)

	require.NoError(t, store.RemoveFeeReceiver(signedBy(admin), r1))
	require.ErrorIs(t, store.RemoveFeeReceiver(signedBy(admin), r1), stderrors.ErrInvalidFeeReceiver)
	ok, err := store.IsFeeReceiver(r1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPetaFiAllowsOneFeeReceiver(t *testing.T) {
	store, _, admin := newStore(t, params.PetaFiPolicy())
	require.NoError(t, store.AddFeeReceiver(signedBy(admin), key(t, 30)))
	require.ErrorIs(t, store.AddFeeReceiver(signedBy(admin), key(t, 31)), stderrors.ErrFeeReceiverLimitReached)
}

func TestPolicyByName(t *testing.T) {
	p, err := params.PolicyByName(" PetaFi ")
	require.NoError(t, err)
	require.Equal(t, params.VariantPetaFi, p.Name)

	p, err = params.PolicyByName("")
	require.NoError(t, err)
	require.True(t, p.FeatureEnabled(params.FeaturePayments))
	require.False(t, p.WithPayments(false).FeatureEnabled(params.FeaturePayments))

	_, err = params.PolicyByName("other")
	require.Error(t, err)
}
