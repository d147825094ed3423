package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindTableComplete(t *testing.T) {
	seen := make(map[string]Kind)
	for k := Kind(0); k < kindCount; k++ {
		name := k.String()
		require.NotEmpty(t, name, "kind %d has no name", k)
		require.NotZero(t, k.Category(), "kind %s has no category", name)
		prev, dup := seen[name]
		require.False(t, dup, "kind %s duplicates %d", name, prev)
		seen[name] = k
	}
}

func TestCodesFollowOrdinal(t *testing.T) {
	require.Equal(t, 6000, KindInvalidTradeID.Code())
	require.Equal(t, 6014, KindNonceAccountBeingUsed.Code())
	require.Equal(t, 6023, KindInvalidFeeReceiver.Code())
}

func TestErrorsIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("settle trade: %w", ErrTimeOut)
	require.True(t, stderrors.Is(wrapped, ErrTimeOut))
	require.True(t, stderrors.Is(wrapped, &Error{Kind: KindTimeOut}))
	require.False(t, stderrors.Is(wrapped, ErrClaimNotAvailable))

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, KindTimeOut, kind)

	_, ok = KindOf(stderrors.New("plain"))
	require.False(t, ok)
}

func TestCategories(t *testing.T) {
	require.Equal(t, CategoryAuthorization, KindUnauthorized.Category())
	require.Equal(t, CategoryTiming, KindClaimNotAvailable.Category())
	require.Equal(t, CategoryAsset, KindNotWhitelistedToken.Category())
	require.Equal(t, "validation", KindInvalidAmount.Category().String())
	require.Equal(t, "Kind(999)", Kind(999).String())
}
