package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"optimex/crypto"
)

func TestSettledEventAttributes(t *testing.T) {
	token := crypto.NativeMint
	evt := TradeSettled{
		TradeID:          [32]byte{0xAB},
		Token:            &token,
		SettlementAmount: 90,
		TotalFee:         10,
	}.Event()
	require.Equal(t, TypeTradeSettled, evt.Type)
	require.Equal(t, "90", evt.Attributes["settlementAmount"])
	require.Equal(t, "10", evt.Attributes["totalFee"])
	require.Equal(t, token.String(), evt.Attributes["token"])
	require.Equal(t, "0xab00000000000000000000000000000000000000000000000000000000000000", evt.Attributes["tradeId"])
}

func TestNativeTokenAttribute(t *testing.T) {
	evt := TradeDeposited{Amount: 5}.Event()
	require.Equal(t, NativeAsset, evt.Attributes["token"])
	require.Equal(t, "5", evt.Attributes["amount"])

	claimed := TradeClaimed{Amount: 7}.Event()
	require.Equal(t, TypeTradeClaimed, claimed.Type)
	require.Equal(t, NativeAsset, claimed.Attributes["token"])
}

func TestBufferDrainAndReset(t *testing.T) {
	var buf Buffer
	buf.Emit(TradeClaimed{})
	buf.Emit(nil)
	buf.Emit(PaymentTransferred{})
	drained := buf.Drain()
	require.Len(t, drained, 2)
	require.Equal(t, TypeTradeClaimed, drained[0].EventType())
	require.Empty(t, buf.Drain())

	buf.Emit(FeeWithdrawn{})
	buf.Reset()
	require.Empty(t, buf.Drain())
}

type recorder struct{ seen []string }

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt.EventType()) }

func TestFanoutDelivers(t *testing.T) {
	var fan Fanout
	a, b := &recorder{}, &recorder{}
	fan.Add(a)
	fan.Add(b)
	fan.Add(nil)
	fan.Emit(TradeDeposited{})
	require.Equal(t, []string{TypeTradeDeposited}, a.seen)
	require.Equal(t, []string{TypeTradeDeposited}, b.seen)
}
