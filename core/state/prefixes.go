package state

var (
	kvPrefix          = []byte("kv/")
	balancePrefix     = []byte("ledger/balance/")
	accountPrefix     = []byte("ledger/account/")
	tradePrefix       = []byte("settlement/trade/")
	receiptPrefix     = []byte("payment/receipt/")
	configKeyBytes    = []byte("params/config")
	whitelistPrefix   = []byte("params/whitelist/")
	feeReceiverPrefix = []byte("params/fee-receiver/")
	feeReceiverIndex  = []byte("params/fee-receivers")
	genesisKey        = []byte("genesis/applied")
	envelopePrefix    = []byte("rpc/envelope/")
)
