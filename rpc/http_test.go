package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"optimex/core"
	stderrors "optimex/core/errors"
	"optimex/crypto"
	"optimex/native/common"
	"optimex/native/fees"
	"optimex/native/params"
	"optimex/native/settlement"
	"optimex/storage"
)

type testEnv struct {
	t        *testing.T
	server   *Server
	handler  http.Handler
	owner    *crypto.PrivateKey
	operator *crypto.PrivateKey
	user     *crypto.PrivateKey
	mpc      *crypto.PrivateKey
	refund   *crypto.PrivateKey
	now      int64
	nonce    uint64
}

func testKey(t *testing.T, b byte) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.PrivateKeyFromSeed(bytes.Repeat([]byte{b}, 32))
	require.NoError(t, err)
	return k
}

func newTestEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		owner:    testKey(t, 1),
		operator: testKey(t, 2),
		user:     testKey(t, 3),
		mpc:      testKey(t, 4),
		refund:   testKey(t, 5),
		now:      1_700_000_000,
	}
	node, err := core.NewNode(storage.NewMemDB(), core.NodeConfig{
		Policy:           params.OptimexPolicy(),
		UpgradeAuthority: env.owner.PubKey(),
		Genesis: []core.Allocation{
			{Owner: env.owner.PubKey(), Amount: 10_000_000_000},
			{Owner: env.user.PubKey(), Amount: 10_000_000_000},
		},
		Now: func() int64 { return env.now },
	})
	require.NoError(t, err)
	env.server = NewServer(node, cfg)
	env.handler = env.server.Handler()
	return env
}

// signed builds a request with a fresh nonce and a one minute expiry.
func (e *testEnv) signed(method string, payload interface{}, keys ...*crypto.PrivateKey) []byte {
	e.t.Helper()
	e.nonce++
	return e.signedWith(method, e.nonce, e.now+60, payload, keys...)
}

func (e *testEnv) signedWith(method string, nonce uint64, expiresAt int64, payload interface{}, keys ...*crypto.PrivateKey) []byte {
	e.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(e.t, err)
	msg := SigningMessage(e.server.node.Program(), method, nonce, expiresAt, raw)
	sigs := make([]signatureJSON, 0, len(keys))
	for _, k := range keys {
		sigs = append(sigs, signatureJSON{
			Signer:    k.PubKey().String(),
			Signature: hex.EncodeToString(k.Sign(msg)),
		})
	}
	env, err := json.Marshal(signedEnvelope{Nonce: nonce, ExpiresAt: expiresAt, Payload: raw, Signatures: sigs})
	require.NoError(e.t, err)
	return e.request(method, env)
}

func (e *testEnv) request(method string, params ...json.RawMessage) []byte {
	e.t.Helper()
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: params, ID: 1})
	require.NoError(e.t, err)
	return body
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (e *testEnv) do(body []byte) (*httptest.ResponseRecorder, rpcReply) {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	var reply rpcReply
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return rec, reply
}

func (e *testEnv) mustOK(body []byte) json.RawMessage {
	e.t.Helper()
	rec, reply := e.do(body)
	require.Nil(e.t, reply.Error, "unexpected error: %+v", reply.Error)
	require.Equal(e.t, http.StatusOK, rec.Code)
	return reply.Result
}

func (e *testEnv) bootstrap() {
	e.t.Helper()
	owner := e.owner.PubKey().String()
	e.mustOK(e.signed("admin_init", initPayload{Payer: owner, Admin: owner}, e.owner))
	e.mustOK(e.signed("admin_addOrRemoveOperator", operatorPayload{Operator: e.operator.PubKey().String(), IsAdd: true}, e.owner))
	e.mustOK(e.signed("admin_addOrUpdateWhitelist", whitelistPayload{Token: crypto.NativeMint.String(), MinAmount: "1000"}, e.operator))
}

func (e *testEnv) tradeInput(amount uint64) tradeInputJSON {
	var session [32]byte
	session[31] = 7
	var solver [20]byte
	solver[19] = 0xaa
	amountIn := settlement.EncodeAmount(amount)
	return tradeInputJSON{
		SessionID: hexBytes(session[:]),
		Solver:    hexBytes(solver[:]),
		AmountIn:  hexBytes(amountIn[:]),
		FromChain: [3]string{e.user.PubKey().String(), "solana", "native"},
		ToChain:   [3]string{"0x1111111111111111111111111111111111111111", "ethereum", "native"},
	}
}

func TestRPCDepositAndQuery(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.bootstrap()

	input := env.tradeInput(25_000)
	rawInput, err := json.Marshal(input)
	require.NoError(t, err)
	var computed tradeIDResult
	require.NoError(t, json.Unmarshal(env.mustOK(env.request("settlement_computeTradeId", rawInput)), &computed))

	eph := testKey(t, 50)
	deposit := depositPayload{
		Input:     input,
		TradeID:   computed.TradeID,
		Timeout:   env.now + 600,
		MPC:       env.mpc.PubKey().String(),
		Refund:    env.refund.PubKey().String(),
		Signer:    env.user.PubKey().String(),
		Ephemeral: eph.PubKey().String(),
	}
	var trade tradeJSON
	require.NoError(t, json.Unmarshal(env.mustOK(env.signed("settlement_deposit", deposit, env.user, eph)), &trade))
	require.Equal(t, computed.TradeID, trade.ID)
	require.Equal(t, "deposited", trade.Status)
	require.Equal(t, "25000", trade.Amount)

	rawID, err := json.Marshal(tradeIDParams{TradeID: computed.TradeID})
	require.NoError(t, err)
	var view tradeJSON
	require.NoError(t, json.Unmarshal(env.mustOK(env.request("settlement_getTrade", rawID)), &view))
	require.NotEmpty(t, view.Vault)
	require.NotEqual(t, "0", view.VaultBalance)

	rawConfig, err := json.Marshal(configParams{Asset: "native"})
	require.NoError(t, err)
	var cfg configResult
	require.NoError(t, json.Unmarshal(env.mustOK(env.request("params_getConfig", rawConfig)), &cfg))
	require.Equal(t, params.VariantOptimex, cfg.Variant)
	require.Equal(t, []string{env.operator.PubKey().String()}, cfg.Operators)
	require.NotNil(t, cfg.Whitelist)
	require.Equal(t, "1000", cfg.Whitelist.MinAmount)
}

func TestRPCEngineErrorsMapToKindCodes(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.bootstrap()

	var missing [32]byte
	missing[0] = 0xee
	rawID, err := json.Marshal(tradeIDParams{TradeID: hexBytes(missing[:])})
	require.NoError(t, err)
	rec, reply := env.do(env.request("settlement_getTrade", rawID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, reply.Error)
	require.Equal(t, -stderrors.KindTradeNotFound.Code(), reply.Error.Code)
	require.Equal(t, stderrors.KindTradeNotFound.String(), reply.Error.Message)

	// Operator changes are admin only.
	_, reply = env.do(env.signed("admin_addOrRemoveOperator", operatorPayload{Operator: env.mpc.PubKey().String(), IsAdd: true}, env.operator))
	require.NotNil(t, reply.Error)
	require.Equal(t, -stderrors.KindUnauthorized.Code(), reply.Error.Code)
}

func TestRPCRejectsForgedSignature(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	payload, err := json.Marshal(initPayload{Payer: env.owner.PubKey().String()})
	require.NoError(t, err)
	expiresAt := env.now + 60
	program := env.server.node.Program()
	forge := func(msg []byte) []byte {
		body, err := json.Marshal(signedEnvelope{
			Nonce:      1,
			ExpiresAt:  expiresAt,
			Payload:    payload,
			Signatures: []signatureJSON{{Signer: env.owner.PubKey().String(), Signature: hex.EncodeToString(env.owner.Sign(msg))}},
		})
		require.NoError(t, err)
		return env.request("admin_init", body)
	}

	signedFor := map[string][]byte{
		"other method":  SigningMessage(program, "admin_removeWhitelist", 1, expiresAt, payload),
		"other program": SigningMessage(crypto.NativeMint, "admin_init", 1, expiresAt, payload),
		"other nonce":   SigningMessage(program, "admin_init", 2, expiresAt, payload),
		"other expiry":  SigningMessage(program, "admin_init", 1, expiresAt+1, payload),
	}
	for name, msg := range signedFor {
		rec, reply := env.do(forge(msg))
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		require.Equal(t, codeUnauthorized, reply.Error.Code, name)
	}
}

func TestRPCSignedRequestExecutesOnce(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.bootstrap()

	input := env.tradeInput(25_000)
	parsed, err := input.parse()
	require.NoError(t, err)
	id, err := parsed.TradeID()
	require.NoError(t, err)
	eph := testKey(t, 50)
	env.mustOK(env.signed("settlement_deposit", depositPayload{
		Input:     input,
		TradeID:   hexBytes(id[:]),
		Timeout:   env.now + 600,
		MPC:       env.mpc.PubKey().String(),
		Refund:    env.refund.PubKey().String(),
		Signer:    env.user.PubKey().String(),
		Ephemeral: eph.PubKey().String(),
	}, env.user, eph))

	feeOf := func() string {
		rawID, err := json.Marshal(tradeIDParams{TradeID: hexBytes(id[:])})
		require.NoError(t, err)
		var view tradeJSON
		require.NoError(t, json.Unmarshal(env.mustOK(env.request("settlement_getTrade", rawID)), &view))
		require.NotNil(t, view.TotalFee)
		return *view.TotalFee
	}
	setFee := func(amount string) []byte {
		return env.signed("settlement_setTotalFee", setTotalFeePayload{
			TradeID: hexBytes(id[:]),
			Signer:  env.mpc.PubKey().String(),
			Amount:  amount,
		}, env.mpc)
	}

	stale := setFee("20000")
	env.mustOK(stale)
	env.mustOK(setFee("100"))
	require.Equal(t, "100", feeOf())

	rec, reply := env.do(stale)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, codeReplayed, reply.Error.Code)
	require.Equal(t, "100", feeOf())

	// The same payload under a new nonce is a new request.
	env.mustOK(setFee("20000"))
	require.Equal(t, "20000", feeOf())
}

func TestRPCRejectedRequestIsNotConsumed(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	owner := env.owner.PubKey().String()
	operator := operatorPayload{Operator: env.operator.PubKey().String(), IsAdd: true}

	// Operators can only be added after init.
	body := env.signed("admin_addOrRemoveOperator", operator, env.owner)
	_, reply := env.do(body)
	require.NotNil(t, reply.Error)
	require.NotEqual(t, codeReplayed, reply.Error.Code)

	env.mustOK(env.signed("admin_init", initPayload{Payer: owner, Admin: owner}, env.owner))
	env.mustOK(body)
	rec, reply := env.do(body)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, codeReplayed, reply.Error.Code)
}

func TestRPCEnvelopeExpiry(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	owner := env.owner.PubKey().String()
	payload := initPayload{Payer: owner, Admin: owner}

	rec, reply := env.do(env.signedWith("admin_init", 1, env.now-1, payload, env.owner))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeExpired, reply.Error.Code)

	rec, reply = env.do(env.signedWith("admin_init", 2, env.now+core.MaxEnvelopeLifetime+1, payload, env.owner))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeExpired, reply.Error.Code)

	rec, reply = env.do(env.signedWith("admin_init", 3, 0, payload, env.owner))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidParams, reply.Error.Code)

	env.mustOK(env.signedWith("admin_init", 4, env.now, payload, env.owner))
}

func TestRPCTokenAccounts(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	mint := testKey(t, 60).PubKey()
	from := env.user.PubKey()
	to := env.refund.PubKey()

	raw, err := json.Marshal(tokenAccountsParams{Mint: mint.String(), From: from.String(), To: to.String(), WithFee: true})
	require.NoError(t, err)
	var accts tokenAccountsJSON
	require.NoError(t, json.Unmarshal(env.mustOK(env.request("ledger_getTokenAccounts", raw)), &accts))

	parsed, err := accts.parse()
	require.NoError(t, err)
	route := common.TokenRoute{Mint: mint, From: from, To: to, Protocol: fees.ProtocolAddress(env.server.node.Program()), WithFee: true}
	require.NoError(t, common.CheckTokenRoute(parsed, route))
	require.Equal(t, crypto.TokenAccountAddress(to, mint).String(), accts.Destination)

	raw, err = json.Marshal(tokenAccountsParams{Mint: mint.String(), From: from.String(), To: to.String()})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(env.mustOK(env.request("ledger_getTokenAccounts", raw)), &accts))
	require.Empty(t, accts.Protocol)
}

func TestRPCRequestValidation(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	rec, reply := env.do(env.request("settlement_launch"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, codeMethodNotFound, reply.Error.Code)

	rec, reply = env.do([]byte("{not json"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeParseError, reply.Error.Code)

	rec, reply = env.do(env.signed("admin_init", map[string]string{"payer": env.owner.PubKey().String(), "extra": "x"}, env.owner))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidParams, reply.Error.Code)

	rawID, err := json.Marshal(tradeIDParams{TradeID: "0x1234"})
	require.NoError(t, err)
	_, reply = env.do(env.request("settlement_getTrade", rawID))
	require.Equal(t, codeInvalidParams, reply.Error.Code)
}

func TestRPCRateLimit(t *testing.T) {
	env := newTestEnv(t, ServerConfig{RequestsPerMinute: 1, Burst: 2})
	body := env.request("params_getConfig")
	for i := 0; i < 2; i++ {
		rec, _ := env.do(body)
		require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}
	rec, reply := env.do(body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, codeRateLimited, reply.Error.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health["status"])
	require.Equal(t, params.VariantOptimex, health["variant"])

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, "fixed-id", rec.Header().Get(requestIDHeader))
}

func TestServerShutdownWithoutStart(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	require.NoError(t, env.server.Shutdown(context.Background()))
}
