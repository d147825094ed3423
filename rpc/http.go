package rpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"optimex/core"
	stderrors "optimex/core/errors"
	"optimex/crypto"
	"optimex/observability"
	"optimex/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeReplayed       = -32003
	codeExpired        = -32004
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// ServerConfig tunes the HTTP transport.
type ServerConfig struct {
	RequestsPerMinute float64
	Burst             int
	Logger            *slog.Logger
}

// handlerFunc executes one method. Signed methods receive the verified
// signer set and the raw payload; read-only methods receive the params.
type handlerFunc func(ctx context.Context, call *call) (interface{}, error)

type method struct {
	module string
	signed bool
	handle handlerFunc
}

type call struct {
	method   string
	params   []json.RawMessage
	payload  json.RawMessage
	signers  crypto.SignerSet
	envelope core.Envelope
}

// Server exposes a node over JSON-RPC 2.0.
type Server struct {
	node    *core.Node
	logger  *slog.Logger
	limiter *rateLimiter
	methods map[string]method

	httpServer *http.Server
}

func NewServer(node *core.Node, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:    node,
		logger:  logger.With("component", "rpc"),
		limiter: newRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}
	s.methods = s.registerMethods()
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.limiter.middleware).Post("/rpc", s.handle)
	return otelhttp.NewHandler(r, "optimex.rpc")
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"program": s.node.Program().String(),
		"variant": s.node.Policy().Name,
	})
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// signedEnvelope wraps the payload of a mutating method. Nonce lets a signer
// issue the same payload twice; ExpiresAt is a unix time in seconds.
type signedEnvelope struct {
	Nonce      uint64          `json:"nonce"`
	ExpiresAt  int64           `json:"expiresAt"`
	Payload    json.RawMessage `json:"payload"`
	Signatures []signatureJSON `json:"signatures"`
}

type signatureJSON struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// SigningMessage returns the bytes a signer signs: the program id, the method,
// a zero byte, the big-endian nonce and expiry, then the payload.
func SigningMessage(program crypto.PublicKey, method string, nonce uint64, expiresAt int64, payload []byte) []byte {
	msg := make([]byte, 0, len(program)+len(method)+17+len(payload))
	msg = append(msg, program[:]...)
	msg = append(msg, method...)
	msg = append(msg, 0)
	msg = binary.BigEndian.AppendUint64(msg, nonce)
	msg = binary.BigEndian.AppendUint64(msg, uint64(expiresAt))
	return append(msg, payload...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", err.Error())
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		observability.ModuleMetrics().Observe("unknown", req.Method, codeMethodNotFound, time.Since(start))
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method), nil)
		return
	}

	ctx := r.Context()
	c := &call{method: req.Method, params: req.Params}
	if m.signed {
		if status, code, err := s.authenticate(c); err != nil {
			observability.ModuleMetrics().Observe(m.module, req.Method, code, time.Since(start))
			writeError(w, status, req.ID, code, err.Error(), nil)
			return
		}
		ctx = core.WithEnvelope(ctx, c.envelope)
	}

	result, err := m.handle(ctx, c)
	if err != nil {
		status, rpcErr := mapError(err)
		observability.ModuleMetrics().Observe(m.module, req.Method, rpcErr.Code, time.Since(start))
		s.logger.Debug("rpc call failed",
			"method", req.Method,
			"request_id", w.Header().Get(requestIDHeader),
			"code", rpcErr.Code,
			"error", err)
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	observability.ModuleMetrics().Observe(m.module, req.Method, 0, time.Since(start))
	writeResult(w, req.ID, result)
}

// authenticate verifies the signatures of a signed call and fills in its
// payload and signer set.
func (s *Server) authenticate(c *call) (int, int, error) {
	if len(c.params) != 1 {
		return http.StatusBadRequest, codeInvalidParams, errors.New("expected a single signed envelope")
	}
	var env signedEnvelope
	if err := json.Unmarshal(c.params[0], &env); err != nil {
		return http.StatusBadRequest, codeInvalidParams, fmt.Errorf("invalid envelope: %v", err)
	}
	if len(env.Payload) == 0 {
		return http.StatusBadRequest, codeInvalidParams, errors.New("payload required")
	}
	if env.ExpiresAt <= 0 {
		return http.StatusBadRequest, codeInvalidParams, errors.New("expiresAt required")
	}
	sigs := make([]crypto.Signature, 0, len(env.Signatures))
	for i, raw := range env.Signatures {
		signer, err := crypto.ParsePublicKey(raw.Signer)
		if err != nil {
			return http.StatusBadRequest, codeInvalidParams, fmt.Errorf("signature %d: %v", i, err)
		}
		sig, err := decodeHex(raw.Signature)
		if err != nil {
			return http.StatusBadRequest, codeInvalidParams, fmt.Errorf("signature %d: %v", i, err)
		}
		s.logger.Debug("signature supplied",
			"method", c.method,
			"signer", signer.String(),
			logging.MaskField("signature", raw.Signature))
		sigs = append(sigs, crypto.Signature{Signer: signer, Signature: sig})
	}
	msg := SigningMessage(s.node.Program(), c.method, env.Nonce, env.ExpiresAt, env.Payload)
	signers, err := crypto.VerifySigners(msg, sigs)
	if err != nil {
		return http.StatusUnauthorized, codeUnauthorized, err
	}
	c.payload = env.Payload
	c.signers = signers
	c.envelope = core.Envelope{ExpiresAt: env.ExpiresAt}
	copy(c.envelope.Digest[:], ethcrypto.Keccak256(msg))
	return 0, 0, nil
}

// paramsError marks malformed request parameters.
type paramsError struct{ msg string }

func (e *paramsError) Error() string { return e.msg }

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{msg: fmt.Sprintf(format, args...)}
}

// mapError converts an execution error into a JSON-RPC error. Engine error
// kinds map to the negated kind code with the kind name as message.
func mapError(err error) (int, *RPCError) {
	var perr *paramsError
	if errors.As(err, &perr) {
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: perr.msg}
	}
	if kind, ok := stderrors.KindOf(err); ok {
		return http.StatusOK, &RPCError{Code: -kind.Code(), Message: kind.String(), Data: kind.Category().String()}
	}
	if errors.Is(err, core.ErrEnvelopeReplayed) {
		return http.StatusConflict, &RPCError{Code: codeReplayed, Message: err.Error()}
	}
	if errors.Is(err, core.ErrEnvelopeExpired) || errors.Is(err, core.ErrEnvelopeWindow) {
		return http.StatusUnauthorized, &RPCError{Code: codeExpired, Message: err.Error()}
	}
	if errors.Is(err, crypto.ErrInvalidSignature) {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: err.Error()}
	}
	return http.StatusInternalServerError, &RPCError{Code: codeServerError, Message: "internal error"}
}

func decodePayload(c *call, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(c.payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return invalidParams("invalid payload: %v", err)
	}
	return nil
}

func decodeParam(c *call, out interface{}) error {
	if len(c.params) != 1 {
		return invalidParams("expected a single parameter object")
	}
	if err := json.Unmarshal(c.params[0], out); err != nil {
		return invalidParams("invalid parameter: %v", err)
	}
	return nil
}
