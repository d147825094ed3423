package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	stderrors "optimex/core/errors"
	"optimex/core/events"
	"optimex/core/state"
	"optimex/crypto"
	"optimex/native/fees"
	"optimex/native/params"
	"optimex/native/payment"
	"optimex/native/settlement"
	"optimex/observability"
	telemetry "optimex/observability/otel"
	"optimex/storage"
)

// Allocation credits Owner at first start. Mint is nil for native currency.
type Allocation struct {
	Owner  crypto.PublicKey
	Mint   *crypto.PublicKey
	Amount uint64
}

// NodeConfig wires a Node.
type NodeConfig struct {
	Program          crypto.PublicKey
	Policy           params.Policy
	UpgradeAuthority crypto.PublicKey
	// RecordReserve overrides state.DefaultRecordReserve when non-zero.
	RecordReserve uint64
	Genesis       []Allocation
	Logger        *slog.Logger
	// Now overrides the wall clock, primarily used in tests.
	Now func() int64
}

// Node is the serialized executor. Every operation runs alone against the
// state overlay and either commits in full or leaves no trace. Events reach
// subscribers only after their operation committed.
type Node struct {
	mu sync.Mutex

	state      *state.Manager
	params     *params.Store
	settlement *settlement.Engine
	payments   *payment.Engine
	pool       *fees.Pool

	pending     *events.Buffer
	subscribers events.Fanout

	program crypto.PublicKey
	logger  *slog.Logger
	now     func() int64
	metrics *observability.SettlementMetricsRegistry
	tracer  trace.Tracer
}

// NewNode opens the node over db and applies the genesis allocations once.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database required")
	}
	program := cfg.Program
	if program.IsZero() {
		program = crypto.DefaultProgramID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Policy
	if policy.Name == "" {
		policy = params.OptimexPolicy()
	}

	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}

	manager := state.NewManager(db)
	if cfg.RecordReserve > 0 {
		manager.SetRecordReserve(cfg.RecordReserve)
	}
	n := &Node{
		state:   manager,
		params:  params.NewStore(manager, policy, cfg.UpgradeAuthority),
		pending: &events.Buffer{},
		program: program,
		logger:  logger.With("component", "node"),
		now:     now,
		metrics: observability.SettlementMetrics(),
		tracer:  telemetry.Tracer(),
	}

	n.settlement = settlement.NewEngine(program)
	n.settlement.SetState(manager)
	n.settlement.SetConfig(n.params)
	n.settlement.SetEmitter(n.pending)
	n.settlement.SetNowFunc(now)

	n.payments = payment.NewEngine(program)
	n.payments.SetState(manager)
	n.payments.SetConfig(n.params)
	n.payments.SetEmitter(n.pending)
	n.payments.SetNowFunc(now)

	n.pool = fees.NewPool(program)
	n.pool.SetState(manager)
	n.pool.SetReceivers(n.params)
	n.pool.SetEmitter(n.pending)

	if err := n.applyGenesis(cfg.Genesis); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) applyGenesis(allocs []Allocation) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	applied, err := n.state.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range allocs {
		if err := n.state.Credit(alloc.Owner, alloc.Mint, alloc.Amount); err != nil {
			n.state.Discard()
			return fmt.Errorf("node: genesis credit %s: %w", alloc.Owner, err)
		}
	}
	if err := n.state.MarkGenesisApplied(); err != nil {
		n.state.Discard()
		return err
	}
	if err := n.state.Commit(); err != nil {
		return err
	}
	n.logger.Info("genesis applied", "allocations", len(allocs))
	return nil
}

// Subscribe registers an emitter for committed events. Emitters run under
// the node lock and must not block.
func (n *Node) Subscribe(emitter events.Emitter) {
	n.subscribers.Add(emitter)
}

// Program returns the program id accounts are derived under.
func (n *Node) Program() crypto.PublicKey { return n.program }

// Policy returns the active deployment policy.
func (n *Node) Policy() params.Policy { return n.params.Policy() }

// execute runs fn as one all-or-nothing operation.
func (n *Node) execute(ctx context.Context, operation string, tradeID *[32]byte, fn func() error) error {
	_, span := n.tracer.Start(ctx, operation)
	defer span.End()
	start := time.Now()

	n.mu.Lock()
	err := n.consumeEnvelope(ctx)
	if err == nil {
		err = fn()
	}
	writes := n.state.PendingWrites()
	if err == nil {
		err = n.state.Commit()
	}
	if err != nil {
		n.state.Discard()
		n.pending.Reset()
	} else {
		for _, evt := range n.pending.Drain() {
			n.subscribers.Emit(evt)
		}
	}
	n.mu.Unlock()

	elapsed := time.Since(start)
	attrs := []any{"operation", operation, "duration", elapsed}
	if tradeID != nil {
		id := fmt.Sprintf("0x%x", tradeID[:])
		attrs = append(attrs, "trade_id", id)
		span.SetAttributes(attribute.String("trade.id", id))
	}
	if err != nil {
		kind := "internal"
		if k, ok := stderrors.KindOf(err); ok {
			kind = k.String()
		}
		n.metrics.ObserveOperation(operation, kind, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		n.logger.Warn("operation rejected", append(attrs, "kind", kind, "error", err)...)
		return err
	}
	n.metrics.ObserveOperation(operation, "", elapsed)
	n.logger.Debug("operation committed", append(attrs, "writes", writes)...)
	return nil
}

// query runs fn under the node lock without touching the overlay.
func (n *Node) query(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}
