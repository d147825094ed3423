package core

import (
	"context"
	"errors"
)

var (
	ErrEnvelopeReplayed = errors.New("core: envelope already executed")
	ErrEnvelopeExpired  = errors.New("core: envelope expired")
	ErrEnvelopeWindow   = errors.New("core: envelope expiry beyond validity window")
)

// MaxEnvelopeLifetime bounds, in seconds, how far ahead of the node clock a
// signed request may set its expiry.
const MaxEnvelopeLifetime int64 = 3600

// Envelope identifies one signed request. Digest covers the program, method,
// nonce, expiry and payload the signers committed to.
type Envelope struct {
	Digest    [32]byte
	ExpiresAt int64
}

type envelopeContextKey struct{}

// WithEnvelope attaches the signed request behind an operation to ctx. The
// node executes an operation carrying an envelope at most once.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeContextKey{}, env)
}

func envelopeFromContext(ctx context.Context) (Envelope, bool) {
	if ctx == nil {
		return Envelope{}, false
	}
	env, ok := ctx.Value(envelopeContextKey{}).(Envelope)
	return env, ok
}

// consumeEnvelope rejects expired or already executed envelopes and records
// the envelope in the overlay of the running operation.
func (n *Node) consumeEnvelope(ctx context.Context) error {
	env, ok := envelopeFromContext(ctx)
	if !ok {
		return nil
	}
	now := n.now()
	if env.ExpiresAt < now {
		return ErrEnvelopeExpired
	}
	if env.ExpiresAt-now > MaxEnvelopeLifetime {
		return ErrEnvelopeWindow
	}
	used, err := n.state.EnvelopeConsumed(env.Digest)
	if err != nil {
		return err
	}
	if used {
		return ErrEnvelopeReplayed
	}
	return n.state.ConsumeEnvelope(env.Digest, env.ExpiresAt)
}
