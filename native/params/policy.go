package params

import (
	"fmt"
	"strings"

	"optimex/crypto"
)

// FeaturePayments gates the direct payment receipt flow.
const FeaturePayments = "payments"

const (
	VariantOptimex = "optimex"
	VariantPetaFi  = "petafi"
)

// Policy captures the knobs that differ between protocol deployments.
type Policy struct {
	Name            string
	PaymentsEnabled bool
	MaxOperators    int
	// MaxFeeReceivers bounds the fee receiver registry. Zero means unbounded.
	MaxFeeReceivers int
	// NativeWhitelistKey is the whitelist entry consulted for native currency.
	NativeWhitelistKey crypto.PublicKey
}

// OptimexPolicy returns the Optimex deployment policy.
func OptimexPolicy() Policy {
	return Policy{
		Name:               VariantOptimex,
		PaymentsEnabled:    true,
		MaxOperators:       DefaultMaxOperators,
		NativeWhitelistKey: crypto.NativeMint,
	}
}

// PetaFiPolicy returns the PetaFi deployment policy, which routes all fees to
// a single receiver.
func PetaFiPolicy() Policy {
	return Policy{
		Name:               VariantPetaFi,
		PaymentsEnabled:    true,
		MaxOperators:       DefaultMaxOperators,
		MaxFeeReceivers:    1,
		NativeWhitelistKey: crypto.NativeMint,
	}
}

// PolicyByName resolves a variant name. An empty name selects Optimex.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantOptimex:
		return OptimexPolicy(), nil
	case VariantPetaFi:
		return PetaFiPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("params: unknown protocol variant %q", name)
	}
}

// WithPayments returns a copy of the policy with the payment flow toggled.
func (p Policy) WithPayments(enabled bool) Policy {
	p.PaymentsEnabled = enabled
	return p
}

// FeatureEnabled implements common.FeatureView.
func (p Policy) FeatureEnabled(feature string) bool {
	switch feature {
	case FeaturePayments:
		return p.PaymentsEnabled
	default:
		return false
	}
}

// WhitelistKey maps an asset to its whitelist entry key. A nil asset is
// native currency.
func (p Policy) WhitelistKey(asset *crypto.PublicKey) crypto.PublicKey {
	if asset == nil {
		return p.NativeWhitelistKey
	}
	return *asset
}
