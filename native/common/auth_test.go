package common

import (
	"errors"
	"testing"

	stderrors "optimex/core/errors"
	"optimex/crypto"
)

func testKey(b byte) crypto.PublicKey {
	var k crypto.PublicKey
	k[0] = b
	return k
}

func TestDualSignatureRequiresBoth(t *testing.T) {
	mpc, eph := testKey(1), testKey(2)
	policy := DualSignature(mpc, eph)

	if err := policy.Authorize(crypto.NewSignerSet(mpc, eph)); err != nil {
		t.Fatalf("expected both signers to pass: %v", err)
	}
	if err := policy.Authorize(crypto.NewSignerSet(mpc)); !errors.Is(err, stderrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized without ephemeral, got %v", err)
	}
	if err := policy.Authorize(crypto.NewSignerSet(eph)); !errors.Is(err, stderrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized without mpc, got %v", err)
	}
	if err := policy.Authorize(nil); !errors.Is(err, stderrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized for empty set, got %v", err)
	}
}

func TestRequireSignerCustomError(t *testing.T) {
	p := RequireSigner{Key: testKey(9), Err: stderrors.ErrInvalidUserAccount}
	if err := p.Authorize(crypto.NewSignerSet(testKey(8))); !errors.Is(err, stderrors.ErrInvalidUserAccount) {
		t.Fatalf("expected custom error, got %v", err)
	}
}

func TestRequireAnyOf(t *testing.T) {
	p := RequireAnyOf{Keys: []crypto.PublicKey{testKey(1), testKey(2), testKey(3)}}
	if err := p.Authorize(crypto.NewSignerSet(testKey(3))); err != nil {
		t.Fatalf("expected operator to pass: %v", err)
	}
	if err := p.Authorize(crypto.NewSignerSet(testKey(4))); !errors.Is(err, stderrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if err := (RequireAnyOf{}).Authorize(crypto.NewSignerSet(testKey(1))); err == nil {
		t.Fatalf("empty key list must reject")
	}
}

type features map[string]bool

func (f features) FeatureEnabled(name string) bool { return f[name] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "payments"); err != nil {
		t.Fatalf("nil view must pass: %v", err)
	}
	if err := Guard(features{"payments": true}, "payments"); err != nil {
		t.Fatalf("enabled feature must pass: %v", err)
	}
	if err := Guard(features{}, "payments"); !errors.Is(err, stderrors.ErrFeatureDisabled) {
		t.Fatalf("expected FeatureDisabled, got %v", err)
	}
}

func TestCheckTokenRoute(t *testing.T) {
	route := TokenRoute{Mint: testKey(7), From: testKey(1), To: testKey(2), Protocol: testKey(3), WithFee: true}
	accts := CanonicalTokenAccounts(route)
	if err := CheckTokenRoute(accts, route); err != nil {
		t.Fatalf("canonical accounts rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TokenAccounts)
		want   error
	}{
		{"mint", func(a *TokenAccounts) { a.Mint = testKey(8) }, stderrors.ErrInvalidMintKey},
		{"source", func(a *TokenAccounts) { a.Source = testKey(8) }, stderrors.ErrInvalidSourceAta},
		{"destination", func(a *TokenAccounts) { a.Destination = testKey(8) }, stderrors.ErrInvalidDestinationAta},
		{"protocol", func(a *TokenAccounts) { a.Protocol = testKey(8) }, stderrors.ErrInvalidDestinationAta},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := *accts
			tc.mutate(&bad)
			if err := CheckTokenRoute(&bad, route); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := CheckTokenRoute(nil, route); !errors.Is(err, stderrors.ErrInvalidTokenAccount) {
		t.Fatalf("expected InvalidTokenAccount for missing accounts, got %v", err)
	}
	route.WithFee = false
	noFee := CanonicalTokenAccounts(route)
	if err := CheckTokenRoute(noFee, route); err != nil {
		t.Fatalf("fee-less route rejected: %v", err)
	}
}
