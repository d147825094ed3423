package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

// PublicKeyLength is the byte length of an account key.
const PublicKeyLength = 32

var (
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)

// PublicKey identifies an account. Wallet accounts are ed25519 keys; accounts
// derived from a program are 32-byte hashes with no private key behind them.
type PublicKey [PublicKeyLength]byte

// String renders the key in base58.
func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// Bytes returns a copy of the raw key bytes.
func (k PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLength)
	copy(out, k[:])
	return out
}

// IsZero reports whether the key is the all-zero key.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParsePublicKey decodes a base58 encoded key.
func ParsePublicKey(s string) (PublicKey, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return PublicKey{}, ErrInvalidPublicKey
	}
	decoded := base58.Decode(trimmed)
	if len(decoded) != PublicKeyLength {
		return PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidPublicKey, s)
	}
	var out PublicKey
	copy(out[:], decoded)
	return out, nil
}

// MustParsePublicKey is ParsePublicKey for package level constants.
func MustParsePublicKey(s string) PublicKey {
	k, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// PrivateKey wraps an ed25519 signing key.
type PrivateKey struct {
	ed25519.PrivateKey
}

// GeneratePrivateKey creates a new random signing key.
func GeneratePrivateKey() (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: priv}, nil
}

// PrivateKeyFromSeed rebuilds a signing key from its 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: seed must be %d bytes", ed25519.SeedSize)
	}
	return &PrivateKey{PrivateKey: ed25519.NewKeyFromSeed(seed)}, nil
}

func (k *PrivateKey) PubKey() PublicKey {
	var out PublicKey
	copy(out[:], k.PrivateKey.Public().(ed25519.PublicKey))
	return out
}

func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.PrivateKey, msg)
}

// Verify checks an ed25519 signature produced by the holder of pub.
func Verify(pub PublicKey, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
