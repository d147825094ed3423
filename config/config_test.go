package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"optimex/crypto"
	"optimex/native/params"
)

const ownerKey = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settlementd.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8899", cfg.ListenAddress)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.DataDir, again.DataDir)
	require.Equal(t, cfg.RateLimit, again.RateLimit)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "node.toml", `
ListenAddress = "127.0.0.1:9000"
DataDir = "/var/lib/optimex"

[Protocol]
Variant = "petafi"
Payments = false
UpgradeAuthority = "`+ownerKey+`"
RecordReserve = 1000

[[Genesis]]
Owner = "`+ownerKey+`"
Amount = 500
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)

	rt, err := cfg.Runtime()
	require.NoError(t, err)
	require.Equal(t, params.VariantPetaFi, rt.Policy.Name)
	require.False(t, rt.Policy.FeatureEnabled(params.FeaturePayments))
	require.Equal(t, crypto.MustParsePublicKey(ownerKey), rt.UpgradeAuthority)
	require.Equal(t, crypto.DefaultProgramID, rt.Program)
	require.Equal(t, uint64(1000), rt.RecordReserve)
	require.Len(t, rt.Genesis, 1)
	require.Nil(t, rt.Genesis[0].Mint)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "node.yaml", `
listenAddress: ":7000"
dataDir: "./data"
log:
  level: debug
protocol:
  variant: optimex
genesis:
  - owner: "`+ownerKey+`"
    mint: "`+crypto.NativeMint.String()+`"
    amount: 42
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)

	rt, err := cfg.Runtime()
	require.NoError(t, err)
	require.True(t, rt.Policy.FeatureEnabled(params.FeaturePayments))
	require.Equal(t, crypto.NativeMint, *rt.Genesis[0].Mint)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "node.toml", "ListenAddress = \":1\"\nDataDir = \"d\"\nValidatorKey = \"x\"\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "ValidatorKey")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"listen":    func(c *Config) { c.ListenAddress = "" },
		"level":     func(c *Config) { c.Log.Level = "chatty" },
		"variant":   func(c *Config) { c.Protocol.Variant = "other" },
		"program":   func(c *Config) { c.Protocol.ProgramID = "not-a-key" },
		"rate":      func(c *Config) { c.RateLimit.Burst = -1 },
		"owner":     func(c *Config) { c.Genesis = []Allocation{{Owner: "bad", Amount: 1}} },
		"zero gift": func(c *Config) { c.Genesis = []Allocation{{Owner: ownerKey}} },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
	require.NoError(t, Default().Validate())
}
