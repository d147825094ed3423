package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the settlement daemon configuration.
type Config struct {
	ListenAddress string          `toml:"ListenAddress" yaml:"listenAddress"`
	DataDir       string          `toml:"DataDir" yaml:"dataDir"`
	Environment   string          `toml:"Environment" yaml:"environment"`
	Log           LogConfig       `toml:"Log" yaml:"log"`
	Protocol      ProtocolConfig  `toml:"Protocol" yaml:"protocol"`
	RateLimit     RateLimitConfig `toml:"RateLimit" yaml:"rateLimit"`
	Telemetry     TelemetryConfig `toml:"Telemetry" yaml:"telemetry"`
	Genesis       []Allocation    `toml:"Genesis" yaml:"genesis"`
}

type LogConfig struct {
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"maxAgeDays"`
}

// ProtocolConfig selects the deployment variant and the keys it trusts.
type ProtocolConfig struct {
	Variant string `toml:"Variant" yaml:"variant"`
	// ProgramID is the base58 program key accounts are derived under. Empty
	// selects the built-in default.
	ProgramID        string `toml:"ProgramID" yaml:"programId"`
	UpgradeAuthority string `toml:"UpgradeAuthority" yaml:"upgradeAuthority"`
	// Payments overrides the variant's payment switch when set.
	Payments      *bool  `toml:"Payments,omitempty" yaml:"payments,omitempty"`
	RecordReserve uint64 `toml:"RecordReserve" yaml:"recordReserve"`
}

type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute" yaml:"requestsPerMinute"`
	Burst             int     `toml:"Burst" yaml:"burst"`
}

type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
}

// Allocation credits Owner with Amount at first start. An empty Mint is
// native currency.
type Allocation struct {
	Owner  string `toml:"Owner" yaml:"owner"`
	Mint   string `toml:"Mint,omitempty" yaml:"mint,omitempty"`
	Amount uint64 `toml:"Amount" yaml:"amount"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	return &Config{
		ListenAddress: ":8899",
		DataDir:       "./optimex-data",
		Environment:   "local",
		Log:           LogConfig{Level: "info"},
		Protocol:      ProtocolConfig{Variant: "optimex"},
		RateLimit:     RateLimitConfig{RequestsPerMinute: 600, Burst: 50},
		Genesis:       []Allocation{},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads the configuration from path. TOML is the default format;
// .yaml and .yml files are parsed as YAML. A missing file is created with
// defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown key %s in %s", undecoded[0], path)
		}
	}
	if cfg.Genesis == nil {
		cfg.Genesis = []Allocation{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
