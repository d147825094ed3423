package config

import (
	"fmt"
	"strings"

	"optimex/crypto"
	"optimex/native/params"
	"optimex/observability/logging"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: Log.Level: %w", err)
	}
	if _, err := params.PolicyByName(c.Protocol.Variant); err != nil {
		return fmt.Errorf("config: Protocol.Variant: %w", err)
	}
	if err := optionalKey(c.Protocol.ProgramID); err != nil {
		return fmt.Errorf("config: Protocol.ProgramID: %w", err)
	}
	if err := optionalKey(c.Protocol.UpgradeAuthority); err != nil {
		return fmt.Errorf("config: Protocol.UpgradeAuthority: %w", err)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("config: RateLimit values must not be negative")
	}
	for i, alloc := range c.Genesis {
		if _, err := crypto.ParsePublicKey(alloc.Owner); err != nil {
			return fmt.Errorf("config: Genesis[%d].Owner: %w", i, err)
		}
		if err := optionalKey(alloc.Mint); err != nil {
			return fmt.Errorf("config: Genesis[%d].Mint: %w", i, err)
		}
		if alloc.Amount == 0 {
			return fmt.Errorf("config: Genesis[%d].Amount must be positive", i)
		}
	}
	return nil
}

func optionalKey(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	_, err := crypto.ParsePublicKey(raw)
	return err
}
