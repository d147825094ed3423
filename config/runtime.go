package config

import (
	"strings"

	"optimex/crypto"
	"optimex/native/params"
)

// Runtime is the parsed form of the protocol section.
type Runtime struct {
	Policy           params.Policy
	Program          crypto.PublicKey
	UpgradeAuthority crypto.PublicKey
	RecordReserve    uint64
	Genesis          []GenesisCredit
}

// GenesisCredit is a parsed genesis allocation. Mint is nil for native.
type GenesisCredit struct {
	Owner  crypto.PublicKey
	Mint   *crypto.PublicKey
	Amount uint64
}

// Runtime resolves keys and the variant policy. Call Validate first.
func (c *Config) Runtime() (Runtime, error) {
	policy, err := params.PolicyByName(c.Protocol.Variant)
	if err != nil {
		return Runtime{}, err
	}
	if c.Protocol.Payments != nil {
		policy = policy.WithPayments(*c.Protocol.Payments)
	}
	rt := Runtime{
		Policy:        policy,
		Program:       crypto.DefaultProgramID,
		RecordReserve: c.Protocol.RecordReserve,
	}
	if raw := strings.TrimSpace(c.Protocol.ProgramID); raw != "" {
		if rt.Program, err = crypto.ParsePublicKey(raw); err != nil {
			return Runtime{}, err
		}
	}
	if raw := strings.TrimSpace(c.Protocol.UpgradeAuthority); raw != "" {
		if rt.UpgradeAuthority, err = crypto.ParsePublicKey(raw); err != nil {
			return Runtime{}, err
		}
	}
	for _, alloc := range c.Genesis {
		owner, err := crypto.ParsePublicKey(alloc.Owner)
		if err != nil {
			return Runtime{}, err
		}
		credit := GenesisCredit{Owner: owner, Amount: alloc.Amount}
		if raw := strings.TrimSpace(alloc.Mint); raw != "" {
			mint, err := crypto.ParsePublicKey(raw)
			if err != nil {
				return Runtime{}, err
			}
			credit.Mint = &mint
		}
		rt.Genesis = append(rt.Genesis, credit)
	}
	return rt, nil
}
