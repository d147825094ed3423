package params

import (
	"fmt"

	stderrors "optimex/core/errors"
	"optimex/crypto"
	"optimex/native/common"
)

// StoreState captures the subset of state manager capabilities required by the
// configuration store.
type StoreState interface {
	ProtocolConfig() (*Config, bool, error)
	SetProtocolConfig(*Config) error
	WhitelistGet(token crypto.PublicKey) (*WhitelistEntry, bool, error)
	WhitelistPut(*WhitelistEntry) error
	WhitelistDelete(token crypto.PublicKey) error
	FeeReceivers() ([]crypto.PublicKey, error)
	FeeReceiverGet(receiver crypto.PublicKey) (*FeeReceiver, bool, error)
	FeeReceiverPut(*FeeReceiver) error
	FeeReceiverDelete(receiver crypto.PublicKey) error
}

// Store provides typed access to the protocol configuration and the admin
// and operator operations that mutate it.
type Store struct {
	state            StoreState
	policy           Policy
	upgradeAuthority crypto.PublicKey
}

// NewStore constructs a configuration store. upgradeAuthority is the only key
// allowed to run Init.
func NewStore(state StoreState, policy Policy, upgradeAuthority crypto.PublicKey) *Store {
	if policy.MaxOperators <= 0 {
		policy.MaxOperators = DefaultMaxOperators
	}
	return &Store{state: state, policy: policy, upgradeAuthority: upgradeAuthority}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

// Policy returns the deployment policy.
func (s *Store) Policy() Policy { return s.policy }

// FeatureEnabled implements common.FeatureView.
func (s *Store) FeatureEnabled(feature string) bool { return s.policy.FeatureEnabled(feature) }

// Config loads the protocol configuration.
func (s *Store) Config() (*Config, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	cfg, ok, err := state.ProtocolConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stderrors.ErrConfigNotInitialized
	}
	return cfg, nil
}

// Whitelist resolves the whitelist entry for an asset. A nil asset is native
// currency.
func (s *Store) Whitelist(asset *crypto.PublicKey) (*WhitelistEntry, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	entry, ok, err := state.WhitelistGet(s.policy.WhitelistKey(asset))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stderrors.ErrNotWhitelistedToken
	}
	return entry, nil
}

// IsFeeReceiver reports whether addr may receive withdrawn fees.
func (s *Store) IsFeeReceiver(addr crypto.PublicKey) (bool, error) {
	state, err := s.withState()
	if err != nil {
		return false, err
	}
	_, ok, err := state.FeeReceiverGet(addr)
	return ok, err
}

// FeeReceivers lists registered fee receivers.
func (s *Store) FeeReceivers() ([]crypto.PublicKey, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	return state.FeeReceivers()
}

func (s *Store) requireAdmin(signers crypto.SignerSet) (*Config, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if err := (common.RequireSigner{Key: cfg.Admin}).Authorize(signers); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Store) requireOperator(signers crypto.SignerSet) (*Config, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if err := (common.RequireAnyOf{Keys: cfg.Operators}).Authorize(signers); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitArgs optionally replaces the admin.
type InitArgs struct {
	Admin *crypto.PublicKey
}

// Init creates the configuration when missing and sets the admin when
// supplied. Only the upgrade authority may call it; repeated calls are
// allowed.
func (s *Store) Init(signers crypto.SignerSet, args InitArgs) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if s.upgradeAuthority.IsZero() {
		return stderrors.ErrUnauthorized
	}
	if err := (common.RequireSigner{Key: s.upgradeAuthority}).Authorize(signers); err != nil {
		return err
	}
	cfg, ok, err := state.ProtocolConfig()
	if err != nil {
		return err
	}
	if !ok {
		cfg = &Config{}
	}
	if args.Admin != nil {
		cfg.Admin = *args.Admin
	}
	return state.SetProtocolConfig(cfg)
}

// AddOrRemoveOperator edits the operator set. Admin only.
func (s *Store) AddOrRemoveOperator(signers crypto.SignerSet, operator crypto.PublicKey, isAdd bool) error {
	cfg, err := s.requireAdmin(signers)
	if err != nil {
		return err
	}
	if isAdd {
		if cfg.IsOperator(operator) {
			return stderrors.ErrOperatorAlreadyExists
		}
		if len(cfg.Operators) >= s.policy.MaxOperators {
			return stderrors.ErrOperatorLimitReached
		}
		cfg.Operators = append(cfg.Operators, operator)
	} else {
		if !cfg.IsOperator(operator) {
			return stderrors.ErrOperatorNotFound
		}
		kept := cfg.Operators[:0]
		for _, op := range cfg.Operators {
			if op != operator {
				kept = append(kept, op)
			}
		}
		cfg.Operators = kept
	}
	return s.state.SetProtocolConfig(cfg)
}

// AddOrUpdateWhitelist admits token with the given minimum amount. Operator
// only. Native currency is whitelisted under crypto.NativeMint.
func (s *Store) AddOrUpdateWhitelist(signers crypto.SignerSet, token crypto.PublicKey, minAmount uint64) error {
	if _, err := s.requireOperator(signers); err != nil {
		return err
	}
	return s.state.WhitelistPut(&WhitelistEntry{Token: token, MinAmount: minAmount})
}

// RemoveWhitelist drops token from the whitelist. Operator only.
func (s *Store) RemoveWhitelist(signers crypto.SignerSet, token crypto.PublicKey) error {
	if _, err := s.requireOperator(signers); err != nil {
		return err
	}
	_, ok, err := s.state.WhitelistGet(token)
	if err != nil {
		return err
	}
	if !ok {
		return stderrors.ErrNotWhitelistedToken
	}
	return s.state.WhitelistDelete(token)
}

// CloseWaitArgs carries optional duration updates in seconds. Nil leaves the
// current value untouched.
type CloseWaitArgs struct {
	CloseTradeDuration   *uint64
	ClosePaymentDuration *uint64
}

// SetCloseWaitDuration updates the close windows. Operator only.
func (s *Store) SetCloseWaitDuration(signers crypto.SignerSet, args CloseWaitArgs) error {
	cfg, err := s.requireOperator(signers)
	if err != nil {
		return err
	}
	if args.CloseTradeDuration != nil {
		cfg.CloseTradeDuration = *args.CloseTradeDuration
	}
	if args.ClosePaymentDuration != nil {
		cfg.ClosePaymentDuration = *args.ClosePaymentDuration
	}
	return s.state.SetProtocolConfig(cfg)
}

// AddFeeReceiver registers receiver. Admin only.
func (s *Store) AddFeeReceiver(signers crypto.SignerSet, receiver crypto.PublicKey) error {
	if _, err := s.requireAdmin(signers); err != nil {
		return err
	}
	_, ok, err := s.state.FeeReceiverGet(receiver)
	if err != nil {
		return err
	}
	if ok {
		return stderrors.ErrFeeReceiverAlreadyExists
	}
	if s.policy.MaxFeeReceivers > 0 {
		existing, err := s.state.FeeReceivers()
		if err != nil {
			return err
		}
		if len(existing) >= s.policy.MaxFeeReceivers {
			return stderrors.ErrFeeReceiverLimitReached
		}
	}
	return s.state.FeeReceiverPut(&FeeReceiver{Receiver: receiver})
}

// RemoveFeeReceiver unregisters receiver. Admin only.
func (s *Store) RemoveFeeReceiver(signers crypto.SignerSet, receiver crypto.PublicKey) error {
	if _, err := s.requireAdmin(signers); err != nil {
		return err
	}
	_, ok, err := s.state.FeeReceiverGet(receiver)
	if err != nil {
		return err
	}
	if !ok {
		return stderrors.ErrInvalidFeeReceiver
	}
	return s.state.FeeReceiverDelete(receiver)
}
