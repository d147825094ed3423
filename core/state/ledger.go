package state

import (
	"errors"
	"fmt"

	"optimex/crypto"
)

var (
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrBalanceOverflow     = errors.New("state: balance overflow")
	ErrAccountInUse        = errors.New("state: account already in use")
	ErrAccountNotFound     = errors.New("state: account not found")
	ErrNotProgramOwned     = errors.New("state: account not owned by program")
	ErrProgramOwned        = errors.New("state: program owned account cannot authorize transfers")
)

// storedAccount marks a program-derived account. Its native balance, reserve
// included, lives in the regular balance table.
type storedAccount struct {
	Owner   crypto.PublicKey
	Reserve uint64
}

func balanceKey(owner crypto.PublicKey, mint *crypto.PublicKey) []byte {
	var asset crypto.PublicKey
	if mint != nil {
		asset = *mint
	}
	return hashKey(balancePrefix, owner[:], asset[:])
}

func accountKey(addr crypto.PublicKey) []byte {
	return hashKey(accountPrefix, addr[:])
}

// Balance returns the holdings of owner in mint. A nil mint selects native
// currency.
func (m *Manager) Balance(owner crypto.PublicKey, mint *crypto.PublicKey) (uint64, error) {
	var amount uint64
	if _, err := m.getRLP(balanceKey(owner, mint), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

func (m *Manager) setBalance(owner crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error {
	key := balanceKey(owner, mint)
	if amount == 0 {
		m.remove(key)
		return nil
	}
	return m.putRLP(key, amount)
}

// Credit mints amount into owner's balance. It is used for genesis
// allocations and tests.
func (m *Manager) Credit(owner crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error {
	current, err := m.Balance(owner, mint)
	if err != nil {
		return err
	}
	next := current + amount
	if next < current {
		return ErrBalanceOverflow
	}
	return m.setBalance(owner, mint, next)
}

func (m *Manager) move(from, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBal, err := m.Balance(from, mint)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientBalance, from, fromBal, amount)
	}
	if from == to {
		return nil
	}
	if err := m.setBalance(from, mint, fromBal-amount); err != nil {
		return err
	}
	return m.Credit(to, mint, amount)
}

func (m *Manager) account(addr crypto.PublicKey) (*storedAccount, bool, error) {
	acct := new(storedAccount)
	ok, err := m.getRLP(accountKey(addr), acct)
	if err != nil || !ok {
		return nil, false, err
	}
	return acct, true, nil
}

// Transfer moves funds between wallet accounts. Program-derived accounts can
// only be debited through TransferFromDerived.
func (m *Manager) Transfer(from, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error {
	_, owned, err := m.account(from)
	if err != nil {
		return err
	}
	if owned {
		return ErrProgramOwned
	}
	return m.move(from, to, mint, amount)
}

// AccountExists reports whether a program-derived account lives at addr.
func (m *Manager) AccountExists(addr crypto.PublicKey) (bool, error) {
	_, ok, err := m.account(addr)
	return ok, err
}

// CreateDerived opens the account described by d, charging the storage
// reservation to payer.
func (m *Manager) CreateDerived(payer crypto.PublicKey, d crypto.Derivation) (crypto.PublicKey, error) {
	addr := d.Address()
	exists, err := m.AccountExists(addr)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	if exists {
		return crypto.PublicKey{}, fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	if err := m.Transfer(payer, addr, nil, m.reserve); err != nil {
		return crypto.PublicKey{}, err
	}
	if err := m.putRLP(accountKey(addr), &storedAccount{Owner: d.Program, Reserve: m.reserve}); err != nil {
		return crypto.PublicKey{}, err
	}
	return addr, nil
}

func (m *Manager) ownedAccount(d crypto.Derivation) (crypto.PublicKey, error) {
	addr := d.Address()
	acct, ok, err := m.account(addr)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	if !ok {
		return crypto.PublicKey{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	if acct.Owner != d.Program {
		return crypto.PublicKey{}, ErrNotProgramOwned
	}
	return addr, nil
}

// TransferFromDerived debits the account described by d. The derivation is
// the ownership proof.
func (m *Manager) TransferFromDerived(d crypto.Derivation, to crypto.PublicKey, mint *crypto.PublicKey, amount uint64) error {
	addr, err := m.ownedAccount(d)
	if err != nil {
		return err
	}
	return m.move(addr, to, mint, amount)
}

// CloseDerived sweeps the native balance of the account, reservation
// included, to recipient and deletes it. Token balances must be emptied by
// the caller first.
func (m *Manager) CloseDerived(d crypto.Derivation, recipient crypto.PublicKey) error {
	addr, err := m.ownedAccount(d)
	if err != nil {
		return err
	}
	lamports, err := m.Balance(addr, nil)
	if err != nil {
		return err
	}
	if err := m.move(addr, recipient, nil, lamports); err != nil {
		return err
	}
	m.remove(accountKey(addr))
	return nil
}

// GenesisApplied reports whether the genesis allocation already ran.
func (m *Manager) GenesisApplied() (bool, error) {
	var applied bool
	ok, err := m.KVGet(genesisKey, &applied)
	return ok && applied, err
}

// MarkGenesisApplied records that the genesis allocation ran.
func (m *Manager) MarkGenesisApplied() error {
	return m.KVPut(genesisKey, true)
}
