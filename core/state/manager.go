package state

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"optimex/storage"
)

// DefaultRecordReserve is the native amount locked in every program-derived
// account while it exists.
const DefaultRecordReserve uint64 = 890_880

type pendingWrite struct {
	value   []byte
	deleted bool
}

// Manager reads and writes settlement state. Writes accumulate in an overlay
// until Commit flushes them as one batch or Discard drops them, so a failed
// operation leaves no trace in the database.
type Manager struct {
	db      storage.Database
	pending map[string]pendingWrite
	reserve uint64
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		pending: make(map[string]pendingWrite),
		reserve: DefaultRecordReserve,
	}
}

// SetRecordReserve overrides the per-account storage reservation.
func (m *Manager) SetRecordReserve(amount uint64) { m.reserve = amount }

// MinimumReserve returns the reservation a program-derived account must keep.
func (m *Manager) MinimumReserve() uint64 { return m.reserve }

func hashKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) read(key []byte) ([]byte, bool, error) {
	if w, ok := m.pending[string(key)]; ok {
		if w.deleted {
			return nil, false, nil
		}
		return w.value, true, nil
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) write(key, value []byte) {
	m.pending[string(key)] = pendingWrite{value: append([]byte(nil), value...)}
}

func (m *Manager) remove(key []byte) {
	m.pending[string(key)] = pendingWrite{deleted: true}
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.write(key, encoded)
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, ok, err := m.read(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.putRLP(hashKey(kvPrefix, key), value)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	return m.getRLP(hashKey(kvPrefix, key), out)
}

// PendingWrites returns the number of keys touched since the last Commit or
// Discard.
func (m *Manager) PendingWrites() int { return len(m.pending) }

// Commit writes the overlay to the database atomically.
func (m *Manager) Commit() error {
	if len(m.pending) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.pending))
	for k := range m.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := new(storage.Batch)
	for _, k := range keys {
		w := m.pending[k]
		if w.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), w.value)
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.pending = make(map[string]pendingWrite)
	return nil
}

// Discard drops every uncommitted write.
func (m *Manager) Discard() {
	m.pending = make(map[string]pendingWrite)
}
