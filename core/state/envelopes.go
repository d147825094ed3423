package state

// consumedEnvelope marks a signed request that already executed.
type consumedEnvelope struct {
	ExpiresAt uint64
}

func envelopeKey(digest [32]byte) []byte {
	key := make([]byte, 0, len(envelopePrefix)+len(digest))
	key = append(key, envelopePrefix...)
	return append(key, digest[:]...)
}

// EnvelopeConsumed reports whether the signed request with digest already
// executed.
func (m *Manager) EnvelopeConsumed(digest [32]byte) (bool, error) {
	var rec consumedEnvelope
	return m.KVGet(envelopeKey(digest), &rec)
}

// ConsumeEnvelope records digest as executed. The record is written to the
// overlay, so it commits or discards together with the operation it guards.
// TODO: prune records whose ExpiresAt has passed; they can no longer be
// replayed because the envelope window rejects them first.
func (m *Manager) ConsumeEnvelope(digest [32]byte, expiresAt int64) error {
	if expiresAt < 0 {
		expiresAt = 0
	}
	return m.KVPut(envelopeKey(digest), consumedEnvelope{ExpiresAt: uint64(expiresAt)})
}
