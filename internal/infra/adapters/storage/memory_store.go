package storage

import (
	"context"
	"sync"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.ProofStore = (*MemoryProofStore)(nil)

// MemoryProofStore keeps proofs in process. For dev and tests only.
type MemoryProofStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryProofStore() *MemoryProofStore {
	return &MemoryProofStore{items: make(map[string][]byte)}
}

func (m *MemoryProofStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if key == "" || len(data) == 0 {
		return "", domain.ErrInvalidArgument
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.items[key] = cp
	m.mu.Unlock()
	return "mem://" + key, nil
}

func (m *MemoryProofStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.items[key]
	return b, ok
}
