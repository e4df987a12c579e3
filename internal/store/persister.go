package store

import (
	"context"
	"sync"
)

// Persister saves and loads the store snapshot as an opaque blob. The
// store does not care about the storage format beyond load-on-start and
// save-on-every-mutation semantics.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryPersister keeps the snapshot in process memory. Used when no
// redis URL is configured and in tests.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryPersister constructs an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryPersister) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	return nil
}

var _ Persister = (*MemoryPersister)(nil)
