package library

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryPersister keeps the snapshot as encoded JSON in memory, so loads see
// exactly what a file or database backend would return.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	Saves int
	// Err, when set, is returned from every Save.
	Err error
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister { return &MemoryPersister{} }

// Load implements Persister.
func (m *MemoryPersister) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoSnapshot
	}
	var snap Snapshot
	if err := json.Unmarshal(m.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save implements Persister.
func (m *MemoryPersister) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.data = data
	m.Saves++
	return nil
}
