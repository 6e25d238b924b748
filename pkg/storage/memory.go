package storage

import (
	"context"
	"sync"

	"form-intake/pkg/models"
)

// Memory is an in-process Store. It backs tests and local runs without a
// database; the map is the whole store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.UserRecord
	puts    int

	// PutErr and CountErr, when set, are returned instead of touching the map.
	PutErr   error
	CountErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.UserRecord)}
}

func (m *Memory) Put(_ context.Context, rec models.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return int64(len(m.records)), nil
}

func (m *Memory) Close() error {
	return nil
}

// Get returns the stored record for id.
func (m *Memory) Get(id string) (models.UserRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// Puts reports how many writes were attempted, failed ones included.
func (m *Memory) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
