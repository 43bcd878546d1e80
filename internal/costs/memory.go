package costs

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and credential-less runs.
// It satisfies the same full-overwrite contract as the sheet store.
type MemoryStore struct {
	mu      sync.Mutex
	mapping Mapping
	// FailSave forces Save to return an error, for exercising the
	// all-or-nothing save path in tests.
	FailSave error
	// FailLoad forces Load to return an error.
	FailLoad error
}

// NewMemoryStore creates a memory store seeded with the given mapping.
func NewMemoryStore(seed Mapping) *MemoryStore {
	if seed == nil {
		seed = Mapping{}
	}
	return &MemoryStore{mapping: seed.Clone()}
}

// Load returns a copy of the stored mapping.
func (s *MemoryStore) Load(ctx context.Context) (Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad != nil {
		return nil, s.FailLoad
	}
	return s.mapping.Clone(), nil
}

// Save replaces the stored mapping.
func (s *MemoryStore) Save(ctx context.Context, m Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.mapping = m.Clone()
	return nil
}
