package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the bundle in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
	saves int
}

// NewMemoryStore returns a store seeded with creds, which may be nil.
func NewMemoryStore(creds *Credentials) *MemoryStore {
	return &MemoryStore{creds: creds.clone()}
}

func (s *MemoryStore) Load(ctx context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, &StorageError{Op: "load", Err: ErrNotFound}
	}
	return s.creds.clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		return &StorageError{Op: "save", Err: ErrInvalidInput}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds.clone()
	s.saves++
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn UpdateFunc) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.creds.clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		if s.creds == nil {
			return nil, &StorageError{Op: "update", Err: ErrNotFound}
		}
		return s.creds.clone(), nil
	}
	s.creds = next.clone()
	s.saves++
	return next.clone(), nil
}

// Saves returns how many times the bundle has been written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
