package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory MappingStore. It backs tests and
// cacheless local development; semantics match the Postgres implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*Mapping
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Mapping)}
}

func (s *MemoryStore) Insert(ctx context.Context, code, originalURL string) (*Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[code]; exists {
		return nil, ErrCodeTaken
	}

	s.nextID++
	m := &Mapping{
		ID:          s.nextID,
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   time.Now().UTC(),
		Visits:      0,
		IsActive:    true,
	}
	s.data[code] = m
	return m.Clone(), nil
}

func (s *MemoryStore) FindActive(ctx context.Context, code string) (*Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[code]
	if !exists || !m.IsActive {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) IncrementVisits(ctx context.Context, code string) (*Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.data[code]
	if !exists || !m.IsActive {
		return nil, ErrNotFound
	}
	m.Visits++
	return m.Clone(), nil
}

func (s *MemoryStore) Deactivate(ctx context.Context, code string) (*Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.data[code]
	if !exists {
		return nil, ErrNotFound
	}
	m.IsActive = false
	return m.Clone(), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Mapping, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, *m.Clone())
	}
	return out, nil
}
