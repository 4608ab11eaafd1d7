package store

import (
	"context"
	"sync"

	"sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
)

// InMemory keeps records in process memory. Uniqueness on content hash and
// (number, year) matches the Postgres constraints.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemory) Create(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.records {
		if existing.ContentHash == r.ContentHash || (existing.Number == r.Number && existing.Year == r.Year) {
			return sentinel.ErrConflict
		}
	}
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) FindByContentHash(_ context.Context, hash string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ContentHash == hash {
			return r.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByNumberYear(_ context.Context, number string, year int) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Number == number && r.Year == year {
			return r.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// Snapshot lets a tx.MemoryRunner roll back a failed unit.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[id.RecordID]*models.Record, len(s.records))
	for k, v := range s.records {
		saved[k] = v
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.records = saved
	}
}
