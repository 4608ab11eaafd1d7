package audit

import (
	"context"
	"maps"
	"sync"

	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
)

// InMemoryStore keeps the ledger in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	entries map[id.RequestID][]Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.RequestID][]Entry)}
}

// Append assigns the next sequence number. It refuses writes outside a unit of work.
func (s *InMemoryStore) Append(ctx context.Context, e *Entry) error {
	if !tx.InUnit(ctx) {
		return sentinel.ErrOutsideUnit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.Seq = s.seq
	stored := *e
	stored.Metadata = maps.Clone(e.Metadata)
	s.entries[e.RequestID] = append(s.entries[e.RequestID], stored)
	return nil
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID id.RequestID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries[requestID]))
	copy(out, s.entries[requestID])
	return out, nil
}

// Snapshot lets a tx.MemoryRunner discard entries of a failed unit.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	seq := s.seq
	saved := make(map[id.RequestID][]Entry, len(s.entries))
	for k, v := range s.entries {
		saved[k] = v[:len(v):len(v)]
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.seq = seq
		s.entries = saved
	}
}
