package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
)

// InMemory stores requests in process memory with version checks matching
// the Postgres store.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.RequestID]*models.Request
	byCode map[string]id.RequestID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.RequestID]*models.Request),
		byCode: make(map[string]id.RequestID),
	}
}

func (s *InMemory) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[r.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byCode[r.TrackingCode]; exists {
		return sentinel.ErrConflict
	}
	s.byID[r.ID] = r.Clone()
	s.byCode[r.TrackingCode] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) FindByTrackingCode(_ context.Context, code string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[reqID].Clone(), nil
}

// Update writes r when the stored version equals expectedVersion, then bumps
// r.Version. A mismatch returns sentinel.ErrConflict and writes nothing.
func (s *InMemory) Update(_ context.Context, r *models.Request, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	r.Version = expectedVersion + 1
	s.byID[r.ID] = r.Clone()
	return nil
}

// ListByState returns up to limit requests in state, oldest first.
func (s *InMemory) ListByState(_ context.Context, state models.State, limit int) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.byID {
		if r.State == state {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByEditor returns up to limit requests assigned to editorID in any of
// states, oldest first.
func (s *InMemory) ListByEditor(_ context.Context, editorID id.ActorID, states []models.State, limit int) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.byID {
		if r.EditorID == editorID && slices.Contains(states, r.State) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshot lets a tx.MemoryRunner roll back a failed unit.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	byID := make(map[id.RequestID]*models.Request, len(s.byID))
	for k, v := range s.byID {
		byID[k] = v
	}
	byCode := make(map[string]id.RequestID, len(s.byCode))
	for k, v := range s.byCode {
		byCode[k] = v
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID = byID
		s.byCode = byCode
	}
}
