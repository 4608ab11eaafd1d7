package store

import (
	"context"
	"slices"
	"sync"

	"sigcerh/internal/ingestion/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
)

// InMemory holds links and notes in process memory. Deleting a link drops
// its notes, as the foreign key cascade does in Postgres.
type InMemory struct {
	mu    sync.RWMutex
	links map[id.LinkID]*models.Link
	notes map[id.LinkID][]models.Note
}

func NewInMemory() *InMemory {
	return &InMemory{
		links: make(map[id.LinkID]*models.Link),
		notes: make(map[id.LinkID][]models.Note),
	}
}

func (s *InMemory) CreateLink(_ context.Context, l *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[l.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *l
	s.links[l.ID] = &c
	return nil
}

func (s *InMemory) FindLink(_ context.Context, recordID id.RecordID, studentID id.StudentID) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.links {
		if l.RecordID == recordID && l.StudentID == studentID {
			c := *l
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) DeleteLink(_ context.Context, linkID id.LinkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[linkID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.links, linkID)
	delete(s.notes, linkID)
	return nil
}

func (s *InMemory) PurgeRecord(_ context.Context, recordID id.RecordID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for linkID, l := range s.links {
		if l.RecordID != recordID {
			continue
		}
		delete(s.links, linkID)
		delete(s.notes, linkID)
		n++
	}
	return n, nil
}

func (s *InMemory) CreateNotes(_ context.Context, notes []models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notes {
		if _, ok := s.links[n.LinkID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	for _, n := range notes {
		s.notes[n.LinkID] = append(s.notes[n.LinkID], n)
	}
	return nil
}

func (s *InMemory) ListLinksByRecord(_ context.Context, recordID id.RecordID) ([]models.Link, error) {
	return s.list(func(l *models.Link) bool { return l.RecordID == recordID }), nil
}

func (s *InMemory) ListLinksByStudent(_ context.Context, studentID id.StudentID) ([]models.Link, error) {
	return s.list(func(l *models.Link) bool { return l.StudentID == studentID }), nil
}

func (s *InMemory) list(keep func(*models.Link) bool) []models.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Link
	for _, l := range s.links {
		if keep(l) {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b models.Link) int {
		if a.Ordinal != b.Ordinal {
			return a.Ordinal - b.Ordinal
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func (s *InMemory) NotesByLinks(_ context.Context, linkIDs []id.LinkID) (map[id.LinkID][]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.LinkID][]models.Note, len(linkIDs))
	for _, linkID := range linkIDs {
		if notes, ok := s.notes[linkID]; ok {
			out[linkID] = slices.Clone(notes)
		}
	}
	return out, nil
}

// Snapshot lets a tx.MemoryRunner roll back a failed unit.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	links := make(map[id.LinkID]*models.Link, len(s.links))
	for k, v := range s.links {
		links[k] = v
	}
	notes := make(map[id.LinkID][]models.Note, len(s.notes))
	for k, v := range s.notes {
		notes[k] = slices.Clone(v)
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.links = links
		s.notes = notes
	}
}
