package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"sigcerh/internal/academic/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
)

type templateKey struct {
	institution string
	year        int
	grade       int
}

// InMemory holds students, areas and curriculum templates in process memory.
type InMemory struct {
	mu        sync.RWMutex
	students  map[id.StudentID]*models.Student
	areas     map[id.AreaID]*models.Area
	templates map[templateKey][]id.AreaID
}

func NewInMemory() *InMemory {
	return &InMemory{
		students:  make(map[id.StudentID]*models.Student),
		areas:     make(map[id.AreaID]*models.Area),
		templates: make(map[templateKey][]id.AreaID),
	}
}

func (s *InMemory) CreateStudent(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.students {
		if existing.NationalID == st.NationalID {
			return sentinel.ErrConflict
		}
	}
	c := *st
	s.students[st.ID] = &c
	return nil
}

func (s *InMemory) FindStudentByID(_ context.Context, studentID id.StudentID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *st
	return &c, nil
}

func (s *InMemory) FindStudentByNationalID(_ context.Context, nationalID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.NationalID == nationalID {
			c := *st
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindStudentByName returns the oldest student with exactly these names.
func (s *InMemory) FindStudentByName(_ context.Context, first, paternal, maternal string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Student
	for _, st := range s.students {
		if st.FirstNames != first || st.PaternalSurname != paternal || st.MaternalSurname != maternal {
			continue
		}
		if found == nil || st.CreatedAt.Before(found.CreatedAt) {
			found = st
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *found
	return &c, nil
}

func (s *InMemory) CreateArea(_ context.Context, a *models.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.areas {
		if existing.ID == a.ID || (existing.Institution == a.Institution && existing.Code == a.Code) {
			return sentinel.ErrConflict
		}
	}
	c := *a
	s.areas[a.ID] = &c
	return nil
}

// ListAreas returns every area of an institution in position order.
func (s *InMemory) ListAreas(_ context.Context, institution string, activeOnly bool) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Area, 0)
	for _, a := range s.areas {
		if a.Institution == institution && (a.Active || !activeOnly) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *InMemory) FindAreas(_ context.Context, ids []id.AreaID) (map[id.AreaID]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.AreaID]models.Area, len(ids))
	for _, areaID := range ids {
		if a, ok := s.areas[areaID]; ok {
			out[areaID] = *a
		}
	}
	return out, nil
}

// SetTemplate replaces the curriculum of (institution, year, grade). Areas are
// kept in the given order.
func (s *InMemory) SetTemplate(_ context.Context, institution string, year, grade int, areaIDs []id.AreaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, areaID := range areaIDs {
		if _, ok := s.areas[areaID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	s.templates[templateKey{institution, year, grade}] = slices.Clone(areaIDs)
	return nil
}

// TemplateAreas returns the template areas in template order, or nil when no
// template exists.
func (s *InMemory) TemplateAreas(_ context.Context, institution string, year, grade int) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.templates[templateKey{institution, year, grade}]
	if !ok {
		return nil, nil
	}
	out := make([]models.Area, 0, len(ids))
	for _, areaID := range ids {
		out = append(out, *s.areas[areaID])
	}
	return out, nil
}

// Snapshot lets a tx.MemoryRunner roll back a failed unit.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	students := make(map[id.StudentID]*models.Student, len(s.students))
	for k, v := range s.students {
		students[k] = v
	}
	areas := make(map[id.AreaID]*models.Area, len(s.areas))
	for k, v := range s.areas {
		areas[k] = v
	}
	templates := make(map[templateKey][]id.AreaID, len(s.templates))
	for k, v := range s.templates {
		templates[k] = v
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.students = students
		s.areas = areas
		s.templates = templates
	}
}
