package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigcerh/internal/academic/models"
	"sigcerh/internal/academic/store"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/tx"
)

// mapCache is a CurriculumCache over a map that can be told to fail.
type mapCache struct {
	entries     map[string]*models.Curriculum
	fail        bool
	sets        int
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*models.Curriculum)}
}

func cacheKey(institution string, year, grade int) string {
	return fmt.Sprintf("%s/%d/%d", institution, year, grade)
}

func (c *mapCache) Get(_ context.Context, institution string, year, grade int) (*models.Curriculum, bool, error) {
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	cur, ok := c.entries[cacheKey(institution, year, grade)]
	return cur, ok, nil
}

func (c *mapCache) Set(_ context.Context, cur *models.Curriculum) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.sets++
	c.entries[cacheKey(cur.Institution, cur.Year, cur.Grade)] = cur
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, _ string) error {
	c.invalidated++
	c.entries = make(map[string]*models.Curriculum)
	return nil
}

type CatalogSuite struct {
	suite.Suite
	store   *store.InMemory
	cache   *mapCache
	service *Service
	ctx     context.Context
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.cache = newMapCache()
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.store, tx.NewMemoryRunner(s.store),
		WithLogger(logger), WithInstitution("IE-001"), WithCurriculumCache(s.cache))
	s.Require().NoError(err)
}

func (s *CatalogSuite) area(code, name string, pos int) *models.Area {
	a, err := s.service.CreateArea(s.ctx, CreateAreaCommand{Code: code, Name: name, Position: pos})
	s.Require().NoError(err)
	return a
}

func (s *CatalogSuite) TestCreateArea() {
	a := s.area("mat", "Matemática", 1)
	s.Equal("MAT", a.Code)
	s.Equal("IE-001", a.Institution)

	_, err := s.service.CreateArea(s.ctx, CreateAreaCommand{Code: "MAT", Name: "Otra", Position: 2})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.CreateArea(s.ctx, CreateAreaCommand{Code: "", Name: "Sin código", Position: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *CatalogSuite) TestTemplateFallsBackToActiveCatalog() {
	s.area("COM", "Comunicación", 2)
	s.area("MAT", "Matemática", 1)

	cur, err := s.service.Template(s.ctx, 1990, 1)
	s.Require().NoError(err)
	s.True(cur.Fallback)
	s.Require().Len(cur.Areas, 2)
	s.Equal("MAT", cur.Areas[0].Code)
}

func (s *CatalogSuite) TestSetTemplate() {
	mat := s.area("MAT", "Matemática", 1)
	com := s.area("COM", "Comunicación", 2)
	s.area("ART", "Arte", 3)

	cur, err := s.service.SetTemplate(s.ctx, 1990, 2, []id.AreaID{com.ID, mat.ID})
	s.Require().NoError(err)
	s.False(cur.Fallback)
	s.Require().Len(cur.Areas, 2)
	s.Equal(com.ID, cur.Areas[0].ID)

	s.Run("duplicate areas are rejected", func() {
		_, err := s.service.SetTemplate(s.ctx, 1990, 2, []id.AreaID{mat.ID, mat.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown areas are not found", func() {
		_, err := s.service.SetTemplate(s.ctx, 1990, 2, []id.AreaID{id.NewAreaID()})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty templates are rejected", func() {
		_, err := s.service.SetTemplate(s.ctx, 1990, 2, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *CatalogSuite) TestInactiveAreasCannotJoinTemplates() {
	a, err := models.NewArea("IE-001", "LAT", "Latín", 9)
	s.Require().NoError(err)
	a.Active = false
	s.Require().NoError(s.store.CreateArea(s.ctx, a))

	_, err = s.service.SetTemplate(s.ctx, 1990, 2, []id.AreaID{a.ID})
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *CatalogSuite) TestCacheIsReadThroughAndInvalidated() {
	mat := s.area("MAT", "Matemática", 1)

	_, err := s.service.Template(s.ctx, 1991, 4)
	s.Require().NoError(err)
	s.Equal(1, s.cache.sets)

	_, err = s.service.Template(s.ctx, 1991, 4)
	s.Require().NoError(err)
	s.Equal(1, s.cache.sets, "second read is served by the cache")

	before := s.cache.invalidated
	_, err = s.service.SetTemplate(s.ctx, 1991, 4, []id.AreaID{mat.ID})
	s.Require().NoError(err)
	s.Greater(s.cache.invalidated, before)

	cur, err := s.service.Template(s.ctx, 1991, 4)
	s.Require().NoError(err)
	s.False(cur.Fallback, "a new template is visible after invalidation")
}

func (s *CatalogSuite) TestCacheFailuresFallThroughToStore() {
	s.area("MAT", "Matemática", 1)
	s.cache.fail = true

	cur, err := s.service.Template(s.ctx, 1992, 1)
	s.Require().NoError(err)
	s.Len(cur.Areas, 1)
}

func (s *CatalogSuite) TestStudents() {
	st, err := models.NewStudent("40001111", false, "Rosa", "Huaman", "Poma", "M", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateStudent(s.ctx, st))

	got, err := s.service.FindStudentByNationalID(s.ctx, " 40001111 ")
	s.Require().NoError(err)
	s.Equal(st.ID, got.ID)
	s.Equal("HUAMAN POMA ROSA", got.FullName())

	_, err = s.service.GetStudent(s.ctx, id.NewStudentID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.FindStudentByNationalID(s.ctx, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
