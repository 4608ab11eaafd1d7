//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigcerh/internal/academic/models"
	"sigcerh/internal/platform/postgres"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.pg.DB))
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(),
		"notes", "grade_period_links", "curriculum_templates", "areas", "students"))
}

func (s *PostgresStoreSuite) TestStudents() {
	ctx := context.Background()
	birth := time.Date(1980, 4, 12, 0, 0, 0, 0, time.UTC)
	st, err := models.NewStudent("41234567", false, "Ana", "Quispe", "Mamani", "M", &birth, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateStudent(ctx, st))
	s.ErrorIs(s.store.CreateStudent(ctx, st), sentinel.ErrConflict)

	byName, err := s.store.FindStudentByName(ctx, "ANA", "QUISPE", "MAMANI")
	s.Require().NoError(err)
	s.Equal(st.ID, byName.ID)
	s.Require().NotNil(byName.BirthDate)
	s.Equal(birth, byName.BirthDate.UTC())

	_, err = s.store.FindStudentByNationalID(ctx, "99999999")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTemplates() {
	ctx := context.Background()
	n, err := SeedHistoricalAreas(ctx, s.store, "IE-001")
	s.Require().NoError(err)
	s.Equal(12, n)

	areas, err := s.store.ListAreas(ctx, "IE-001", true)
	s.Require().NoError(err)
	s.Require().Len(areas, 12)

	ids := []id.AreaID{areas[3].ID, areas[0].ID}
	s.Require().NoError(s.store.SetTemplate(ctx, "IE-001", 1999, 5, ids))
	tmpl, err := s.store.TemplateAreas(ctx, "IE-001", 1999, 5)
	s.Require().NoError(err)
	s.Require().Len(tmpl, 2)
	s.Equal(areas[3].ID, tmpl[0].ID)

	found, err := s.store.FindAreas(ctx, ids)
	s.Require().NoError(err)
	s.Len(found, 2)

	none, err := s.store.TemplateAreas(ctx, "IE-001", 1999, 6)
	s.Require().NoError(err)
	s.Nil(none)

	s.ErrorIs(s.store.SetTemplate(ctx, "IE-001", 1999, 5, []id.AreaID{id.NewAreaID()}), sentinel.ErrNotFound)
}
