// Package service owns the academic catalog: curricular areas, the
// year/grade curriculum templates built from them, and student lookups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sigcerh/internal/academic/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
)

// Store is implemented by the memory and Postgres catalog stores.
type Store interface {
	CreateStudent(ctx context.Context, st *models.Student) error
	FindStudentByID(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	FindStudentByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
	FindStudentByName(ctx context.Context, first, paternal, maternal string) (*models.Student, error)
	CreateArea(ctx context.Context, a *models.Area) error
	ListAreas(ctx context.Context, institution string, activeOnly bool) ([]models.Area, error)
	FindAreas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]models.Area, error)
	SetTemplate(ctx context.Context, institution string, year, grade int, areaIDs []id.AreaID) error
	TemplateAreas(ctx context.Context, institution string, year, grade int) ([]models.Area, error)
}

// CurriculumCache is an optional read-through cache of resolved curricula.
// Invalidate drops every cached curriculum of an institution.
type CurriculumCache interface {
	Get(ctx context.Context, institution string, year, grade int) (*models.Curriculum, bool, error)
	Set(ctx context.Context, c *models.Curriculum) error
	Invalidate(ctx context.Context, institution string) error
}

type Service struct {
	store       Store
	tx          tx.Runner
	cache       CurriculumCache
	institution string
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithInstitution(institution string) Option {
	return func(s *Service) {
		s.institution = institution
	}
}

func WithCurriculumCache(c CurriculumCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(store Store, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("academic store is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	s := &Service{store: store, tx: runner, institution: "default", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type CreateAreaCommand struct {
	Code     string
	Name     string
	Position int
}

func (s *Service) CreateArea(ctx context.Context, cmd CreateAreaCommand) (*models.Area, error) {
	area, err := models.NewArea(s.institution, cmd.Code, cmd.Name, cmd.Position)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateArea(ctx, area); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "area %s already exists", area.Code)
		}
		return nil, translate(err, "failed to create area")
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "area created", "area_id", area.ID, "code", area.Code)
	return area, nil
}

func (s *Service) ListAreas(ctx context.Context, activeOnly bool) ([]models.Area, error) {
	areas, err := s.store.ListAreas(ctx, s.institution, activeOnly)
	if err != nil {
		return nil, translate(err, "failed to list areas")
	}
	return areas, nil
}

// SetTemplate replaces the curriculum of (year, grade) with areaIDs in order.
// Every area must exist and be active.
func (s *Service) SetTemplate(ctx context.Context, year, grade int, areaIDs []id.AreaID) (*models.Curriculum, error) {
	if grade < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "grade must be positive")
	}
	if len(areaIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a template needs at least one area")
	}
	seen := make(map[id.AreaID]bool, len(areaIDs))
	for _, areaID := range areaIDs {
		if seen[areaID] {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "area %s listed twice", areaID)
		}
		seen[areaID] = true
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		found, err := s.store.FindAreas(ctx, areaIDs)
		if err != nil {
			return err
		}
		for _, areaID := range areaIDs {
			a, ok := found[areaID]
			if !ok || a.Institution != s.institution {
				return dErrors.Newf(dErrors.CodeNotFound, "area %s not found", areaID)
			}
			if !a.Active {
				return dErrors.Newf(dErrors.CodePreconditionFailed, "area %s is not active", a.Code)
			}
		}
		return s.store.SetTemplate(ctx, s.institution, year, grade, areaIDs)
	})
	if err != nil {
		return nil, translate(err, "failed to set template")
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "curriculum template set", "year", year, "grade", grade, "areas", len(areaIDs))
	return s.Template(ctx, year, grade)
}

// Template resolves the curriculum of (year, grade), falling back to the
// institution's active areas when no template was configured.
func (s *Service) Template(ctx context.Context, year, grade int) (*models.Curriculum, error) {
	if s.cache != nil {
		c, ok, err := s.cache.Get(ctx, s.institution, year, grade)
		if err != nil {
			s.logger.WarnContext(ctx, "curriculum cache read failed", "year", year, "grade", grade, "error", err)
		} else if ok {
			return c, nil
		}
	}

	areas, err := s.store.TemplateAreas(ctx, s.institution, year, grade)
	if err != nil {
		return nil, translate(err, "failed to load template")
	}
	c := &models.Curriculum{Institution: s.institution, Year: year, Grade: grade, Areas: areas}
	if len(areas) == 0 {
		c.Fallback = true
		c.Areas, err = s.store.ListAreas(ctx, s.institution, true)
		if err != nil {
			return nil, translate(err, "failed to list areas")
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, c); err != nil {
			s.logger.WarnContext(ctx, "curriculum cache write failed", "year", year, "grade", grade, "error", err)
		}
	}
	return c, nil
}

// Areas returns the named areas keyed by id. Unknown ids are absent.
func (s *Service) Areas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]models.Area, error) {
	areas, err := s.store.FindAreas(ctx, ids)
	if err != nil {
		return nil, translate(err, "failed to load areas")
	}
	return areas, nil
}

func (s *Service) GetStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	st, err := s.store.FindStudentByID(ctx, studentID)
	if err != nil {
		return nil, translate(err, "failed to load student")
	}
	return st, nil
}

func (s *Service) FindStudentByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "national id is required")
	}
	st, err := s.store.FindStudentByNationalID(ctx, nationalID)
	if err != nil {
		return nil, translate(err, "failed to load student")
	}
	return st, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, s.institution); err != nil {
		s.logger.WarnContext(ctx, "curriculum cache invalidation failed", "institution", s.institution, "error", err)
	}
}

func translate(err error, msg string) error {
	var dErr *dErrors.Error
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
