package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	acmodels "sigcerh/internal/academic/models"
	"sigcerh/internal/ingestion/metrics"
	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/reconcile"
	recmodels "sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
)

// Store persists the links and notes derived from a record.
type Store interface {
	CreateLink(ctx context.Context, l *models.Link) error
	FindLink(ctx context.Context, recordID id.RecordID, studentID id.StudentID) (*models.Link, error)
	DeleteLink(ctx context.Context, linkID id.LinkID) error
	PurgeRecord(ctx context.Context, recordID id.RecordID) (int, error)
	CreateNotes(ctx context.Context, notes []models.Note) error
	ListLinksByRecord(ctx context.Context, recordID id.RecordID) ([]models.Link, error)
	ListLinksByStudent(ctx context.Context, studentID id.StudentID) ([]models.Link, error)
	NotesByLinks(ctx context.Context, linkIDs []id.LinkID) (map[id.LinkID][]models.Note, error)
}

// Students is the slice of the academic store ingestion writes through. It
// must take part in the same unit of work as Store.
type Students interface {
	CreateStudent(ctx context.Context, st *acmodels.Student) error
	FindStudentByID(ctx context.Context, studentID id.StudentID) (*acmodels.Student, error)
	FindStudentByNationalID(ctx context.Context, nationalID string) (*acmodels.Student, error)
	FindStudentByName(ctx context.Context, first, paternal, maternal string) (*acmodels.Student, error)
}

// Records reads physical records and flags them normalized. Both writes must
// join the caller's unit of work.
type Records interface {
	Get(ctx context.Context, recordID id.RecordID) (*recmodels.Record, error)
	MarkNormalized(ctx context.Context, recordID id.RecordID) error
	ClearNormalized(ctx context.Context, recordID id.RecordID) error
}

// Curriculum resolves the ordered areas of a year and grade.
type Curriculum interface {
	Template(ctx context.Context, year, grade int) (*acmodels.Curriculum, error)
	Areas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]acmodels.Area, error)
}

// Config is the per deployment ingestion policy.
type Config struct {
	DuplicatePolicy     models.DuplicatePolicy
	Mode                models.Mode
	AllowTemporaryIDs   bool
	StrictAreas         bool
	SimilarityThreshold int
	BatchTimeout        time.Duration
	Concurrency         int
	// LockWait bounds how long a run waits for another run of the same
	// record before giving up with a conflict.
	LockWait            time.Duration
}

func DefaultConfig() Config {
	return Config{
		DuplicatePolicy:     models.DuplicateSkip,
		Mode:                models.ModeBestEffort,
		AllowTemporaryIDs:   true,
		SimilarityThreshold: reconcile.DefaultThreshold,
		Concurrency:         4,
	}
}

// Service is the ingestion pipeline: it turns the OCR output attached to a
// record into students, links and notes, and reads them back for
// certificate drafting.
type Service struct {
	store      Store
	students   Students
	records    Records
	curriculum Curriculum
	tx         tx.Runner
	cfg        Config
	engine     *reconcile.Engine
	matcher    *reconcile.Matcher
	locker     Locker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker replaces the in-process per record lock, typically with the
// Redis locker when several replicas normalize.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock sets the clock the batch timeout is measured against.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, students Students, records Records, curriculum Curriculum, runner tx.Runner, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ingestion store is required")
	}
	if students == nil {
		return nil, errors.New("student store is required")
	}
	if records == nil {
		return nil, errors.New("record service is required")
	}
	if curriculum == nil {
		return nil, errors.New("curriculum provider is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = models.DuplicateSkip
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModeBestEffort
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	svc := &Service{
		store:      store,
		students:   students,
		records:    records,
		curriculum: curriculum,
		tx:         runner,
		cfg:        cfg,
		engine: reconcile.NewEngine(reconcile.Options{
			AllowTemporaryIDs: cfg.AllowTemporaryIDs,
			StrictAreas:       cfg.StrictAreas,
			Threshold:         cfg.SimilarityThreshold,
		}),
		matcher: reconcile.NewMatcher(studentLookup{students}, cfg.AllowTemporaryIDs),
		locker:  NewKeyedMutex(cfg.LockWait),
		logger:  slog.Default(),
		tracer:  otel.Tracer("sigcerh/internal/ingestion/service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// studentLookup adapts the academic store to the reconciliation port.
type studentLookup struct {
	students Students
}

func (l studentLookup) FindByNationalID(ctx context.Context, nationalID string) (id.StudentID, bool, error) {
	return found(l.students.FindStudentByNationalID(ctx, nationalID))
}

func (l studentLookup) FindByName(ctx context.Context, first, paternal, maternal string) (id.StudentID, bool, error) {
	return found(l.students.FindStudentByName(ctx, first, paternal, maternal))
}

func found(st *acmodels.Student, err error) (id.StudentID, bool, error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.StudentID{}, false, nil
	}
	if err != nil {
		return id.StudentID{}, false, err
	}
	return st.ID, true, nil
}

func translate(err error, msg string) error {
	var dErr *dErrors.Error
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
