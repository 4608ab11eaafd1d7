package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sigcerh/internal/audit"
	"sigcerh/internal/request/metrics"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
	"sigcerh/pkg/requestcontext"
)

const (
	defaultMaxRetries = 3
	trackingCodeTries = 3
)

// Service is the lifecycle orchestrator. Every state change goes through
// Transition, which validates against the transition table, persists the new
// state with its milestone and appends one audit entry in a single unit of
// work. Side effects are queued only after that unit commits.
type Service struct {
	store        Store
	audit        AuditStore
	tx           tx.Runner
	payments     PaymentDirectory
	certificates CertificateDirectory
	effects      EffectSink
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	maxRetries   int
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

func WithPaymentDirectory(d PaymentDirectory) Option {
	return func(s *Service) {
		s.payments = d
	}
}

func WithCertificateDirectory(d CertificateDirectory) Option {
	return func(s *Service) {
		s.certificates = d
	}
}

// WithEffects sets where post-commit side effects are queued. Without it they are discarded.
func WithEffects(sink EffectSink) Option {
	return func(s *Service) {
		s.effects = sink
	}
}

// WithMaxRetries bounds re-evaluation after a version conflict.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, auditStore AuditStore, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("request store is required")
	}
	if auditStore == nil {
		return nil, errors.New("audit store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	svc := &Service{
		store:      store,
		audit:      auditStore,
		tx:         runner,
		logger:     slog.Default(),
		tracer:     otel.Tracer("sigcerh/internal/request/service"),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type SubmitCommand struct {
	Applicant models.Applicant
	Priority  models.Priority
	StudentID *id.StudentID
	ActorID   id.ActorID
	ActorRole models.Role
}

// Submit registers a new request with its creation audit entry.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*models.Request, error) {
	if cmd.ActorID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	if cmd.Priority == "" {
		cmd.Priority = models.PriorityNormal
	}
	now := requestcontext.Now(ctx)

	var req *models.Request
	for try := 1; ; try++ {
		code, err := models.NewTrackingCode(now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate tracking code")
		}
		req, err = models.NewRequest(id.NewRequestID(), code, cmd.Applicant, cmd.Priority, cmd.ActorID, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request")
		}
		if cmd.StudentID != nil {
			req.LinkStudent(*cmd.StudentID, now)
		}

		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.store.Create(ctx, req); err != nil {
				return err
			}
			entry := audit.NewEntry(req.ID, "", req.State, cmd.ActorID, cmd.ActorRole, "request submitted", nil, now)
			if err := s.audit.Append(ctx, entry); err != nil {
				return fmt.Errorf("append audit entry: %w", err)
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && try < trackingCodeTries {
			continue
		}
		return nil, translate(err, "failed to submit request")
	}

	s.logger.InfoContext(ctx, "request submitted",
		"request_id", req.ID,
		"tracking_code", req.TrackingCode,
		"priority", req.Priority,
		"actor_id", cmd.ActorID,
	)
	return req, nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, translate(err, "failed to load request")
	}
	return req, nil
}

// GetByTrackingCode returns the request a citizen is tracking.
func (s *Service) GetByTrackingCode(ctx context.Context, code string) (*models.Request, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tracking code is required")
	}
	req, err := s.store.FindByTrackingCode(ctx, code)
	if err != nil {
		return nil, translate(err, "failed to load request")
	}
	return req, nil
}

// ListByState returns the work queue for one state, oldest first.
func (s *Service) ListByState(ctx context.Context, state models.State, limit int) ([]*models.Request, error) {
	if !state.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown state %q", state)
	}
	reqs, err := s.store.ListByState(ctx, state, limit)
	if err != nil {
		return nil, translate(err, "failed to list requests")
	}
	return reqs, nil
}

// ListByEditor returns the requests assigned to an editor that still need
// the physical record searched, oldest first.
func (s *Service) ListByEditor(ctx context.Context, editorID id.ActorID, limit int) ([]*models.Request, error) {
	if editorID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "editor id is required")
	}
	reqs, err := s.store.ListByEditor(ctx, editorID, models.EditorQueueStates, limit)
	if err != nil {
		return nil, translate(err, "failed to list editor requests")
	}
	return reqs, nil
}

// History returns the audit trail of a request in commit order.
func (s *Service) History(ctx context.Context, requestID id.RequestID) ([]audit.Entry, error) {
	if _, err := s.store.FindByID(ctx, requestID); err != nil {
		return nil, translate(err, "failed to load request")
	}
	entries, err := s.audit.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, translate(err, "failed to load history")
	}
	return entries, nil
}

// translate maps store sentinels to domain errors. Coded errors pass through.
func translate(err error, msg string) error {
	var dErr *dErrors.Error
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "request was modified concurrently")
	case errors.Is(err, sentinel.ErrOutsideUnit):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
