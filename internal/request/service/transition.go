package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sigcerh/internal/audit"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/requestcontext"
)

type TransitionCommand struct {
	RequestID id.RequestID
	Target    models.State
	ActorID   id.ActorID
	ActorRole models.Role
	Note      string
	Metadata  map[string]string
}

// Transition validates and applies one state change.
//
// Checks run in a fixed order and each maps to its own error code: the
// request exists, its state has a table entry, the target is a listed next
// state, the role may leave the current state, and the data the move needs is
// linked. Nothing is written when any check fails.
//
// A version conflict on the final update means another actor won the race.
// The whole attempt is then re-read and re-evaluated against the new state.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*models.Request, error) {
	ctx, span := s.tracer.Start(ctx, "request.Transition", trace.WithAttributes(
		attribute.String("request.id", cmd.RequestID.String()),
		attribute.String("request.target", string(cmd.Target)),
		attribute.String("actor.role", string(cmd.ActorRole)),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveTransitionLatency(time.Since(start)) }()

	if !cmd.Target.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown state %q", cmd.Target)
	}
	if cmd.ActorID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	var (
		updated *models.Request
		from    models.State
	)
	for attempt := 0; ; attempt++ {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			req, err := s.store.FindByID(ctx, cmd.RequestID)
			if err != nil {
				return err
			}
			if err := s.check(req, cmd.Target, cmd.ActorRole); err != nil {
				return err
			}

			from = req.State
			expected := req.Version
			now := requestcontext.Now(ctx)
			req.ApplyTransition(cmd.Target, cmd.ActorID, cmd.Note, cmd.Metadata, now)
			if err := s.store.Update(ctx, req, expected); err != nil {
				return err
			}
			entry := audit.NewEntry(req.ID, from, cmd.Target, cmd.ActorID, cmd.ActorRole, cmd.Note, cmd.Metadata, now)
			if err := s.audit.Append(ctx, entry); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
			}
			updated = req
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && !dErrors.Is(err, dErrors.CodeInternal) && attempt < s.maxRetries {
			s.metrics.IncrementRetry()
			s.logger.DebugContext(ctx, "transition lost a version race, retrying",
				"request_id", cmd.RequestID,
				"to", cmd.Target,
				"attempt", attempt+1,
			)
			continue
		}

		err = translate(err, "failed to transition request")
		s.metrics.IncrementTransition(string(from), string(cmd.Target), string(dErrors.CodeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.logger.InfoContext(ctx, "transition rejected",
			"request_id", cmd.RequestID,
			"to", cmd.Target,
			"actor_id", cmd.ActorID,
			"actor_role", cmd.ActorRole,
			"code", dErrors.CodeOf(err),
		)
		return nil, err
	}

	s.metrics.IncrementTransition(string(from), string(cmd.Target), "ok")
	span.SetAttributes(attribute.String("request.from", string(from)))
	s.logger.InfoContext(ctx, "request transitioned",
		"request_id", updated.ID,
		"from", from,
		"to", updated.State,
		"actor_id", cmd.ActorID,
		"actor_role", cmd.ActorRole,
	)
	s.enqueue(ctx, effectsFor(updated, from, cmd.ActorID))
	return updated, nil
}

// CanTransition runs the Transition checks without writing. The reason is
// empty when the move is allowed.
func (s *Service) CanTransition(ctx context.Context, requestID id.RequestID, target models.State, role models.Role) (bool, string, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return false, "", translate(err, "failed to load request")
	}
	if err := s.check(req, target, role); err != nil {
		var dErr *dErrors.Error
		if errors.As(err, &dErr) && dErr.Code != dErrors.CodeInvariantViolation {
			return false, dErr.Message, nil
		}
		return false, "", err
	}
	return true, "", nil
}

// AllowedTransitions returns the next states role may move the request to.
// Linked-data requirements are not considered.
func (s *Service) AllowedTransitions(ctx context.Context, requestID id.RequestID, role models.Role) ([]models.State, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, translate(err, "failed to load request")
	}
	rule, ok := models.Lookup(req.State)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "state %s has no transition table entry", req.State)
	}
	if !rule.Permits(role) {
		return []models.State{}, nil
	}
	return rule.Next, nil
}

func (s *Service) check(req *models.Request, target models.State, role models.Role) error {
	rule, ok := models.Lookup(req.State)
	if !ok {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "state %s has no transition table entry", req.State)
	}
	if !rule.Reaches(target) {
		allowed := make([]string, 0, len(rule.Next))
		for _, st := range rule.Next {
			allowed = append(allowed, string(st))
		}
		return dErrors.NewInvalidTransition(string(req.State), string(target), allowed)
	}
	if !rule.Permits(role) {
		return dErrors.Newf(dErrors.CodeUnauthorized, "role %s cannot move a request out of %s", role, req.State)
	}
	for _, need := range models.Requirements(req.State, target) {
		if !req.Has(need) {
			return dErrors.Newf(dErrors.CodePreconditionFailed, "cannot reach %s without a linked %s", target, need)
		}
	}
	return nil
}
