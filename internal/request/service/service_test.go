package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=EffectSink

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigcerh/internal/audit"
	"sigcerh/internal/request/models"
	"sigcerh/internal/request/store"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/tx"
	"sigcerh/pkg/requestcontext"
)

// captureSink records queued effects instead of running them.
type captureSink struct {
	mu      sync.Mutex
	effects []Effect
	err     error
}

func (c *captureSink) Enqueue(e Effect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.effects = append(c.effects, e)
	return nil
}

func (c *captureSink) kinds() []EffectKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EffectKind, 0, len(c.effects))
	for _, e := range c.effects {
		out = append(out, e.Kind)
	}
	return out
}

type LifecycleSuite struct {
	suite.Suite
	store     *store.InMemory
	audit     *audit.InMemoryStore
	directory *store.MemoryDirectory
	sink      *captureSink
	service   *Service
	ctx       context.Context
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.audit = audit.NewInMemory()
	s.directory = store.NewMemoryDirectory()
	s.sink = &captureSink{}
	runner := tx.NewMemoryRunner(s.store, s.audit)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.store, s.audit, runner,
		WithLogger(logger),
		WithPaymentDirectory(s.directory),
		WithCertificateDirectory(s.directory),
		WithEffects(s.sink),
	)
	s.Require().NoError(err)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 6, 3, 8, 30, 0, 0, time.UTC))
}

func (s *LifecycleSuite) submit() *models.Request {
	req, err := s.service.Submit(s.ctx, SubmitCommand{
		Applicant: models.Applicant{FullName: "Rosa Huamán Torres", NationalID: "40123456", Email: "rosa@example.pe"},
		ActorID:   "citizen-1",
		ActorRole: models.RolePublic,
	})
	s.Require().NoError(err)
	return req
}

// force puts a stored request into state with payment and certificate linked.
func (s *LifecycleSuite) force(requestID id.RequestID, state models.State) {
	req, err := s.store.FindByID(s.ctx, requestID)
	s.Require().NoError(err)
	req.State = state
	req.LinkPayment(id.PaymentID(id.NewRequestID()), requestcontext.Now(s.ctx))
	s.Require().NoError(s.store.Update(s.ctx, req, req.Version))
}

func (s *LifecycleSuite) transition(requestID id.RequestID, target models.State, role models.Role, meta map[string]string) (*models.Request, error) {
	return s.service.Transition(s.ctx, TransitionCommand{
		RequestID: requestID,
		Target:    target,
		ActorID:   id.ActorID("actor-" + string(role)),
		ActorRole: role,
		Note:      "moved",
		Metadata:  meta,
	})
}

func (s *LifecycleSuite) historyLen(requestID id.RequestID) int {
	entries, err := s.service.History(s.ctx, requestID)
	s.Require().NoError(err)
	return len(entries)
}

func (s *LifecycleSuite) TestNew() {
	runner := tx.NewMemoryRunner()
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.audit, runner)
		s.Error(err)
		s.Contains(err.Error(), "request store is required")
	})
	s.Run("nil audit store returns error", func() {
		_, err := New(s.store, nil, runner)
		s.Error(err)
	})
	s.Run("nil runner returns error", func() {
		_, err := New(s.store, s.audit, nil)
		s.Error(err)
	})
	s.Run("options are applied", func() {
		svc, err := New(s.store, s.audit, runner, WithMaxRetries(7))
		s.Require().NoError(err)
		s.Equal(7, svc.maxRetries)
	})
}

func (s *LifecycleSuite) TestSubmit() {
	s.Run("creates a registered request with a creation audit entry", func() {
		req := s.submit()
		s.Equal(models.StateRegistered, req.State)
		s.Equal(models.PriorityNormal, req.Priority)
		s.Equal(1, req.Version)
		s.Regexp(regexp.MustCompile(`^SIG-2024-[0-9A-F]{8}$`), req.TrackingCode)
		s.True(req.Milestones.Submission.Reached())
		s.Equal(id.ActorID("citizen-1"), req.Milestones.Submission.ActorID)

		entries, err := s.service.History(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Nil(entries[0].FromState)
		s.Equal(models.StateRegistered, entries[0].ToState)
	})

	s.Run("tracking code lookup is case-insensitive", func() {
		req := s.submit()
		got, err := s.service.GetByTrackingCode(s.ctx, " "+req.TrackingCode+" ")
		s.Require().NoError(err)
		s.Equal(req.ID, got.ID)
	})

	s.Run("missing applicant name is rejected", func() {
		_, err := s.service.Submit(s.ctx, SubmitCommand{ActorID: "citizen-1", ActorRole: models.RolePublic})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *LifecycleSuite) TestMesaDePartesDerivesToEditor() {
	req := s.submit()

	updated, err := s.transition(req.ID, models.StateDerivedToEditor, models.RoleMesaDePartes, map[string]string{models.MetaEditorID: "editor-9"})
	s.Require().NoError(err)
	s.Equal(models.StateDerivedToEditor, updated.State)
	s.Equal(id.ActorID("editor-9"), updated.EditorID)
	s.True(updated.Milestones.ProcessStart.Reached())

	entries, err := s.service.History(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Require().NotNil(entries[1].FromState)
	s.Equal(models.StateRegistered, *entries[1].FromState)
	s.Equal(models.StateDerivedToEditor, entries[1].ToState)
	s.Equal(models.RoleMesaDePartes, entries[1].ActorRole)
}

func (s *LifecycleSuite) TestEditorCannotDerive() {
	req := s.submit()

	_, err := s.transition(req.ID, models.StateDerivedToEditor, models.RoleEditor, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(1, s.historyLen(req.ID))

	stored, err := s.service.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StateRegistered, stored.State)
	s.Equal(1, stored.Version)
}

func (s *LifecycleSuite) TestInvalidTransitionReportsAllowedSet() {
	req := s.submit()

	_, err := s.transition(req.ID, models.StateDelivered, models.RoleSystem, nil)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	details, ok := dErrors.DetailsOf(err).(dErrors.TransitionRejection)
	s.Require().True(ok)
	s.Equal("REGISTERED", details.Current)
	s.Equal("DELIVERED", details.Target)
	s.Equal([]string{"DERIVED_TO_EDITOR"}, details.Allowed)
}

func (s *LifecycleSuite) TestUnknownRequestIsNotFound() {
	_, err := s.transition(id.NewRequestID(), models.StateDerivedToEditor, models.RoleMesaDePartes, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestFullLifecycle() {
	req := s.submit()
	paymentID := id.PaymentID(id.NewRequestID())
	certificateID := id.CertificateID(id.NewRequestID())
	s.directory.AddPayment(paymentID)
	s.directory.AddCertificate(certificateID)
	recordID := id.NewRecordID()
	_, err := s.service.LinkRecord(s.ctx, req.ID, recordID)
	s.Require().NoError(err)

	steps := []struct {
		target models.State
		role   models.Role
		meta   map[string]string
		before func()
	}{
		{target: models.StateDerivedToEditor, role: models.RoleMesaDePartes},
		{target: models.StateSearching, role: models.RoleEditor},
		{target: models.StateRecordFoundPendingPayment, role: models.RoleEditor},
		{target: models.StateReadyForOCR, role: models.RoleSystem, before: func() {
			_, err := s.service.LinkPayment(s.ctx, req.ID, paymentID)
			s.Require().NoError(err)
		}},
		{target: models.StateOCRProcessing, role: models.RoleEditor},
		{target: models.StateCertificateIssued, role: models.RoleAdmin, meta: map[string]string{models.MetaSignerID: "director-1"}, before: func() {
			_, err := s.service.LinkCertificate(s.ctx, req.ID, certificateID)
			s.Require().NoError(err)
		}},
		{target: models.StateDelivered, role: models.RoleMesaDePartes},
	}
	var last *models.Request
	for _, step := range steps {
		if step.before != nil {
			step.before()
		}
		last, err = s.transition(req.ID, step.target, step.role, step.meta)
		s.Require().NoError(err, "to %s", step.target)
	}

	s.Equal(models.StateDelivered, last.State)
	s.True(models.IsTerminal(last.State))
	m := last.Milestones
	for name, ms := range map[string]models.Milestone{
		"submission":             m.Submission,
		"payment validation":     m.PaymentValidation,
		"process start":          m.ProcessStart,
		"certificate generation": m.CertificateGeneration,
		"signature":              m.Signature,
		"delivery":               m.Delivery,
	} {
		s.True(ms.Reached(), name)
	}
	s.Equal(id.ActorID("director-1"), m.Signature.ActorID)
	s.Equal(id.ActorID("actor-"+string(models.RoleMesaDePartes)), m.ProcessStart.ActorID, "process start is kept from the first milestone")
	s.Equal(len(steps)+1, s.historyLen(req.ID))

	s.Contains(s.sink.kinds(), EffectRecordState)
	s.Contains(s.sink.kinds(), EffectNotify)
}

func (s *LifecycleSuite) TestTerminalStatesRejectEveryTarget() {
	for _, terminal := range []models.State{models.StateRecordNotFound, models.StateDelivered} {
		req := s.submit()
		s.force(req.ID, terminal)
		before := s.historyLen(req.ID)
		for _, target := range models.States() {
			for _, role := range []models.Role{models.RoleSystem, models.RoleAdmin, models.RoleEditor, models.RoleMesaDePartes, models.RolePublic} {
				_, err := s.transition(req.ID, target, role, nil)
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s -> %s as %s", terminal, target, role)
			}
		}
		s.Equal(before, s.historyLen(req.ID))
	}
}

func (s *LifecycleSuite) TestEveryTripleAgainstTheTable() {
	roles := []models.Role{models.RoleSystem, models.RolePublic, models.RoleMesaDePartes, models.RoleEditor, models.RoleAdmin}
	for _, from := range models.States() {
		rule, ok := models.Lookup(from)
		s.Require().True(ok)
		for _, target := range models.States() {
			for _, role := range roles {
				req := s.submit()
				s.force(req.ID, from)
				stored, err := s.store.FindByID(s.ctx, req.ID)
				s.Require().NoError(err)
				certificateID := id.CertificateID(id.NewRequestID())
				stored.LinkCertificate(certificateID, time.Now())
				s.Require().NoError(s.store.Update(s.ctx, stored, stored.Version))
				before := s.historyLen(req.ID)

				_, err = s.transition(req.ID, target, role, nil)
				valid := rule.Reaches(target) && rule.Permits(role)
				if valid {
					s.NoError(err, "%s -> %s as %s", from, target, role)
					s.Equal(before+1, s.historyLen(req.ID), "%s -> %s as %s", from, target, role)
				} else {
					s.Error(err, "%s -> %s as %s", from, target, role)
					s.Equal(before, s.historyLen(req.ID), "%s -> %s as %s", from, target, role)
				}
			}
		}
	}
}

func (s *LifecycleSuite) TestPreconditions() {
	s.Run("ready for OCR needs a linked payment", func() {
		req := s.submit()
		stored, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		stored.State = models.StateRecordFoundPendingPayment
		s.Require().NoError(s.store.Update(s.ctx, stored, stored.Version))

		_, err = s.transition(req.ID, models.StateReadyForOCR, models.RoleMesaDePartes, nil)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		s.Equal(1, s.historyLen(req.ID))
	})

	s.Run("certificate issued needs a linked certificate", func() {
		req := s.submit()
		stored, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		stored.State = models.StateOCRProcessing
		s.Require().NoError(s.store.Update(s.ctx, stored, stored.Version))

		_, err = s.transition(req.ID, models.StateCertificateIssued, models.RoleEditor, nil)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("unknown payment cannot be linked", func() {
		req := s.submit()
		_, err := s.service.LinkPayment(s.ctx, req.ID, id.PaymentID(id.NewRequestID()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LifecycleSuite) TestValidatedLinksCannotBeReplaced() {
	req := s.submit()
	paymentID := id.PaymentID(id.NewRequestID())
	otherPayment := id.PaymentID(id.NewRequestID())
	certificateID := id.CertificateID(id.NewRequestID())
	otherCertificate := id.CertificateID(id.NewRequestID())
	for _, p := range []id.PaymentID{paymentID, otherPayment} {
		s.directory.AddPayment(p)
	}
	for _, c := range []id.CertificateID{certificateID, otherCertificate} {
		s.directory.AddCertificate(c)
	}

	_, err := s.service.LinkPayment(s.ctx, req.ID, paymentID)
	s.Require().NoError(err)
	stored, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	stored.State = models.StateRecordFoundPendingPayment
	s.Require().NoError(s.store.Update(s.ctx, stored, stored.Version))
	_, err = s.transition(req.ID, models.StateReadyForOCR, models.RoleSystem, nil)
	s.Require().NoError(err)

	s.Run("payment after validation", func() {
		_, err := s.service.LinkPayment(s.ctx, req.ID, otherPayment)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		got, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(paymentID, *got.PaymentID)

		_, err = s.service.LinkPayment(s.ctx, req.ID, paymentID)
		s.NoError(err, "same payment again is accepted")
	})

	_, err = s.transition(req.ID, models.StateOCRProcessing, models.RoleEditor, nil)
	s.Require().NoError(err)
	_, err = s.service.LinkCertificate(s.ctx, req.ID, certificateID)
	s.Require().NoError(err)
	_, err = s.transition(req.ID, models.StateCertificateIssued, models.RoleAdmin, nil)
	s.Require().NoError(err)

	s.Run("certificate after generation", func() {
		_, err := s.service.LinkCertificate(s.ctx, req.ID, otherCertificate)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		got, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(certificateID, *got.CertificateID)
	})
}

func (s *LifecycleSuite) TestConcurrentTransitionsHaveOneWinner() {
	req := s.submit()
	s.force(req.ID, models.StateSearching)
	before := s.historyLen(req.ID)

	targets := []models.State{models.StateRecordFoundPendingPayment, models.StateRecordNotFound}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.transition(req.ID, target, models.RoleEditor, nil)
		}()
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "loser is evaluated against the new state")
		}
	}
	s.Equal(1, failures)
	s.Equal(before+1, s.historyLen(req.ID))
}

func (s *LifecycleSuite) TestCanTransition() {
	req := s.submit()

	ok, reason, err := s.service.CanTransition(s.ctx, req.ID, models.StateDerivedToEditor, models.RoleMesaDePartes)
	s.Require().NoError(err)
	s.True(ok)
	s.Empty(reason)

	ok, reason, err = s.service.CanTransition(s.ctx, req.ID, models.StateDerivedToEditor, models.RolePublic)
	s.Require().NoError(err)
	s.False(ok)
	s.Contains(reason, "PUBLIC")
	s.Equal(1, s.historyLen(req.ID), "dry run never writes")

	_, _, err = s.service.CanTransition(s.ctx, id.NewRequestID(), models.StateDerivedToEditor, models.RoleSystem)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestAllowedTransitions() {
	req := s.submit()
	s.force(req.ID, models.StateSearching)

	next, err := s.service.AllowedTransitions(s.ctx, req.ID, models.RoleEditor)
	s.Require().NoError(err)
	s.ElementsMatch([]models.State{models.StateRecordFoundPendingPayment, models.StateRecordNotFound}, next)

	next, err = s.service.AllowedTransitions(s.ctx, req.ID, models.RoleMesaDePartes)
	s.Require().NoError(err)
	s.Empty(next)
}

func (s *LifecycleSuite) TestListByState() {
	first := s.submit()
	s.submit()

	reqs, err := s.service.ListByState(s.ctx, models.StateRegistered, 1)
	s.Require().NoError(err)
	s.Require().Len(reqs, 1)
	s.Equal(first.State, reqs[0].State)

	_, err = s.service.ListByState(s.ctx, models.State("LOST"), 10)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LifecycleSuite) TestListByEditor() {
	assign := func(editor string) *models.Request {
		req := s.submit()
		_, err := s.transition(req.ID, models.StateDerivedToEditor, models.RoleMesaDePartes, map[string]string{models.MetaEditorID: editor})
		s.Require().NoError(err)
		return req
	}
	derived := assign("editor-9")
	searching := assign("editor-9")
	_, err := s.transition(searching.ID, models.StateSearching, models.RoleEditor, nil)
	s.Require().NoError(err)
	found := assign("editor-9")
	_, err = s.transition(found.ID, models.StateSearching, models.RoleEditor, nil)
	s.Require().NoError(err)
	_, err = s.transition(found.ID, models.StateRecordFoundPendingPayment, models.RoleEditor, nil)
	s.Require().NoError(err)
	assign("editor-7")
	s.submit()

	reqs, err := s.service.ListByEditor(s.ctx, "editor-9", 0)
	s.Require().NoError(err)
	got := make([]id.RequestID, 0, len(reqs))
	for _, r := range reqs {
		got = append(got, r.ID)
	}
	s.ElementsMatch([]id.RequestID{derived.ID, searching.ID}, got)

	limited, err := s.service.ListByEditor(s.ctx, "editor-9", 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	_, err = s.service.ListByEditor(s.ctx, "", 10)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LifecycleSuite) TestRejectionRecordsReason() {
	req := s.submit()
	s.force(req.ID, models.StateSearching)

	updated, err := s.transition(req.ID, models.StateRecordNotFound, models.RoleEditor, map[string]string{models.MetaReason: "ledger destroyed in 1998 flood"})
	s.Require().NoError(err)
	s.NotNil(updated.RejectedAt)
	s.Equal("ledger destroyed in 1998 flood", updated.RejectionNote)
}
