package service

import (
	"context"
	"errors"
	"log/slog"

	"sigcerh/internal/notify"
	recordmodels "sigcerh/internal/record/models"
	"sigcerh/internal/request/metrics"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/queue"
	"sigcerh/pkg/requestcontext"
)

type EffectKind string

const (
	EffectNotify      EffectKind = "notify"
	EffectRecordState EffectKind = "record_state"
)

// Effect is an out-of-band consequence of a committed transition. Effects are
// best effort: a failure is logged and counted, the transition stands.
type Effect struct {
	Kind         EffectKind
	RequestID    id.RequestID
	TrackingCode string
	State        models.State
	ActorID      id.ActorID

	// notify
	TemplateKey string
	Data        map[string]any

	// record_state
	RecordID    id.RecordID
	RecordState recordmodels.State
}

var notificationTemplates = map[models.State]string{
	models.StateRecordFoundPendingPayment: notify.TemplateRecordFound,
	models.StateRecordNotFound:            notify.TemplateRecordNotFound,
	models.StateReadyForOCR:               notify.TemplatePaymentReceived,
	models.StatePaymentValidated:          notify.TemplatePaymentReceived,
	models.StateCertificateIssued:         notify.TemplateCertificateIssued,
	models.StateDelivered:                 notify.TemplateDelivered,
}

var recordStates = map[models.State]recordmodels.State{
	models.StateSearching:                 recordmodels.StateAssigned,
	models.StateRecordFoundPendingPayment: recordmodels.StateFound,
	models.StateRecordNotFound:            recordmodels.StateNotFound,
}

// effectsFor lists the side effects of req having just moved out of from.
func effectsFor(req *models.Request, from models.State, actor id.ActorID) []Effect {
	var out []Effect
	if key, ok := notificationTemplates[req.State]; ok {
		data := map[string]any{
			"from":      string(from),
			"state":     string(req.State),
			"applicant": req.Applicant.FullName,
		}
		if req.Applicant.Email != "" {
			data["email"] = req.Applicant.Email
		}
		if req.RejectionNote != "" {
			data["reason"] = req.RejectionNote
		}
		out = append(out, Effect{
			Kind:         EffectNotify,
			RequestID:    req.ID,
			TrackingCode: req.TrackingCode,
			State:        req.State,
			ActorID:      actor,
			TemplateKey:  key,
			Data:         data,
		})
	}
	if target, ok := recordStates[req.State]; ok && req.RecordID != nil {
		out = append(out, Effect{
			Kind:         EffectRecordState,
			RequestID:    req.ID,
			TrackingCode: req.TrackingCode,
			State:        req.State,
			ActorID:      actor,
			RecordID:     *req.RecordID,
			RecordState:  target,
		})
	}
	return out
}

func (s *Service) enqueue(ctx context.Context, effects []Effect) {
	if s.effects == nil {
		return
	}
	for _, e := range effects {
		if err := s.effects.Enqueue(e); err != nil {
			s.metrics.IncrementDropped(string(e.Kind))
			s.logger.WarnContext(ctx, "side effect dropped",
				"request_id", e.RequestID,
				"state", e.State,
				"kind", e.Kind,
				"error", err,
			)
		}
	}
}

// EffectWorker is the single consumer of the effect queue.
type EffectWorker struct {
	queue      *queue.Queue[Effect]
	dispatcher Dispatcher
	records    RecordUpdater
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type WorkerOption func(*EffectWorker)

func WithDispatcher(d Dispatcher) WorkerOption {
	return func(w *EffectWorker) {
		w.dispatcher = d
	}
}

func WithRecordUpdater(r RecordUpdater) WorkerOption {
	return func(w *EffectWorker) {
		w.records = r
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *EffectWorker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *EffectWorker) {
		w.metrics = m
	}
}

func NewEffectWorker(q *queue.Queue[Effect], opts ...WorkerOption) (*EffectWorker, error) {
	if q == nil {
		return nil, errors.New("effect queue is required")
	}
	w := &EffectWorker{queue: q, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run consumes effects until ctx is done, then drains what is already queued.
func (w *EffectWorker) Run(ctx context.Context) error {
	err := w.queue.Run(ctx, w.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle executes one effect.
func (w *EffectWorker) Handle(ctx context.Context, e Effect) {
	ctx = requestcontext.WithActor(ctx, e.ActorID, string(models.RoleSystem))
	var err error
	switch e.Kind {
	case EffectNotify:
		if w.dispatcher == nil {
			return
		}
		err = w.dispatcher.Dispatch(ctx, notify.Notification{
			TemplateKey:  e.TemplateKey,
			RequestID:    e.RequestID,
			TrackingCode: e.TrackingCode,
			Data:         e.Data,
			At:           requestcontext.Now(ctx),
		})
	case EffectRecordState:
		if w.records == nil {
			return
		}
		_, err = w.records.MarkState(ctx, e.RecordID, e.RecordState, e.ActorID)
	default:
		w.logger.WarnContext(ctx, "unknown side effect", "kind", e.Kind, "request_id", e.RequestID)
		return
	}
	if err != nil {
		w.metrics.IncrementFailed(string(e.Kind))
		w.logger.ErrorContext(ctx, "side effect failed",
			"request_id", e.RequestID,
			"state", e.State,
			"kind", e.Kind,
			"error", err,
		)
	}
}
