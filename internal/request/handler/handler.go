package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sigcerh/internal/audit"
	"sigcerh/internal/platform/middleware"
	"sigcerh/internal/request/models"
	"sigcerh/internal/request/service"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/httputil"
	"sigcerh/pkg/requestcontext"
)

// Service is the lifecycle surface exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*models.Request, error)
	Get(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	GetByTrackingCode(ctx context.Context, code string) (*models.Request, error)
	ListByState(ctx context.Context, state models.State, limit int) ([]*models.Request, error)
	ListByEditor(ctx context.Context, editorID id.ActorID, limit int) ([]*models.Request, error)
	History(ctx context.Context, requestID id.RequestID) ([]audit.Entry, error)
	Transition(ctx context.Context, cmd service.TransitionCommand) (*models.Request, error)
	CanTransition(ctx context.Context, requestID id.RequestID, target models.State, role models.Role) (bool, string, error)
	AllowedTransitions(ctx context.Context, requestID id.RequestID, role models.Role) ([]models.State, error)
	LinkPayment(ctx context.Context, requestID id.RequestID, paymentID id.PaymentID) (*models.Request, error)
	LinkCertificate(ctx context.Context, requestID id.RequestID, certificateID id.CertificateID) (*models.Request, error)
	LinkRecord(ctx context.Context, requestID id.RequestID, recordID id.RecordID) (*models.Request, error)
	LinkStudent(ctx context.Context, requestID id.RequestID, studentID id.StudentID) (*models.Request, error)
}

// Handler serves the certificate request endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a request Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the request routes. Tracking lookups are public; every
// other route needs an asserted actor.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requests/tracking/{code}", h.handleTrack)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests", h.handleList)
		r.Get("/editors/{id}/requests", h.handleEditorQueue)
		r.Get("/requests/{id}", h.handleGet)
		r.Get("/requests/{id}/history", h.handleHistory)
		r.Get("/requests/{id}/allowed", h.handleAllowed)
		r.Post("/requests/{id}/transitions", h.handleTransition)
		r.Post("/requests/{id}/transitions/check", h.handleCheck)
		r.Post("/requests/{id}/payment", h.handleLinkPayment)
		r.Post("/requests/{id}/certificate", h.handleLinkCertificate)
		r.Post("/requests/{id}/record", h.handleLinkRecord)
		r.Post("/requests/{id}/student", h.handleLinkStudent)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestcontext.RequestID(ctx)
	body, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, reqID)
	if !ok {
		return
	}
	actor, role, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cmd := body.command(actor, role)
	created, err := h.service.Submit(ctx, cmd)
	if err != nil {
		h.fail(ctx, w, "submit request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	found, err := h.service.GetByTrackingCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.fail(ctx, w, "track request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTrackingResponse(found))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	found, err := h.service.Get(ctx, requestID)
	if err != nil {
		h.fail(ctx, w, "get request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(found))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := models.ParseState(r.URL.Query().Get("state"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.service.ListByState(ctx, state, limit)
	if err != nil {
		h.fail(ctx, w, "list requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

// handleEditorQueue lists what an editor still has to search for.
func (h *Handler) handleEditorQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.service.ListByEditor(ctx, id.ActorID(strings.TrimSpace(chi.URLParam(r, "id"))), limit)
	if err != nil {
		h.fail(ctx, w, "list editor requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
	}
	return limit, nil
}

func toListResponse(reqs []*models.Request) ListResponse {
	out := ListResponse{Requests: make([]RequestResponse, 0, len(reqs))}
	for _, req := range reqs {
		out.Requests = append(out.Requests, toResponse(req))
	}
	return out
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.History(ctx, requestID)
	if err != nil {
		h.fail(ctx, w, "load history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{RequestID: requestID, Entries: entries})
}

func (h *Handler) handleAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	_, role, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	next, err := h.service.AllowedTransitions(ctx, requestID, role)
	if err != nil {
		h.fail(ctx, w, "list allowed transitions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowedResponse{RequestID: requestID, Role: role, Allowed: next})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actor, role, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.service.Transition(ctx, service.TransitionCommand{
		RequestID: requestID,
		Target:    body.target,
		ActorID:   actor,
		ActorRole: role,
		Note:      body.Note,
		Metadata:  body.Metadata,
	})
	if err != nil {
		h.fail(ctx, w, "transition request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	_, role, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	allowed, reason, err := h.service.CanTransition(ctx, requestID, body.target, role)
	if err != nil {
		h.fail(ctx, w, "check transition", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{Allowed: allowed, Reason: reason})
}

func (h *Handler) handleLinkPayment(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, func(ctx context.Context, requestID id.RequestID, raw string) (*models.Request, error) {
		paymentID, err := id.ParsePaymentID(raw)
		if err != nil {
			return nil, err
		}
		return h.service.LinkPayment(ctx, requestID, paymentID)
	})
}

func (h *Handler) handleLinkCertificate(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, func(ctx context.Context, requestID id.RequestID, raw string) (*models.Request, error) {
		certificateID, err := id.ParseCertificateID(raw)
		if err != nil {
			return nil, err
		}
		return h.service.LinkCertificate(ctx, requestID, certificateID)
	})
}

func (h *Handler) handleLinkRecord(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, func(ctx context.Context, requestID id.RequestID, raw string) (*models.Request, error) {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return nil, err
		}
		return h.service.LinkRecord(ctx, requestID, recordID)
	})
}

func (h *Handler) handleLinkStudent(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, func(ctx context.Context, requestID id.RequestID, raw string) (*models.Request, error) {
		studentID, err := id.ParseStudentID(raw)
		if err != nil {
			return nil, err
		}
		return h.service.LinkStudent(ctx, requestID, studentID)
	})
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.RequestID, string) (*models.Request, error)) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[LinkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := apply(ctx, requestID, body.ID)
	if err != nil {
		h.fail(ctx, w, "link request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(updated))
}

// fail logs internal failures at error level and client errors at warn.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	level := slog.LevelWarn
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "failed to "+op,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// actorFrom reads the asserted actor. A missing role header means a citizen.
func actorFrom(ctx context.Context) (id.ActorID, models.Role, error) {
	actor, rawRole := requestcontext.Actor(ctx)
	if actor == "" {
		return "", "", dErrors.New(dErrors.CodeBadRequest, "actor identity is required")
	}
	if rawRole == "" {
		return actor, models.RolePublic, nil
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return "", "", err
	}
	return actor, role, nil
}
