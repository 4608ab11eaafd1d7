package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/platform/middleware"
	"sigcerh/internal/reconcile"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/httputil"
	"sigcerh/pkg/requestcontext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service is the ingestion pipeline surface exposed over HTTP.
type Service interface {
	Normalize(ctx context.Context, recordID id.RecordID, actor id.ActorID) (*models.Result, error)
	NormalizeMany(ctx context.Context, recordIDs []id.RecordID, actor id.ActorID) ([]models.BatchItem, error)
	Validate(ctx context.Context, recordID id.RecordID) (*reconcile.Report, error)
	Export(ctx context.Context, recordID id.RecordID) ([]byte, error)
	Consolidate(ctx context.Context, studentID id.StudentID) (*models.Consolidated, error)
	Compare(ctx context.Context, recordID id.RecordID) (*models.Comparison, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the normalization and read-back routes behind an asserted
// actor.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/records/normalize", h.handleNormalizeMany)
		r.Post("/records/{id}/normalize", h.handleNormalize)
		r.Post("/records/{id}/validate", h.handleValidate)
		r.Get("/records/{id}/export", h.handleExport)
		r.Get("/records/{id}/comparison", h.handleCompare)
		r.Get("/students/{id}/consolidated", h.handleConsolidate)
	})
}

func (h *Handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, _ := requestcontext.Actor(ctx)
	res, err := h.service.Normalize(ctx, recordID, actor)
	if err != nil {
		h.fail(ctx, w, "normalize record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(res))
}

func (h *Handler) handleNormalizeMany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actor, _ := requestcontext.Actor(ctx)
	items, err := h.service.NormalizeMany(ctx, body.ids, actor)
	if err != nil {
		h.fail(ctx, w, "normalize records", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(items))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	report, err := h.service.Validate(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, "validate record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	data, err := h.service.Export(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, "export record", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="record-%s.xlsx"`, recordID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Compare(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, "compare record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, err := id.ParseStudentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Consolidate(ctx, studentID)
	if err != nil {
		h.fail(ctx, w, "consolidate student", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
