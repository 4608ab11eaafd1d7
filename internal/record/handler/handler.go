package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sigcerh/internal/platform/middleware"
	"sigcerh/internal/record/models"
	"sigcerh/internal/record/service"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/httputil"
	"sigcerh/pkg/requestcontext"
)

const (
	maxScanBytes       = 32 << 20
	maxExtractionBytes = 4 << 20
)

// Service is the record catalogue surface exposed over HTTP.
type Service interface {
	Upload(ctx context.Context, cmd service.UploadCommand) (*models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	MarkState(ctx context.Context, recordID id.RecordID, target models.State, actor id.ActorID) (*models.Record, error)
	AttachExtraction(ctx context.Context, recordID id.RecordID, raw []byte, actor id.ActorID) (*models.Record, error)
	CorrectExtraction(ctx context.Context, cmd service.CorrectCommand) (*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the record routes. All of them need an asserted actor.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/records", h.handleUpload)
		r.Get("/records/{id}", h.handleGet)
		r.Post("/records/{id}/state", h.handleMarkState)
		r.Post("/records/{id}/extraction", h.handleAttachExtraction)
		r.Post("/records/{id}/corrections", h.handleCorrectExtraction)
	})
}

// handleUpload accepts the scanned page as multipart form data. The file part
// is "file"; the remaining catalogue fields are plain form values.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := requestcontext.Actor(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes)
	if err := r.ParseMultipartForm(maxScanBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid record upload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart upload"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file part is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read upload"))
		return
	}

	cmd := service.UploadCommand{
		Number:  r.FormValue("number"),
		Section: r.FormValue("section"),
		Shift:   r.FormValue("shift"),
		Kind:    r.FormValue("kind"),
		Folio:   r.FormValue("folio"),
		Content: content,
		ActorID: actor,
	}
	if cmd.Year, err = formInt(r, "year"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if cmd.Grade, err = formInt(r, "grade"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Upload(ctx, cmd)
	if err != nil {
		h.fail(ctx, w, "upload record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Get(ctx, recordID)
	if err != nil {
		h.fail(ctx, w, "get record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) handleMarkState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[StateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actor, _ := requestcontext.Actor(ctx)
	rec, err := h.service.MarkState(ctx, recordID, body.state, actor)
	if err != nil {
		h.fail(ctx, w, "mark record state", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
}

// handleAttachExtraction takes the OCR envelope as the raw request body. The
// service owns its validation.
func (h *Handler) handleAttachExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExtractionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "extraction exceeds %d bytes", maxExtractionBytes))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read body"))
		return
	}
	actor, _ := requestcontext.Actor(ctx)
	rec, err := h.service.AttachExtraction(ctx, recordID, raw, actor)
	if err != nil {
		h.fail(ctx, w, "attach extraction", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) handleCorrectExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[CorrectionsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actor, _ := requestcontext.Actor(ctx)
	rec, err := h.service.CorrectExtraction(ctx, service.CorrectCommand{
		RecordID:    recordID,
		Corrections: body.Corrections,
		Note:        body.Note,
		ActorID:     actor,
	})
	if err != nil {
		h.fail(ctx, w, "correct extraction", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(rec))
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

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be an integer", field)
	}
	return n, nil
}
