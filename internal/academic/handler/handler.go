package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sigcerh/internal/academic/models"
	"sigcerh/internal/academic/service"
	"sigcerh/internal/platform/middleware"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/httputil"
	"sigcerh/pkg/requestcontext"
)

type Service interface {
	CreateArea(ctx context.Context, cmd service.CreateAreaCommand) (*models.Area, error)
	ListAreas(ctx context.Context, activeOnly bool) ([]models.Area, error)
	SetTemplate(ctx context.Context, year, grade int, areaIDs []id.AreaID) (*models.Curriculum, error)
	Template(ctx context.Context, year, grade int) (*models.Curriculum, error)
	GetStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	FindStudentByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
}

// Handler serves the academic catalog.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Get("/areas", h.handleListAreas)
		r.Post("/areas", h.handleCreateArea)
		r.Get("/curriculum/{year}/{grade}", h.handleTemplate)
		r.Put("/curriculum/{year}/{grade}", h.handleSetTemplate)
		r.Get("/students", h.handleFindStudent)
		r.Get("/students/{id}", h.handleGetStudent)
	})
}

type CreateAreaRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (r *CreateAreaRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
	if r.Code == "" || r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "code and name are required")
	}
	return nil
}

type SetTemplateRequest struct {
	AreaIDs []string `json:"area_ids"`

	ids []id.AreaID
}

func (r *SetTemplateRequest) Validate() error {
	if len(r.AreaIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "area_ids is required")
	}
	r.ids = make([]id.AreaID, 0, len(r.AreaIDs))
	for _, raw := range r.AreaIDs {
		areaID, err := id.ParseAreaID(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		r.ids = append(r.ids, areaID)
	}
	return nil
}

type AreasResponse struct {
	Areas []models.Area `json:"areas"`
}

func (h *Handler) handleListAreas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activeOnly := r.URL.Query().Get("active") != "false"
	areas, err := h.service.ListAreas(ctx, activeOnly)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AreasResponse{Areas: areas})
}

func (h *Handler) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[CreateAreaRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	area, err := h.service.CreateArea(ctx, service.CreateAreaCommand{Code: body.Code, Name: body.Name, Position: body.Position})
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, area)
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, grade, err := yearGrade(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cur, err := h.service.Template(ctx, year, grade)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cur)
}

func (h *Handler) handleSetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, grade, err := yearGrade(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[SetTemplateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cur, err := h.service.SetTemplate(ctx, year, grade, body.ids)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cur)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, err := id.ParseStudentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.service.GetStudent(ctx, studentID)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleFindStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.service.FindStudentByNationalID(ctx, r.URL.Query().Get("national_id"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "academic request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func yearGrade(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "year must be an integer")
	}
	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "grade must be an integer")
	}
	return year, grade, nil
}
