package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sigcerh/internal/platform/middleware"
	"sigcerh/internal/request/handler/mocks"
	"sigcerh/internal/request/models"
	"sigcerh/internal/request/service"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type RequestHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerSuite))
}

func (s *RequestHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Actor)
	New(s.service, logger).Register(s.router)
}

func (s *RequestHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RequestHandlerSuite) do(method, path, body, actor, role string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set(middleware.HeaderActorID, actor)
	}
	if role != "" {
		req.Header.Set(middleware.HeaderActorRole, role)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RequestHandlerSuite) sample(state models.State) *models.Request {
	r, err := models.NewRequest(id.NewRequestID(), "SIG-2024-ABCD1234", models.Applicant{FullName: "Rosa Huaman"},
		models.PriorityNormal, "citizen-1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	r.State = state
	return r
}

func (s *RequestHandlerSuite) TestSubmit() {
	s.Run("creates with the asserted actor", func() {
		created := s.sample(models.StateRegistered)
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, cmd service.SubmitCommand) (*models.Request, error) {
				s.Equal(id.ActorID("citizen-1"), cmd.ActorID)
				s.Equal(models.RolePublic, cmd.ActorRole)
				s.Equal(models.PriorityHigh, cmd.Priority)
				s.Equal("Rosa Huaman", cmd.Applicant.FullName)
				return created, nil
			})

		w := s.do(http.MethodPost, "/requests", `{"full_name":"  Rosa Huaman ","priority":"high"}`, "citizen-1", "")
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

		var body RequestResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal(created.ID, body.ID)
		s.Equal(models.StateRegistered, body.State)
	})

	s.Run("anonymous callers are rejected", func() {
		w := s.do(http.MethodPost, "/requests", `{"full_name":"Rosa"}`, "", "")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown fields are rejected", func() {
		w := s.do(http.MethodPost, "/requests", `{"full_name":"Rosa","color":"red"}`, "citizen-1", "")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing name fails validation", func() {
		w := s.do(http.MethodPost, "/requests", `{"full_name":"  "}`, "citizen-1", "")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RequestHandlerSuite) TestTransition() {
	req := s.sample(models.StateRegistered)
	path := "/requests/" + req.ID.String() + "/transitions"

	s.Run("passes target, role and metadata through", func() {
		moved := req.Clone()
		moved.State = models.StateDerivedToEditor
		s.service.EXPECT().Transition(gomock.Any(), service.TransitionCommand{
			RequestID: req.ID,
			Target:    models.StateDerivedToEditor,
			ActorID:   "mesa-1",
			ActorRole: models.RoleMesaDePartes,
			Note:      "assign",
			Metadata:  map[string]string{"editor_id": "editor-7"},
		}).Return(moved, nil)

		w := s.do(http.MethodPost, path, `{"target":"derived_to_editor","note":" assign ","metadata":{"editor_id":"editor-7"}}`, "mesa-1", "mesa_de_partes")
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("invalid transitions are conflicts with the allowed set", func() {
		s.service.EXPECT().Transition(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.NewInvalidTransition("REGISTERED", "DELIVERED", []string{"DERIVED_TO_EDITOR"}))

		w := s.do(http.MethodPost, path, `{"target":"DELIVERED"}`, "mesa-1", "MESA_DE_PARTES")
		s.Require().Equal(http.StatusConflict, w.Code)

		var body struct {
			Error   string                      `json:"error"`
			Details dErrors.TransitionRejection `json:"details"`
		}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("invalid_transition", body.Error)
		s.Equal([]string{"DERIVED_TO_EDITOR"}, body.Details.Allowed)
	})

	s.Run("unauthorized roles are forbidden", func() {
		s.service.EXPECT().Transition(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "role EDITOR may not move a request out of REGISTERED"))

		w := s.do(http.MethodPost, path, `{"target":"DERIVED_TO_EDITOR"}`, "editor-1", "EDITOR")
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("unknown targets never reach the service", func() {
		w := s.do(http.MethodPost, path, `{"target":"ARCHIVED"}`, "mesa-1", "MESA_DE_PARTES")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown roles never reach the service", func() {
		w := s.do(http.MethodPost, path, `{"target":"SEARCHING"}`, "mesa-1", "JANITOR")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("malformed ids are bad requests", func() {
		w := s.do(http.MethodPost, "/requests/not-a-uuid/transitions", `{"target":"SEARCHING"}`, "mesa-1", "EDITOR")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RequestHandlerSuite) TestCheck() {
	req := s.sample(models.StateSearching)
	s.service.EXPECT().CanTransition(gomock.Any(), req.ID, models.StatePaymentValidated, models.RoleEditor).
		Return(false, "cannot reach PAYMENT_VALIDATED without a linked payment", nil)

	w := s.do(http.MethodPost, "/requests/"+req.ID.String()+"/transitions/check", `{"target":"PAYMENT_VALIDATED"}`, "editor-1", "EDITOR")
	s.Require().Equal(http.StatusOK, w.Code)

	var body CheckResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.False(body.Allowed)
	s.Contains(body.Reason, "payment")
}

func (s *RequestHandlerSuite) TestTrackingIsPublic() {
	req := s.sample(models.StateSearching)
	s.service.EXPECT().GetByTrackingCode(gomock.Any(), "SIG-2024-ABCD1234").Return(req, nil)

	w := s.do(http.MethodGet, "/requests/tracking/SIG-2024-ABCD1234", "", "", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("SEARCHING", body["state"])
	_, leaked := body["applicant"]
	s.False(leaked)
}

func (s *RequestHandlerSuite) TestList() {
	s.Run("filters by state", func() {
		s.service.EXPECT().ListByState(gomock.Any(), models.StateSearching, 5).
			Return([]*models.Request{s.sample(models.StateSearching)}, nil)

		w := s.do(http.MethodGet, "/requests?state=searching&limit=5", "", "editor-1", "EDITOR")
		s.Require().Equal(http.StatusOK, w.Code)

		var body ListResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Len(body.Requests, 1)
	})

	s.Run("state is required", func() {
		w := s.do(http.MethodGet, "/requests", "", "editor-1", "EDITOR")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("limit must be positive", func() {
		w := s.do(http.MethodGet, "/requests?state=SEARCHING&limit=-1", "", "editor-1", "EDITOR")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RequestHandlerSuite) TestEditorQueue() {
	s.Run("lists the assigned requests", func() {
		s.service.EXPECT().ListByEditor(gomock.Any(), id.ActorID("editor-9"), 20).
			Return([]*models.Request{s.sample(models.StateDerivedToEditor), s.sample(models.StateSearching)}, nil)

		w := s.do(http.MethodGet, "/editors/editor-9/requests?limit=20", "", "editor-9", "EDITOR")
		s.Require().Equal(http.StatusOK, w.Code)
		var body ListResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Len(body.Requests, 2)
	})

	s.Run("limit must be positive", func() {
		w := s.do(http.MethodGet, "/editors/editor-9/requests?limit=0", "", "editor-9", "EDITOR")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RequestHandlerSuite) TestAllowed() {
	req := s.sample(models.StateRegistered)
	s.service.EXPECT().AllowedTransitions(gomock.Any(), req.ID, models.RoleMesaDePartes).
		Return([]models.State{models.StateDerivedToEditor}, nil)

	w := s.do(http.MethodGet, "/requests/"+req.ID.String()+"/allowed", "", "mesa-1", "MESA_DE_PARTES")
	s.Require().Equal(http.StatusOK, w.Code)

	var body AllowedResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal([]models.State{models.StateDerivedToEditor}, body.Allowed)
}

func (s *RequestHandlerSuite) TestLinkPayment() {
	req := s.sample(models.StateRecordFoundPendingPayment)
	paymentID := id.PaymentID(id.NewRequestID())
	path := "/requests/" + req.ID.String() + "/payment"

	s.Run("links a known payment", func() {
		linked := req.Clone()
		linked.PaymentID = &paymentID
		s.service.EXPECT().LinkPayment(gomock.Any(), req.ID, paymentID).Return(linked, nil)

		w := s.do(http.MethodPost, path, `{"id":"`+paymentID.String()+`"}`, "mesa-1", "MESA_DE_PARTES")
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("unknown payments are not found", func() {
		s.service.EXPECT().LinkPayment(gomock.Any(), req.ID, paymentID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "payment not found"))

		w := s.do(http.MethodPost, path, `{"id":"`+paymentID.String()+`"}`, "mesa-1", "MESA_DE_PARTES")
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed payment ids are bad requests", func() {
		w := s.do(http.MethodPost, path, `{"id":"nope"}`, "mesa-1", "MESA_DE_PARTES")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *RequestHandlerSuite) TestInternalErrorsHideDetail() {
	req := s.sample(models.StateRegistered)
	s.service.EXPECT().Get(gomock.Any(), req.ID).Return(nil, dErrors.New(dErrors.CodeInternal, "connection reset"))

	w := s.do(http.MethodGet, "/requests/"+req.ID.String(), "", "mesa-1", "MESA_DE_PARTES")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "connection reset")
}
