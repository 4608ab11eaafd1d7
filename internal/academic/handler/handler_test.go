package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigcerh/internal/academic/models"
	"sigcerh/internal/academic/service"
	"sigcerh/internal/academic/store"
	"sigcerh/internal/platform/middleware"
	"sigcerh/pkg/platform/tx"
)

func newRouter(t *testing.T) (chi.Router, *store.InMemory) {
	t.Helper()
	st := store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(st, tx.NewMemoryRunner(st), service.WithLogger(logger), service.WithInstitution("IE-001"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.Actor)
	New(svc, logger).Register(r)
	return r, st
}

func call(r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.HeaderActorID, "admin-1")
	req.Header.Set(middleware.HeaderActorRole, "ADMIN")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCurriculumEndpoints(t *testing.T) {
	r, st := newRouter(t)
	_, err := store.SeedHistoricalAreas(context.Background(), st, "IE-001")
	require.NoError(t, err)

	w := call(r, http.MethodGet, "/areas", "")
	require.Equal(t, http.StatusOK, w.Code)
	var areas AreasResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &areas))
	require.Len(t, areas.Areas, 12)

	t.Run("missing template falls back to the catalog", func(t *testing.T) {
		w := call(r, http.MethodGet, "/curriculum/1990/1", "")
		require.Equal(t, http.StatusOK, w.Code)
		var cur models.Curriculum
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cur))
		assert.True(t, cur.Fallback)
		assert.Len(t, cur.Areas, 12)
	})

	t.Run("template replaces the fallback", func(t *testing.T) {
		body := `{"area_ids":["` + areas.Areas[1].ID.String() + `","` + areas.Areas[0].ID.String() + `"]}`
		w := call(r, http.MethodPut, "/curriculum/1990/1", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var cur models.Curriculum
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cur))
		assert.False(t, cur.Fallback)
		require.Len(t, cur.Areas, 2)
		assert.Equal(t, "COM", cur.Areas[0].Code)
	})

	t.Run("malformed area ids", func(t *testing.T) {
		w := call(r, http.MethodPut, "/curriculum/1990/1", `{"area_ids":["x"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric grade", func(t *testing.T) {
		w := call(r, http.MethodGet, "/curriculum/1990/first", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateAreaEndpoint(t *testing.T) {
	r, _ := newRouter(t)

	w := call(r, http.MethodPost, "/areas", `{"code":"lat","name":"Latín","position":13}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/areas", `{"code":"LAT","name":"Latín","position":13}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodPost, "/areas", `{"code":"","name":"x","position":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentEndpoints(t *testing.T) {
	r, _ := newRouter(t)

	w := call(r, http.MethodGet, "/students?national_id=40000000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodGet, "/students/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
