package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clouddrive/internal/domain"
)

func TestWriteError_StatusMapping(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		err    error
		status int
	}{
		{domain.ValidationError("bad input"), http.StatusBadRequest},
		{domain.NotFoundError("folder not found"), http.StatusNotFound},
		{domain.ConflictError("name taken"), http.StatusConflict},
		{domain.UnauthorizedError("invalid credentials"), http.StatusUnauthorized},
		{domain.InternalError("db down", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, log, tc.err)
		assert.Equalf(t, tc.status, rec.Code, "error %v", tc.err)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	writeError(rec, log, domain.InternalError("query failed", errors.New("pq: connection refused")))

	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal server error", body.Error)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
