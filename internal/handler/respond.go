package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"clouddrive/internal/auth"
	"clouddrive/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP statuses. Internal errors are
// logged but never leak their cause to the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError

	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	}

	message := err.Error()
	if kind == domain.KindInternal {
		log.Error("request failed", "error", err)
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

// principal fetches the authenticated principal; the auth middleware
// guarantees it is present on every protected route.
func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
