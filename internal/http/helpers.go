package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	"github.com/Tcordeir0/vpsurge-fin/internal/dashboard"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
	"github.com/Tcordeir0/vpsurge-fin/internal/vps"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

// writeError maps the error taxonomy onto status codes: missing auth is 401,
// unknown ids are 404, backend failures are 502, everything that failed
// validation is 422.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var remote *dashboard.RemoteError

	switch {
	case errors.Is(err, dashboard.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, vps.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &remote):
		slog.ErrorContext(r.Context(), "Backend call failed",
			"url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "backend unavailable"})
	case isValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrUnknownKind) ||
		errors.Is(err, core.ErrSignMismatch) ||
		errors.Is(err, core.ErrEmptyOwner) ||
		errors.Is(err, core.ErrPartialAmountChange) ||
		errors.Is(err, errBadRequest)
}

// errBadRequest marks client-side input problems raised inside handlers.
var errBadRequest = errors.New("invalid request")

func badRequestf(msg string) error {
	return &badRequestError{msg: msg}
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Is(target error) bool {
	return target == errBadRequest
}

// sanitizeInput trims whitespace and strips control characters except tab,
// newline, and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
