package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// shape for successes and one for failures.
//
// CONSISTENT ERROR FORMAT:
// Every error response has the same shape:
//   {"error": "not_found", "message": "Participante não encontrado"}
//
// "error" is a stable machine-readable code; "message" is Portuguese text
// the frontend can show as is.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/queridometro/internal/apperror"
)

// maxBodyBytes bounds request bodies. Photos and logos travel inline as
// data URLs, so this sits above service.MaxImageBytes.
const maxBodyBytes = 4 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
	Field   string `json:"field,omitempty"`
}

// okResponse is the body of mutations that return nothing else.
var okResponse = map[string]bool{"ok": true}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set BEFORE the body is written; once Encode
// writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation, ErrDuplicateVote → 400
//	ErrUnauthorized                 → 401
//	ErrForbidden                    → 403
//	ErrNotFound                     → 404
//	ErrConflict                     → 409
//	anything else                   → 500, logged, generic message
//
// errors.Is walks the whole chain, so a service error wrapped with
// fmt.Errorf("...: %w") still maps to its status.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code := http.StatusInternalServerError, "internal_error"
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, code = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrDuplicateVote):
			status, code = http.StatusBadRequest, "duplicate_vote"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, code = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, code = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, code = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, code = http.StatusConflict, "conflict"
		}
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message, Field: appErr.Field})
			return
		}
	}

	// NEVER expose internal error details to the client: the raw message may
	// contain file paths.
	logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Erro interno. Tente novamente.",
	})
}

// decodeJSON reads the request body into dst.
//
// An empty, oversized or malformed body becomes a validation error so the
// caller can hand it straight to writeError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("", "Corpo da requisição muito grande")
		}
		return apperror.ValidationFailed("", "JSON inválido")
	}
	return nil
}

// pathID parses the {id} URL parameter.
//
// Chi stores URL parameters in the request context; chi.URLParam reads them
// back. For DELETE /api/emojis/7, chi.URLParam(r, "id") returns "7".
func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "ID inválido")
	}
	return id, nil
}

// flexInt accepts 5 as well as "5", which is what browser forms tend to send.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("handler: not an integer: %s", data)
	}
	*n = flexInt(v)
	return nil
}
