package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError maps domain errors to a status and a stable error code.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr *domain.ValidationError
		pErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		writeErrorCode(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, domain.ErrSurveyNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrDuplicateCode):
		writeErrorCode(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.As(err, &pErr):
		writeErrorCode(w, http.StatusServiceUnavailable, "persistence_error", "failed to "+pErr.Op)
	case errors.Is(err, domain.ErrPersistence):
		writeErrorCode(w, http.StatusServiceUnavailable, "persistence_error", "the store rejected the write")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal_error", domain.ErrInternal.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "is not valid JSON")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "is not a valid id")
	}
	return id, nil
}
