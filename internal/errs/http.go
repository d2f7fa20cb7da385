package errs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Status maps an error to an HTTP status and a short code.
func Status(err error) (int, string, string) {
	var (
		notFound     *NotFoundError
		validation   *ValidationError
		unauthorized *UnauthorizedError
		forbidden    *ForbiddenError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found", notFound.Message
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_input", validation.Message
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, "unauthorized", unauthorized.Message
	case errors.As(err, &forbidden):
		return http.StatusForbidden, "forbidden", forbidden.Message
	default:
		return http.StatusInternalServerError, "internal_error", "An unexpected error occurred"
	}
}

// Write sends a JSON error body.
func Write(log *slog.Logger, w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
	if log != nil {
		log.Error(message, "code", code, "status", status)
	}
}

// HandleError writes err with its mapped status.
func HandleError(log *slog.Logger, w http.ResponseWriter, err error) {
	status, code, message := Status(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", "error", err)
	}
	Write(log, w, status, code, message)
}
