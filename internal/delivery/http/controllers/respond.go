package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"corporateevents/internal/delivery/http/helpers"
	"corporateevents/internal/domain"
)

// writeInternalError logs err and writes a generic 500; internal details never reach the client.
func writeInternalError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
}

// writeValidationError writes a 422 when err carries field errors and reports whether it did.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	helpers.WriteValidationError(w, "Verifique os campos destacados.", verr.Fields)
	return true
}
