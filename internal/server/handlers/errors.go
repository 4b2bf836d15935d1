// Provides helper functions for writing error responses.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// mapLibraryError converts storage layer errors to API errors.
// The fallback wraps unknown errors as internal errors.
func mapLibraryError(err error, fallback string) error {
	var verr *library.ValidationError
	switch {
	case errors.As(err, &verr):
		return dto.BadRequest(verr.Error())
	case errors.Is(err, library.ErrNotFound):
		return dto.NotFound("book")
	case errors.Is(err, library.ErrDuplicateTitle):
		return dto.Duplicate(err.Error())
	case errors.Is(err, library.ErrSessionQuotaExceeded):
		return dto.NewAPIError(http.StatusConflict, dto.ErrorCodeDuplicate, err.Error())
	}
	return dto.InternalWithError(fallback, err)
}

// writeErrorResponse writes an APIError as a JSON response.
// Use this in raw http.HandlerFunc handlers that don't use server.Wrap.
func writeErrorResponse(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorCode := dto.ErrorCodeInternal
	message := "internal error"
	var details map[string]any

	var ewsErr dto.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
		message = ewsErr.Error()
		details = ewsErr.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := dto.ErrorResponse{
		Error: dto.ErrorDetails{
			Code:    errorCode,
			Message: message,
		},
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
