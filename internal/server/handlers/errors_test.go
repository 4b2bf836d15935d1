package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/library"
)

func TestWriteErrorResponse_APIError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   dto.ErrorCode
		expectedMsg    string
	}{
		{
			name:           "not found error",
			err:            dto.NotFound("book"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrorCodeNotFound,
			expectedMsg:    "book not found",
		},
		{
			name:           "bad request error",
			err:            dto.BadRequest("invalid input"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidationFailed,
			expectedMsg:    "invalid input",
		},
		{
			name:           "unauthorized error",
			err:            dto.Unauthorized(),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   dto.ErrorCodeUnauthorized,
			expectedMsg:    "Unauthorized",
		},
		{
			name:           "forbidden error",
			err:            dto.Forbidden("access denied"),
			expectedStatus: http.StatusForbidden,
			expectedCode:   dto.ErrorCodeForbidden,
			expectedMsg:    "access denied",
		},
		{
			name:           "internal error",
			err:            dto.Internal("server error"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrorCodeInternal,
			expectedMsg:    "server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeErrorResponse(w, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("status code = %d, want %d", w.Code, tt.expectedStatus)
			}

			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("Content-Type = %q, want %q", contentType, "application/json")
			}

			var resp dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if resp.Error.Code != tt.expectedCode {
				t.Errorf("error code = %q, want %q", resp.Error.Code, tt.expectedCode)
			}
			if resp.Error.Message != tt.expectedMsg {
				t.Errorf("error message = %q, want %q", resp.Error.Message, tt.expectedMsg)
			}
		})
	}
}

func TestWriteErrorResponse_GenericError(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.New("some random error")
	writeErrorResponse(w, err)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error.Code != dto.ErrorCodeInternal {
		t.Errorf("error code = %q, want %q", resp.Error.Code, dto.ErrorCodeInternal)
	}
	if resp.Error.Message != "internal error" {
		t.Errorf("error message = %q, want %q", resp.Error.Message, "internal error")
	}
}

func TestWriteErrorResponse_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := dto.BadRequest("validation failed").
		WithDetails(map[string]any{"field": "title", "reason": "invalid format"})
	writeErrorResponse(w, err)

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Details == nil {
		t.Fatal("expected details to be non-nil")
	}
	if resp.Details["field"] != "title" {
		t.Errorf("details[field] = %v, want %q", resp.Details["field"], "title")
	}
	if resp.Details["reason"] != "invalid format" {
		t.Errorf("details[reason] = %v, want %q", resp.Details["reason"], "invalid format")
	}
}

func TestMapLibraryError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   dto.ErrorCode
	}{
		{
			name:           "validation error",
			err:            &library.ValidationError{Field: "pages", Reason: "must be positive"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrorCodeValidationFailed,
		},
		{
			name:           "not found",
			err:            library.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrorCodeNotFound,
		},
		{
			name:           "duplicate title",
			err:            library.ErrDuplicateTitle,
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrorCodeDuplicate,
		},
		{
			name:           "unknown error",
			err:            errors.New("disk on fire"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapLibraryError(tt.err, "fallback")
			var ews dto.ErrorWithStatus
			if !errors.As(mapped, &ews) {
				t.Fatalf("mapped error %v does not carry a status", mapped)
			}
			if ews.StatusCode() != tt.expectedStatus {
				t.Errorf("status = %d, want %d", ews.StatusCode(), tt.expectedStatus)
			}
			if ews.Code() != tt.expectedCode {
				t.Errorf("code = %q, want %q", ews.Code(), tt.expectedCode)
			}
		})
	}
}
