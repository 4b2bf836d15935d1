package dto

import (
	"errors"
	"net/http"
	"testing"
)

func TestAPIError(t *testing.T) {
	t.Run("NewAPIError", func(t *testing.T) {
		err := NewAPIError(http.StatusNotFound, ErrorCodeNotFound, "resource not found")
		if err.StatusCode() != http.StatusNotFound {
			t.Errorf("Expected status code %d, got %d", http.StatusNotFound, err.StatusCode())
		}
		if err.Code() != ErrorCodeNotFound {
			t.Errorf("Expected code %s, got %s", ErrorCodeNotFound, err.Code())
		}
		if err.Error() != "resource not found" {
			t.Errorf("Expected message 'resource not found', got '%s'", err.Error())
		}
		if err.Details() == nil {
			t.Error("Expected Details() to return non-nil map")
		}
	})
	t.Run("WithDetails", func(t *testing.T) {
		t.Run("adds details", func(t *testing.T) {
			err := NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, "validation failed").
				WithDetails(map[string]any{"field": "email", "reason": "invalid format"})
			if err.Details()["field"] != "email" {
				t.Errorf("Expected field 'email', got %v", err.Details()["field"])
			}
			if err.Details()["reason"] != "invalid format" {
				t.Errorf("Expected reason 'invalid format', got %v", err.Details()["reason"])
			}
		})
		t.Run("initializes nil map", func(t *testing.T) {
			err := (&APIError{
				statusCode: http.StatusBadRequest,
				code:       ErrorCodeValidationFailed,
				message:    "test",
				details:    nil,
			}).WithDetails(map[string]any{"key": "value"})
			if err.Details()["key"] != "value" {
				t.Error("Expected WithDetails to initialize nil map")
			}
		})
	})
	t.Run("WithDetail", func(t *testing.T) {
		t.Run("adds single detail", func(t *testing.T) {
			err := NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, "validation failed").
				WithDetail("field", "username")
			if err.Details()["field"] != "username" {
				t.Errorf("Expected field 'username', got %v", err.Details()["field"])
			}
		})
		t.Run("initializes nil map", func(t *testing.T) {
			err := (&APIError{
				statusCode: http.StatusBadRequest,
				code:       ErrorCodeValidationFailed,
				message:    "test",
				details:    nil,
			}).WithDetail("key", "value")
			if err.Details()["key"] != "value" {
				t.Error("Expected WithDetail to initialize nil map")
			}
		})
	})
	t.Run("Wrap", func(t *testing.T) {
		origErr := errors.New("original error")
		err := NewAPIError(http.StatusInternalServerError, ErrorCodeInternal, "wrapped error").Wrap(origErr)
		if err.Unwrap() != origErr {
			t.Error("Expected Unwrap() to return the original error")
		}
		if err.Error() != "wrapped error: original error" {
			t.Errorf("Expected error message 'wrapped error: original error', got '%s'", err.Error())
		}
	})
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := NotFound("page")
		if err.StatusCode() != http.StatusNotFound {
			t.Errorf("Expected status code %d, got %d", http.StatusNotFound, err.StatusCode())
		}
		if err.Code() != ErrorCodeNotFound {
			t.Errorf("Expected code %s, got %s", ErrorCodeNotFound, err.Code())
		}
		if err.Error() != "page not found" {
			t.Errorf("Expected message 'page not found', got '%s'", err.Error())
		}
	})
	t.Run("BadRequest", func(t *testing.T) {
		err := BadRequest("invalid input")
		if err.StatusCode() != http.StatusBadRequest {
			t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, err.StatusCode())
		}
		if err.Code() != ErrorCodeValidationFailed {
			t.Errorf("Expected code %s, got %s", ErrorCodeValidationFailed, err.Code())
		}
		if err.Error() != "invalid input" {
			t.Errorf("Expected message 'invalid input', got '%s'", err.Error())
		}
	})
	t.Run("MissingField", func(t *testing.T) {
		err := MissingField("email")
		if err.StatusCode() != http.StatusBadRequest {
			t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, err.StatusCode())
		}
		if err.Code() != ErrorCodeMissingField {
			t.Errorf("Expected code %s, got %s", ErrorCodeMissingField, err.Code())
		}
		if err.Error() != "Missing required field: email" {
			t.Errorf("Expected message 'Missing required field: email', got '%s'", err.Error())
		}
	})
	t.Run("Forbidden", func(t *testing.T) {
		err, ok := Forbidden("access denied").(*APIError)
		if !ok {
			t.Fatal("Expected Forbidden to return *APIError")
		}
		if err.StatusCode() != http.StatusForbidden {
			t.Errorf("Expected status code %d, got %d", http.StatusForbidden, err.StatusCode())
		}
		if err.Code() != ErrorCodeForbidden {
			t.Errorf("Expected code %s, got %s", ErrorCodeForbidden, err.Code())
		}
	})
	t.Run("Unauthorized", func(t *testing.T) {
		err, ok := Unauthorized().(*APIError)
		if !ok {
			t.Fatal("Expected Unauthorized to return *APIError")
		}
		if err.StatusCode() != http.StatusUnauthorized {
			t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, err.StatusCode())
		}
		if err.Code() != ErrorCodeUnauthorized {
			t.Errorf("Expected code %s, got %s", ErrorCodeUnauthorized, err.Code())
		}
	})
	t.Run("Internal", func(t *testing.T) {
		err := Internal("server error")
		if err.StatusCode() != http.StatusInternalServerError {
			t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, err.StatusCode())
		}
		if err.Code() != ErrorCodeInternal {
			t.Errorf("Expected code %s, got %s", ErrorCodeInternal, err.Code())
		}
	})
	t.Run("InternalWithError", func(t *testing.T) {
		origErr := errors.New("database connection failed")
		err := InternalWithError("failed to fetch data", origErr)
		if err.StatusCode() != http.StatusInternalServerError {
			t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, err.StatusCode())
		}
		if err.Unwrap() != origErr {
			t.Error("Expected InternalWithError to wrap the original error")
		}
	})
	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate("title already in catalog")
		if err.StatusCode() != http.StatusConflict {
			t.Errorf("Expected status code %d, got %d", http.StatusConflict, err.StatusCode())
		}
		if err.Code() != ErrorCodeDuplicate {
			t.Errorf("Expected code %s, got %s", ErrorCodeDuplicate, err.Code())
		}
	})
	t.Run("PayloadTooLarge", func(t *testing.T) {
		err := PayloadTooLarge(1024)
		if err.StatusCode() != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected status code %d, got %d", http.StatusRequestEntityTooLarge, err.StatusCode())
		}
		if err.Code() != ErrorCodePayloadTooLarge {
			t.Errorf("Expected code %s, got %s", ErrorCodePayloadTooLarge, err.Code())
		}
		if err.Details()["limit_bytes"] != int64(1024) {
			t.Errorf("Expected limit_bytes detail, got %v", err.Details()["limit_bytes"])
		}
	})
}
