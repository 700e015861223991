package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_ErrorFormat(t *testing.T) {
	err := NewNoteNotFoundError("note-1")
	if got, want := err.Error(), "[NOTE_NOT_FOUND] Note not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAPIError_UnwrapsThroughFmtErrorf(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", NewUserAlreadyExistsError())

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("expected errors.As to find *APIError")
	}
	if apiErr.Code != ErrCodeUserAlreadyExists {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeUserAlreadyExists)
	}
}

func TestConstructors_SetCodeAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		code     string
		category string
	}{
		{"validation", NewValidationError(`"title" is required`), ErrCodeValidation, "validation"},
		{"invalid request", NewInvalidRequestError("EOF"), ErrCodeInvalidRequest, "validation"},
		{"invalid date", NewInvalidDateError("fromDate", "yesterday"), ErrCodeInvalidDate, "validation"},
		{"unauthorized", NewUnauthorizedError(MsgNoToken), ErrCodeUnauthorized, "auth"},
		{"user exists", NewUserAlreadyExistsError(), ErrCodeUserAlreadyExists, "auth"},
		{"user not found", NewUserNotFoundError(), ErrCodeUserNotFound, "auth"},
		{"route not found", NewRouteNotFoundError("/nope"), ErrCodeRouteNotFound, "system"},
		{"method not allowed", NewMethodNotAllowedError("PATCH"), ErrCodeMethodNotAllowed, "system"},
		{"invalid credentials", NewInvalidCredentialsError(), ErrCodeInvalidCredentials, "auth"},
		{"note not found", NewNoteNotFoundError("x"), ErrCodeNoteNotFound, "note"},
		{"rate limit", NewRateLimitError(), ErrCodeRateLimitExceeded, "system"},
		{"internal", NewInternalError(), ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Category = %q, want %q", tt.err.Category, tt.category)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
			if tt.err.Action == "" {
				t.Error("Action should not be empty")
			}
		})
	}
}

func TestNewInternalError_DoesNotLeakDetail(t *testing.T) {
	if got := NewInternalError().Message; got != "Server error" {
		t.Errorf("Message = %q, want %q", got, "Server error")
	}
}
