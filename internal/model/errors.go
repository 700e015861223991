package model

import "fmt"

// APIError is the unified error format returned to API clients.
// It carries a cause category and a hint on what the caller can do next.
type APIError struct {
	Code     string // machine readable error code
	Message  string // human readable message
	Category string // auth, validation, note, system
	Action   string // what the user can do about it
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Predefined error codes.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNoteNotFound       = "NOTE_NOT_FOUND"
	ErrCodeRouteNotFound      = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Messages returned by the auth gate. They match what existing clients expect.
const (
	MsgNoToken     = "Not authorized, no token"
	MsgTokenFailed = "Not authorized, token failed"
)

// NewValidationError wraps a field validation message.
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Fix the highlighted field and try again.",
	}
}

// NewInvalidRequestError is returned when the request body cannot be decoded.
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request body: %s", reason),
		Category: "validation",
		Action:   "Send a valid JSON object.",
	}
}

// NewInvalidDateError is returned when a date query parameter cannot be parsed.
func NewInvalidDateError(param, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("Invalid date for %s: %q", param, value),
		Category: "validation",
		Action:   "Use the YYYY-MM-DD or RFC 3339 format.",
	}
}

// NewUnauthorizedError is returned by the auth gate.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  message,
		Category: "auth",
		Action:   "Log in and send the token as 'Authorization: Bearer <token>'.",
	}
}

// NewUserAlreadyExistsError is returned when registering a taken email.
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User already exists",
		Category: "auth",
		Action:   "Log in instead, or register with another email.",
	}
}

// NewUserNotFoundError is returned when no user matches the login email.
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Check the email or register first.",
	}
}

// NewInvalidCredentialsError is returned when the password does not match.
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check the password and try again.",
	}
}

// NewNoteNotFoundError is returned when a note does not exist or belongs to someone else.
func NewNoteNotFoundError(noteID string) *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  "Note not found",
		Category: "note",
		Action:   fmt.Sprintf("Check the note ID: %s", noteID),
	}
}

// NewRouteNotFoundError is returned for paths no route matches.
func NewRouteNotFoundError(path string) *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  fmt.Sprintf("Route not found: %s", path),
		Category: "system",
		Action:   "Check the request path.",
	}
}

// NewMethodNotAllowedError is returned when the path exists but not for the method.
func NewMethodNotAllowedError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  fmt.Sprintf("Method %s not allowed", method),
		Category: "system",
		Action:   "Check the request method.",
	}
}

// NewRateLimitError is returned when a client exceeds its request budget.
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Wait for the time given in Retry-After and retry.",
	}
}

// NewInternalError is the generic server error. Details go to the log only.
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Server error",
		Category: "system",
		Action:   "Please try again later.",
	}
}
