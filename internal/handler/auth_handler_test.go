package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/notesapi/internal/auth"
	"github.com/hitoshi/notesapi/internal/middleware"
	"github.com/hitoshi/notesapi/internal/model"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
			got = in
			return &auth.AuthResult{
				User:  &model.User{ID: "u1", Name: in.Name, Email: in.Email, PasswordHash: "secret-hash"},
				Token: "tok",
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret1"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got.Name != "Alice" || got.Email != "alice@example.com" || got.Password != "secret1" {
		t.Errorf("service input = %+v", got)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("response leaks password hash")
	}

	var body authResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Message != "User registered successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if body.User.ID != "u1" || body.User.Email != "alice@example.com" || body.Token != "tok" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", `{"name":"a","email":"a@b.co","password":"secret1"}`, model.NewUserAlreadyExistsError(), http.StatusBadRequest, model.ErrCodeUserAlreadyExists},
		{"validation", `{"name":"a"}`, model.NewValidationError(`"email" is required`), http.StatusBadRequest, model.ErrCodeValidation},
		{"unknown field", `{"name":"a","role":"admin"}`, nil, http.StatusBadRequest, model.ErrCodeValidation},
		{"malformed json", `{"name":`, nil, http.StatusBadRequest, model.ErrCodeInvalidRequest},
		{"wrong type", `{"name":5}`, nil, http.StatusBadRequest, model.ErrCodeValidation},
		{"store failure", `{"name":"a","email":"a@b.co","password":"secret1"}`, errors.New("db down"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				registerFn: func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
					return nil, tt.svcErr
				},
			}
			w := httptest.NewRecorder()
			NewAuthHandler(svc).Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body middleware.ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

func TestAuthHandler_Register_UnknownFieldMessage(t *testing.T) {
	w := httptest.NewRecorder()
	NewAuthHandler(&mockAuthService{}).Register(w, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"a","role":"admin"}`)))

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Message != `"role" is not allowed` {
		t.Errorf("message = %q, want %q", body.Message, `"role" is not allowed`)
	}
}

func TestAuthHandler_Register_EmptyBodyReachesValidation(t *testing.T) {
	called := false
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
			called = true
			return nil, model.NewValidationError(`"name" is required`)
		},
	}
	w := httptest.NewRecorder()
	NewAuthHandler(svc).Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", http.NoBody))

	if !called {
		t.Error("empty body should be validated by the service")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"unknown email", model.NewUserNotFoundError(), http.StatusNotFound},
		{"wrong password", model.NewInvalidCredentialsError(), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error) {
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &auth.AuthResult{User: &model.User{ID: "u1", Name: "A", Email: in.Email}, Token: "tok"}, nil
				},
			}
			w := httptest.NewRecorder()
			NewAuthHandler(svc).Login(w, httptest.NewRequest(http.MethodPost, "/auth/login",
				strings.NewReader(`{"email":"a@b.co","password":"secret1"}`)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.svcErr == nil {
				var body authResponse
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode: %v", err)
				}
				if body.Message != "Login successful" || body.Token != "tok" {
					t.Errorf("body = %+v", body)
				}
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: "u1", Name: "Alice", Email: "a@b.co"}))
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body userResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body != (userResponse{ID: "u1", Name: "Alice", Email: "a@b.co"}) {
		t.Errorf("body = %+v", body)
	}

	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without user: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
