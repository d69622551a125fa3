package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lopsie/portfolio/internal/token"
)

type mockVerifier struct {
	verifyFunc func(tokenString string) (*token.Claims, error)
}

func (m *mockVerifier) Verify(tokenString string) (*token.Claims, error) {
	return m.verifyFunc(tokenString)
}

var _ TokenVerifier = (*mockVerifier)(nil)

func validClaims(subject string) *token.Claims {
	return &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            "a@example.com",
		Name:             "Alice",
	}
}

func TestAuthTokenMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(tokenString string) (*token.Claims, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return validClaims("user-1"), nil
		},
	}

	var gotUserID string
	handler := NewAuthTokenMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("UserIDFromContext returned error: %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-1")
	}
}

func TestAuthTokenMiddleware_MissingHeader_Returns401(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(tokenString string) (*token.Claims, error) {
			t.Error("Verify should not be called without a bearer token")
			return nil, nil
		},
	}

	handler := NewAuthTokenMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthTokenMiddleware_NonBearerHeader_Returns401(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(tokenString string) (*token.Claims, error) {
			t.Error("Verify should not be called for non-bearer header")
			return nil, nil
		},
	}

	handler := NewAuthTokenMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthTokenMiddleware_InvalidToken_Returns401(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(tokenString string) (*token.Claims, error) {
			return nil, errors.New("signature is invalid")
		},
	}

	handler := NewAuthTokenMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer tampered-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_Missing_ReturnsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for context without user ID")
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithUserID(req.Context(), "user-42")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext returned error: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want %q", userID, "user-42")
	}
}
