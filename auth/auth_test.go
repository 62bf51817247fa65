package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(42, "budi", RoleMahasiswa, secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	user, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.UserID != 42 || user.Username != "budi" || user.Role != RoleMahasiswa {
		t.Fatalf("got %+v", user)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(1, "x", RoleAdmin, []byte("a"), time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateToken(token, []byte("b")); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := RequireAuth([]byte("s"), zap.NewNop())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/checks", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	secret := []byte("s")
	token, err := GenerateToken(1, "budi", RoleMahasiswa, secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	mw := RequireRole(secret, []string{RoleAdmin}, zap.NewNop())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a non-admin")
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/params", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestJWTMiddleware_SetsContext(t *testing.T) {
	secret := []byte("s")
	token, err := GenerateToken(9, "sari", RoleDosen, secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	mw := RequireAuth(secret, zap.NewNop())
	var seen *UserContext
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/checks/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if seen == nil || seen.UserID != 9 || seen.Role != RoleDosen {
		t.Fatalf("context user %+v", seen)
	}
}
