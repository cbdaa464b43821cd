package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func testClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "tenant-1",
		Scopes:   []string{"chat"},
	}
}

func expiredClaims() Claims {
	c := testClaims()
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	return c
}

func TestAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "malformed token", header: "Bearer not-a-jwt"},
		{name: "wrong signing key", header: "Bearer " + signToken(t, "other-secret", testClaims())},
		{name: "expired token", header: "Bearer " + signToken(t, testSecret, expiredClaims())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("next handler must not run")
			}
		})
	}
}

func TestAuthClaimsInContext(t *testing.T) {
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if got := GetUserID(ctx); got != "user-1" {
			t.Errorf("GetUserID = %q", got)
		}
		if got := GetTenantID(ctx); got != "tenant-1" {
			t.Errorf("GetTenantID = %q", got)
		}
		if got := GetScopes(ctx); len(got) != 1 || got[0] != "chat" {
			t.Errorf("GetScopes = %v", got)
		}
		if !HasScope(ctx, "chat") {
			t.Error("HasScope(chat) = false")
		}
		if HasScope(ctx, "admin") {
			t.Error("HasScope(admin) = true")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, testClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRequireScope(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := Auth(testSecret)(RequireScope("chat")(next))

	do := func(claims Claims) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(testClaims()); code != http.StatusOK {
		t.Errorf("with scope: status = %d, want 200", code)
	}

	noScope := testClaims()
	noScope.Scopes = []string{"read"}
	if code := do(noScope); code != http.StatusForbidden {
		t.Errorf("without scope: status = %d, want 403", code)
	}
}
