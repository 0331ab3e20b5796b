package authapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsboard/cmd/internal/auth/token"
)

func protectedMux(t *testing.T, accessTTL time.Duration) (*http.ServeMux, *token.Manager) {
	t.Helper()

	mux, mgr := newTestServer(t, accessTTL)

	guard := RequireAuth(mgr, nil)
	mux.Handle("GET /protected", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			t.Error("no claims in context")
		}
		if claims.UserID == 0 {
			t.Error("zero user id in claims")
		}
		w.WriteHeader(http.StatusOK)
	})))
	return mux, mgr
}

func getWithToken(mux *http.ServeMux, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthMissingToken(t *testing.T) {
	mux, _ := protectedMux(t, 0)

	if rec := getWithToken(mux, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	mux, mgr := protectedMux(t, 0)

	signed, _, err := mgr.IssueAccess(token.Claims{UserID: 5}, time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if rec := getWithToken(mux, signed); rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
}

func TestRequireAuthExpiredTokenBody(t *testing.T) {
	mux, mgr := protectedMux(t, -time.Minute)

	signed, _, err := mgr.IssueAccess(token.Claims{UserID: 5}, time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	rec := getWithToken(mux, signed)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TokenExpired") {
		t.Fatalf("expired body not distinguishable: %s", rec.Body)
	}
}

func TestRequireAuthGarbageToken(t *testing.T) {
	mux, _ := protectedMux(t, 0)

	rec := getWithToken(mux, "garbage")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid token") {
		t.Fatalf("unexpected body: %s", rec.Body)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer abc":     "abc",
		"bearer abc":     "abc",
		"Basic abc":      "",
		"Bearer":         "",
		"Bearer  spaced": "spaced",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
