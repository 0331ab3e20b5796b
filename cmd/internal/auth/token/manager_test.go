package token

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = "test-access-secret"
	cfg.RefreshSecret = "test-refresh-secret"
	cfg.FallbackSecrets = false
	return cfg
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	role := int64(2)
	in := Claims{UserID: 42, Firstname: "Ada", Email: "ada@example.com", RoleID: &role}

	signed, exp, err := m.IssueAccess(in, time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if signed == "" {
		t.Fatal("IssueAccess returned empty token")
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", exp)
	}

	out, err := m.VerifyAccess(signed)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if out.UserID != in.UserID || out.Firstname != in.Firstname || out.Email != in.Email {
		t.Fatalf("claims mismatch: got %+v want %+v", out, in)
	}
	if out.RoleID == nil || *out.RoleID != role {
		t.Fatalf("role claim mismatch: got %v", out.RoleID)
	}
}

func TestExpiredAccessTokenIsDistinguishable(t *testing.T) {
	m := newTestManager(t)

	signed, _, err := m.issueAccessTTL(Claims{UserID: 7}, -time.Minute, time.Now())
	if err != nil {
		t.Fatalf("issueAccessTTL: %v", err)
	}

	_, err = m.VerifyAccess(signed)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	m := newTestManager(t)

	other := testConfig()
	other.AccessSecret = "some-other-secret"
	m2, err := NewManager(other, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	signed, _, err := m2.IssueAccess(Claims{UserID: 7}, time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := m.VerifyAccess(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestMalformedToken(t *testing.T) {
	m := newTestManager(t)

	for _, tok := range []string{"", "   ", "not-a-token", "a.b"} {
		if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("VerifyAccess(%q): want ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	signed, exp, err := m.IssueRefresh(99, time.Now())
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if !exp.After(time.Now().Add(m.RefreshTTL() - time.Minute)) {
		t.Fatalf("refresh expiry too close: %v", exp)
	}

	id, err := m.VerifyRefresh(signed)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if id != 99 {
		t.Fatalf("user id mismatch: got %d", id)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := newTestManager(t)

	access, _, err := m.IssueAccess(Claims{UserID: 1}, time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := m.IssueRefresh(1, time.Now())
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := m.VerifyRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token verified as refresh: %v", err)
	}
	if _, err := m.VerifyAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token verified as access: %v", err)
	}
}

func TestNewManagerRejectsSharedSecret(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret

	if _, err := NewManager(cfg, nil); !errors.Is(err, ErrConfig) {
		t.Fatalf("want ErrConfig, got %v", err)
	}
}
