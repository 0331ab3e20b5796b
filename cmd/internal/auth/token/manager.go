// Package token issues and verifies the signed credentials of Opsboard:
// short-lived access tokens carrying identity claims and longer-lived
// refresh tokens carrying only the owning user id.
package token

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity envelope embedded in access tokens.
// It is reconstructed from the token payload on every verification and
// never persisted.
type Claims struct {
	UserID    int64  `json:"id"`
	Firstname string `json:"firstname,omitempty"`
	Email     string `json:"email,omitempty"`
	RoleID    *int64 `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the user id, like the source system's refresh tokens.
type refreshClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access/refresh tokens (HS256).
type Manager struct {
	cfg Config
}

// NewManager constructs a Manager. If the config carries the development
// fallback secrets, an explicit warning is logged; the fallback is never
// used silently.
func NewManager(cfg Config, log *slog.Logger) (*Manager, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" || strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, ErrConfig
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrConfig
	}

	if cfg.FallbackSecrets && log != nil {
		log.Warn("auth.token.fallback_secret",
			"detail", "OPSBOARD_JWT_SECRET / OPSBOARD_JWT_REFRESH_SECRET not set; using built-in dev secrets, unsafe for production")
	}

	return &Manager{cfg: cfg}, nil
}

// AccessTTL exposes the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL exposes the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess mints a signed access token for the given claims.
func (m *Manager) IssueAccess(c Claims, now time.Time) (string, time.Time, error) {
	return m.issueAccessTTL(c, m.cfg.AccessTTL, now)
}

// issueAccessTTL exists so expiry behavior is testable with arbitrary TTLs.
func (m *Manager) issueAccessTTL(c Claims, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(ttl)

	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(m.cfg.AccessSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh mints a signed refresh token for a user id.
// The caller persists the token string; access tokens are never persisted.
func (m *Manager) IssueRefresh(userID int64, now time.Time) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(m.cfg.RefreshTTL)

	c := refreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(m.cfg.RefreshSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess validates an access token and returns its claims.
// The rejection taxonomy is three-way and stable: ErrTokenMalformed,
// ErrTokenExpired (so callers can prompt a refresh), ErrTokenInvalid.
func (m *Manager) VerifyAccess(tokenStr string) (Claims, error) {
	var c Claims
	if err := m.verify(tokenStr, m.cfg.AccessSecret, &c); err != nil {
		return Claims{}, err
	}
	if c.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

// VerifyRefresh validates a refresh token and returns the owning user id.
func (m *Manager) VerifyRefresh(tokenStr string) (int64, error) {
	var c refreshClaims
	if err := m.verify(tokenStr, m.cfg.RefreshSecret, &c); err != nil {
		return 0, err
	}
	if c.UserID == 0 {
		return 0, ErrTokenInvalid
	}
	return c.UserID, nil
}

func (m *Manager) verify(tokenStr, secret string, dst jwt.Claims) error {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return ErrTokenMalformed
	}

	_, err := jwt.ParseWithClaims(tokenStr, dst, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(m.cfg.Issuer))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
