package session

import (
	"context"
	"time"
)

// RefreshToken is a persisted refresh credential. The token string itself is
// stored verbatim; presenting a token that has no row here is treated as an
// invalid session regardless of its signature.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuditEntry records an authentication event alongside the session change.
type AuditEntry struct {
	UserID int64
	Action string
	At     time.Time
}

// Store persists refresh tokens and their audit trail.
type Store interface {
	// CreateWithAudit inserts the refresh token row and the audit entry
	// atomically. A login that cannot be audited does not produce a session.
	CreateWithAudit(ctx context.Context, rt RefreshToken, entry AuditEntry) (RefreshToken, error)

	// GetByToken returns the persisted row for a token string.
	// A missing row yields ErrInvalidRefreshToken.
	GetByToken(ctx context.Context, token string) (RefreshToken, error)

	// DeleteExpired removes rows whose expiry is at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
