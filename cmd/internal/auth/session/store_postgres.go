package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgIdentRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore persists refresh tokens and audit rows in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption customizes a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithSchema overrides the default "opsboard" schema.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) {
		if pgIdentRe.MatchString(schema) {
			s.schema = schema
		}
	}
}

// NewPostgresStore constructs a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, schema: "opsboard"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) table(name string) string {
	return fmt.Sprintf("%q.%q", s.schema, name)
}

// CreateWithAudit inserts the refresh token and the audit entry in one
// transaction, so the session and its trail appear together or not at all.
func (s *PostgresStore) CreateWithAudit(ctx context.Context, rt RefreshToken, entry AuditEntry) (RefreshToken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("session: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO `+s.table("refresh_tokens")+` (user_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, token, expires_at, created_at`,
		rt.UserID, rt.Token, rt.ExpiresAt,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("session: insert refresh token: %w", err)
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO `+s.table("logs")+` (user_id, action, created_at) VALUES ($1, $2, $3)`,
		entry.UserID, entry.Action, at,
	)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("session: insert audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return RefreshToken{}, fmt.Errorf("session: commit: %w", err)
	}
	return rt, nil
}

// GetByToken looks up a persisted refresh token by its token string.
func (s *PostgresStore) GetByToken(ctx context.Context, token string) (RefreshToken, error) {
	var rt RefreshToken
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM `+s.table("refresh_tokens")+` WHERE token = $1`,
		token,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return RefreshToken{}, fmt.Errorf("session: get refresh token: %w", err)
	}
	return rt, nil
}

// DeleteExpired removes refresh tokens whose expiry has passed.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table("refresh_tokens")+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
