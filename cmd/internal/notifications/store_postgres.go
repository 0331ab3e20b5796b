package notifications

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgIdentRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore persists notifications in PostgreSQL.
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

func (s *PostgresStore) table() string {
	return fmt.Sprintf("%q.%q", s.schema, "notifications")
}

const notificationColumns = "id, user_id, title, message, created_at"

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.CreatedAt)
	return n, err
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Notification, error) {
	return s.list(ctx, `SELECT `+notificationColumns+` FROM `+s.table()+` ORDER BY created_at DESC, id DESC`)
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	return s.list(ctx,
		`SELECT `+notificationColumns+` FROM `+s.table()+`
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (s *PostgresStore) list(ctx context.Context, q string, args ...any) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0, 16)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notifications: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications: rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (user_id, title, message)
		 VALUES ($1, $2, $3)
		 RETURNING `+notificationColumns,
		in.UserID, in.Title, in.Message))
	if err != nil {
		return Notification{}, fmt.Errorf("notifications: create: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notifications: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
