package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are opt-in and require OPSBOARD_TEST_DATABASE_URL.
// With the variable set but Postgres unreachable, they skip rather than fail.

func TestPostgresStore_CreateConflictEmail_CaseInsensitive(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUserSchema(t, pool, schema)

	s := mustNewUserStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := s.Create(ctx, CreateInput{
		Firstname:    "Ada",
		Lastname:     "Lovelace",
		Email:        "Ada@Example.com",
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("create user 1: %v", err)
	}

	// Same address in a different case must hit the unique constraint.
	_, err = s.Create(ctx, CreateInput{
		Firstname:    "Other",
		Lastname:     "Person",
		Email:        "ada@example.COM",
		PasswordHash: "$2a$10$hash",
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got: %v", err)
	}
}

func TestPostgresStore_PatchEnumeratedFields(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUserSchema(t, pool, schema)

	s := mustNewUserStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := s.Create(ctx, CreateInput{
		Firstname:    "Ada",
		Lastname:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := "Augusta"
	status := "inactive"
	got, err := s.Patch(ctx, u.ID, Patch{Firstname: &first, Status: &status})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.Firstname != "Augusta" || got.Status != "inactive" {
		t.Fatalf("patched user = %+v", got)
	}
	if got.Lastname != "Lovelace" || got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("unpatched fields changed: %+v", got)
	}

	if _, err := s.Patch(ctx, u.ID+1000, Patch{Firstname: &first}); !IsNotFound(err) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestPostgresStore_ListJoinsLookups(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUserSchema(t, pool, schema)

	s := mustNewUserStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var roleID, posID int64
	if err := pool.QueryRow(ctx,
		`INSERT INTO `+pgTestIdent(schema, "user_role")+` (name) VALUES ('admin') RETURNING id`,
	).Scan(&roleID); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	if err := pool.QueryRow(ctx,
		`INSERT INTO `+pgTestIdent(schema, "user_position")+` (name) VALUES ('engineer') RETURNING id`,
	).Scan(&posID); err != nil {
		t.Fatalf("seed position: %v", err)
	}

	if _, err := s.Create(ctx, CreateInput{
		Firstname:    "Ada",
		Lastname:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		RoleID:       &roleID,
		PositionID:   &posID,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := s.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Role == nil || *rows[0].Role != "admin" {
		t.Fatalf("role = %v", rows[0].Role)
	}
	if rows[0].Position == nil || *rows[0].Position != "engineer" {
		t.Fatalf("position = %v", rows[0].Position)
	}
}

// ---- helpers ----

func mustNewUserStore(t *testing.T, pool *pgxpool.Pool, schema string) *PostgresStore {
	t.Helper()

	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("OPSBOARD_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: OPSBOARD_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse OPSBOARD_TEST_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable: %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func shouldSkipIntegration(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, context.DeadlineExceeded)
}

func mustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "opsboard_it_" + strings.ToLower(ulid.Make().String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+fmt.Sprintf("%q", schema)); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `DROP SCHEMA `+fmt.Sprintf("%q", schema)+` CASCADE`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
}

func pgTestIdent(schema, table string) string {
	return fmt.Sprintf("%q.%q", schema, table)
}

func mustApplyUserSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	users := pgTestIdent(schema, "users")
	roles := pgTestIdent(schema, "user_role")
	positions := pgTestIdent(schema, "user_position")

	schemaSQL := fmt.Sprintf(`
CREATE TABLE %s (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE %s (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE %s (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  firstname TEXT NOT NULL DEFAULT '',
  lastname TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role_id BIGINT NULL REFERENCES %s(id),
  position_id BIGINT NULL REFERENCES %s(id),
  status TEXT NOT NULL DEFAULT 'active',
  profile_image TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
);
`, roles, positions, users, roles, positions)

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}
