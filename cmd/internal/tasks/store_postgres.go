package tasks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgIdentRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore persists tasks in PostgreSQL.
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
	return fmt.Sprintf("%q.%q", s.schema, "tasks")
}

const taskColumns = "id, title, description, priority, status, created_at, updated_at"

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *PostgresStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM `+s.table()+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("tasks: scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tasks: rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM `+s.table()+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("tasks: get: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Task, error) {
	in = applyDefaults(in)

	t, err := scanTask(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (title, description, priority, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+taskColumns,
		in.Title, in.Description, in.Priority, in.Status))
	if err != nil {
		return Task{}, fmt.Errorf("tasks: create: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Patch(ctx context.Context, id int64, p Patch) (Task, error) {
	if p.IsZero() {
		return s.GetByID(ctx, id)
	}

	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	q := `UPDATE ` + s.table() + ` SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + taskColumns

	t, err := scanTask(s.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("tasks: patch: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Replace(ctx context.Context, id int64, in CreateInput) (Task, error) {
	in = applyDefaults(in)

	t, err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		 SET title = $1, description = $2, priority = $3, status = $4, updated_at = $5
		 WHERE id = $6
		 RETURNING `+taskColumns,
		in.Title, in.Description, in.Priority, in.Status, time.Now().UTC(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("tasks: replace: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tasks: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
