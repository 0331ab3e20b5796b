package knowledgebase

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

// PostgresStore persists articles in PostgreSQL.
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
	return fmt.Sprintf("%q.%q", s.schema, "knowledgebase")
}

const articleColumns = "id, title, description, created_at, updated_at"

func scanArticle(row pgx.Row) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *PostgresStore) ListBatch(ctx context.Context, start, limit int) ([]Article, error) {
	start, limit = ClampPage(start, limit)

	rows, err := s.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM `+s.table()+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, start)
	if err != nil {
		return nil, fmt.Errorf("knowledgebase: list: %w", err)
	}
	defer rows.Close()

	out := make([]Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("knowledgebase: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledgebase: rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.table()).Scan(&total); err != nil {
		return 0, fmt.Errorf("knowledgebase: count: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Article, error) {
	a, err := scanArticle(s.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM `+s.table()+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("knowledgebase: get: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Article, error) {
	a, err := scanArticle(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (title, description)
		 VALUES ($1, $2)
		 RETURNING `+articleColumns,
		in.Title, in.Description))
	if err != nil {
		return Article{}, fmt.Errorf("knowledgebase: create: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Patch(ctx context.Context, id int64, p Patch) (Article, error) {
	if p.IsZero() {
		return s.GetByID(ctx, id)
	}

	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
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
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	q := `UPDATE ` + s.table() + ` SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + articleColumns

	a, err := scanArticle(s.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("knowledgebase: patch: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Replace(ctx context.Context, id int64, in CreateInput) (Article, error) {
	a, err := scanArticle(s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		 SET title = $1, description = $2, updated_at = $3
		 WHERE id = $4
		 RETURNING `+articleColumns,
		in.Title, in.Description, time.Now().UTC(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("knowledgebase: replace: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("knowledgebase: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
