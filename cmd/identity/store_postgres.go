package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the user Store over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Uniqueness errors are mapped to identity sentinel kinds; the unique
//   constraint (not a pre-check) is the authority for duplicate emails.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "opsboard").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "opsboard",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table(name string) string {
	return fmt.Sprintf("%q.%q", s.schema, name)
}

const userColumns = `
	id, firstname, lastname, email, email_norm, password_hash,
	role_id, position_id, status, profile_image, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Firstname,
		&u.Lastname,
		&u.Email,
		&u.EmailNorm,
		&u.PasswordHash,
		&u.RoleID,
		&u.PositionID,
		&u.Status,
		&u.ProfileImage,
		&u.CreatedAt,
	)
	return u, err
}

// Create inserts a new user row. A duplicate normalized email surfaces as a
// ConflictError classified from the database's unique-violation error.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (User, error) {
	const op = "identity.Create"

	if strings.TrimSpace(in.Email) == "" {
		return User{}, invalid(op, "email is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, invalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO `+s.table("users")+` (
			firstname, lastname, email, email_norm, password_hash,
			role_id, position_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)
		RETURNING`+userColumns,
		in.Firstname, in.Lastname, in.Email, NormalizeEmail(in.Email),
		in.PasswordHash, in.RoleID, in.PositionID, now,
	)

	u, err := scanUser(row)
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		if isForeignKeyViolation(err) {
			return User{}, NotFoundError{Op: op, Resource: "role_or_position"}
		}
		return User{}, err
	}
	return u, nil
}

// GetByEmail loads a user (including the stored credential) by normalized email.
func (s *PostgresStore) GetByEmail(ctx context.Context, emailNorm string) (User, error) {
	const op = "identity.GetByEmail"

	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM `+s.table("users")+`
		WHERE email_norm = $1
	`, emailNorm))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByID loads a user row by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.GetByID"

	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM `+s.table("users")+`
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// List returns the joined batch projection ordered by id descending.
func (s *PostgresStore) List(ctx context.Context, start, limit int) ([]ListedUser, error) {
	if limit <= 0 {
		limit = 100
	}
	if start < 0 {
		start = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.firstname, u.lastname,
		       r.name AS role, u.role_id,
		       p.name AS position, u.position_id
		FROM `+s.table("users")+` AS u
		LEFT JOIN `+s.table("user_role")+` AS r ON u.role_id = r.id
		LEFT JOIN `+s.table("user_position")+` AS p ON u.position_id = p.id
		ORDER BY u.id DESC
		LIMIT $1 OFFSET $2
	`, limit, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ListedUser, 0, limit)
	for rows.Next() {
		var lu ListedUser
		if err := rows.Scan(&lu.ID, &lu.Firstname, &lu.Lastname, &lu.Role, &lu.RoleID, &lu.Position, &lu.PositionID); err != nil {
			return nil, err
		}
		out = append(out, lu)
	}
	return out, rows.Err()
}

// Count returns the total number of user rows.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.table("users")).Scan(&n)
	return n, err
}

// Patch applies an enumerated-field partial update and returns the updated row.
func (s *PostgresStore) Patch(ctx context.Context, id int64, p Patch) (User, error) {
	const op = "identity.Patch"

	if p.IsZero() {
		return s.GetByID(ctx, id)
	}

	set, args := buildPatchSet(p)
	args = append(args, id)

	row := s.pool.QueryRow(ctx, `
		UPDATE `+s.table("users")+`
		SET `+set+`
		WHERE id = $`+fmt.Sprint(len(args))+`
		RETURNING`+userColumns,
		args...,
	)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return User{}, NotFoundError{Op: op, Resource: "role_or_position"}
		}
		return User{}, err
	}
	return u, nil
}

// buildPatchSet renders the SET clause for the enumerated patchable fields.
func buildPatchSet(p Patch) (string, []any) {
	var (
		parts []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		parts = append(parts, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Firstname != nil {
		add("firstname", *p.Firstname)
	}
	if p.Lastname != nil {
		add("lastname", *p.Lastname)
	}
	if p.PositionID != nil {
		add("position_id", *p.PositionID)
	}
	if p.RoleID != nil {
		add("role_id", *p.RoleID)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}

	return strings.Join(parts, ", "), args
}

// UpdatePasswordHash replaces the stored credential value for a user.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	const op = "identity.UpdatePasswordHash"

	if strings.TrimSpace(hash) == "" {
		return invalid(op, "empty hash")
	}

	ct, err := s.pool.Exec(ctx, `
		UPDATE `+s.table("users")+`
		SET password_hash = $2
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// SetProfileImage stores the profile image path for a user.
func (s *PostgresStore) SetProfileImage(ctx context.Context, id int64, path string) error {
	const op = "identity.SetProfileImage"

	ct, err := s.pool.Exec(ctx, `
		UPDATE `+s.table("users")+`
		SET profile_image = $2
		WHERE id = $1
	`, id, path)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// Delete removes a user row.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	const op = "identity.Delete"

	ct, err := s.pool.Exec(ctx, `DELETE FROM `+s.table("users")+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// Roles returns the user_role lookup ordered by name.
func (s *PostgresStore) Roles(ctx context.Context) ([]Lookup, error) {
	return s.lookups(ctx, "user_role")
}

// Positions returns the user_position lookup ordered by name.
func (s *PostgresStore) Positions(ctx context.Context) ([]Lookup, error) {
	return s.lookups(ctx, "user_position")
}

func (s *PostgresStore) lookups(ctx context.Context, tbl string) ([]Lookup, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM `+s.table(tbl)+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lookup
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListAll returns every user ordered by firstname (meta endpoint).
func (s *PostgresStore) ListAll(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+userColumns+`
		FROM `+s.table("users")+`
		ORDER BY firstname ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ---- pg error classification ----

// classifyUniqueViolation maps a unique-violation error to a logical field name.
func classifyUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(c, "email"):
		return "email", true
	case strings.Contains(c, "token"):
		return "refresh_token", true
	default:
		return "", true
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
