package identity

import (
	"context"
	"time"
)

// User is Opsboard's canonical security principal.
// PasswordHash is opaque; before the hashing migration completed it may
// still hold a legacy plaintext value (see IsBcryptHash / LegacyVerify).
type User struct {
	ID        int64
	Firstname string
	Lastname  string

	Email     string
	EmailNorm string

	PasswordHash string

	RoleID       *int64
	PositionID   *int64
	Status       string
	ProfileImage *string

	CreatedAt time.Time
}

// ListedUser is the batch-list projection: user columns joined with the
// role/position lookup names.
type ListedUser struct {
	ID         int64   `json:"id"`
	Firstname  string  `json:"firstname"`
	Lastname   string  `json:"lastname"`
	Role       *string `json:"role"`
	RoleID     *int64  `json:"role_id"`
	Position   *string `json:"position"`
	PositionID *int64  `json:"position_id"`
}

// Lookup is a row of the user_role / user_position tables.
type Lookup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateInput describes a user insert. PasswordHash must already be hashed;
// the store derives the normalized email itself.
type CreateInput struct {
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string
	RoleID       *int64
	PositionID   *int64
	Now          time.Time
}

// Patch enumerates the fields a partial update may touch. Anything not
// listed here (id, email, password hash, created_at) is not patchable.
type Patch struct {
	Firstname  *string
	Lastname   *string
	PositionID *int64
	RoleID     *int64
	Status     *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Firstname == nil && p.Lastname == nil && p.PositionID == nil &&
		p.RoleID == nil && p.Status == nil
}

// Store is the user persistence boundary.
//
// Uniqueness contract: Create never pre-checks the email; the store's
// unique constraint is the sole authority, and its violation surfaces as a
// ConflictError.
type Store interface {
	Create(ctx context.Context, in CreateInput) (User, error)

	// GetByEmail loads a user by normalized email, including the password hash.
	GetByEmail(ctx context.Context, emailNorm string) (User, error)

	GetByID(ctx context.Context, id int64) (User, error)

	// List returns the joined batch projection, newest id first.
	List(ctx context.Context, start, limit int) ([]ListedUser, error)

	Count(ctx context.Context) (int64, error)

	// Patch applies an enumerated-field partial update and returns the result.
	Patch(ctx context.Context, id int64, p Patch) (User, error)

	// UpdatePasswordHash replaces the stored credential value. Used by the
	// lazy legacy migration; a hash is never downgraded back to plaintext.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	SetProfileImage(ctx context.Context, id int64, path string) error

	Delete(ctx context.Context, id int64) error

	// Lookups for the meta endpoint.
	Roles(ctx context.Context) ([]Lookup, error)
	Positions(ctx context.Context) ([]Lookup, error)

	// ListAll returns all users ordered by firstname (meta endpoint).
	ListAll(ctx context.Context) ([]User, error)
}
