// Package knowledgebase implements the paginated article collection with
// change-feed announcements for every mutation.
package knowledgebase

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no article exists for the given id.
var ErrNotFound = errors.New("article not found")

// Pagination bounds for batch listing.
const (
	MaxLimit     = 1000
	DefaultLimit = 1000
)

// Article is one knowledgebase entry.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// CreateInput carries a new article. Title is validated by the handler.
type CreateInput struct {
	Title       string
	Description string
}

// Patch enumerates the fields a partial update may touch.
type Patch struct {
	Title       *string
	Description *string
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil
}

// Store persists articles.
type Store interface {
	// ListBatch returns articles newest-first, skipping start rows and
	// returning at most limit.
	ListBatch(ctx context.Context, start, limit int) ([]Article, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (Article, error)
	Create(ctx context.Context, in CreateInput) (Article, error)
	Patch(ctx context.Context, id int64, p Patch) (Article, error)
	Replace(ctx context.Context, id int64, in CreateInput) (Article, error)
	Delete(ctx context.Context, id int64) error
}

// ClampPage normalizes raw pagination values: start floors at 0, limit is
// clamped into [1, MaxLimit].
func ClampPage(start, limit int) (int, int) {
	if start < 0 {
		start = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return start, limit
}
