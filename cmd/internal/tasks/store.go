// Package tasks implements the task board: CRUD over persisted tasks with
// change-feed announcements for every mutation.
package tasks

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no task exists for the given id.
var ErrNotFound = errors.New("task not found")

// Task is a unit of work on the board.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Defaults applied when a create or replace omits the fields.
const (
	DefaultPriority = "low"
	DefaultStatus   = "pending"
)

// CreateInput carries a new task. Empty priority/status take the defaults.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	Status      string
}

// Patch enumerates the fields a partial update may touch.
type Patch struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil
}

// Store persists tasks.
type Store interface {
	List(ctx context.Context) ([]Task, error)
	GetByID(ctx context.Context, id int64) (Task, error)
	Create(ctx context.Context, in CreateInput) (Task, error)
	Patch(ctx context.Context, id int64, p Patch) (Task, error)
	// Replace overwrites every mutable field, keeping id and created_at.
	Replace(ctx context.Context, id int64, in CreateInput) (Task, error)
	Delete(ctx context.Context, id int64) error
}

func applyDefaults(in CreateInput) CreateInput {
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	return in
}
