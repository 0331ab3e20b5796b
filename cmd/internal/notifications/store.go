// Package notifications serves per-user notification rows and announces new
// ones on the change feed.
package notifications

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no notification exists for the given id.
var ErrNotFound = errors.New("notification not found")

// Notification is one row addressed to a user.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries a new notification.
type CreateInput struct {
	UserID  int64
	Title   string
	Message string
}

// Store persists notifications.
type Store interface {
	// ListAll returns every notification row.
	ListAll(ctx context.Context) ([]Notification, error)
	// ListForUser returns the rows addressed to one user, newest first.
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)
	Create(ctx context.Context, in CreateInput) (Notification, error)
	Delete(ctx context.Context, id int64) error
}
