// Package v1 defines the Opsboard change-feed protocol v1.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Type constants (wire-stable).
const (
	// TypeTaskCreated announces a newly created task (server -> peers).
	TypeTaskCreated = "task.created"
	// TypeTaskUpdated announces a task mutation (server -> peers).
	TypeTaskUpdated = "task.updated"
	// TypeTaskDeleted announces a task deletion (server -> peers).
	TypeTaskDeleted = "task.deleted"

	// TypeKBCreated announces a new knowledgebase entry.
	TypeKBCreated = "kb.created"
	// TypeKBUpdated announces a knowledgebase mutation.
	TypeKBUpdated = "kb.updated"
	// TypeKBDeleted announces a knowledgebase deletion.
	TypeKBDeleted = "kb.deleted"

	// TypeUserUpdated announces a user profile mutation.
	TypeUserUpdated = "user.updated"

	// TypeNotificationCreated announces a new notification row.
	TypeNotificationCreated = "notification.created"

	// TypePing is a heartbeat envelope (either direction).
	TypePing = "ping"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}

	switch e.Type {
	case TypeTaskCreated,
		TypeTaskUpdated,
		TypeTaskDeleted,
		TypeKBCreated,
		TypeKBUpdated,
		TypeKBDeleted,
		TypeUserUpdated,
		TypeNotificationCreated,
		TypePing,
		TypeError:
		return nil
	default:
		return fmt.Errorf("unknown type: %q", e.Type)
	}
}

// ---- Payloads ----

// RecordPayload carries the affected record for created/updated events.
// Record is the JSON body the REST endpoint returned for the mutation.
type RecordPayload struct {
	Record json.RawMessage `json:"record"`
}

// DeletedPayload carries the identifier of a deleted record.
type DeletedPayload struct {
	ID int64 `json:"id"`
}

// ErrorPayload is a generic error response payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
