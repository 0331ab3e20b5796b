package realtime

import "github.com/oklog/ulid/v2"

// NewSessionID returns a ULID used as websocket session id.
// ULID is preferable to random hex for tracing and ordering in logs.
func NewSessionID() string {
	return ulid.Make().String()
}
