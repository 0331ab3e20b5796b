package token

import "errors"

var (
	// ErrTokenMalformed is returned for structurally invalid or missing tokens.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned when the signature is valid but the expiry passed.
	// Callers use this to prompt a refresh flow instead of a full re-login.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned when signature verification fails.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
