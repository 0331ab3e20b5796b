package session

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must not reveal which of the two failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken is returned when the presented refresh token
	// has no matching persisted row.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken is returned when the persisted row exists but
	// the token no longer verifies or has passed its expiry.
	ErrExpiredRefreshToken = errors.New("expired refresh token")
)
