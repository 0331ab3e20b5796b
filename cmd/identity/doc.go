// Package identity implements Opsboard's credential foundation.
//
// It contains the user model, password hashing (bcrypt, with the one-time
// legacy plaintext migration path), and the user store boundary used by the
// HTTP and session layers.
//
// This package is intentionally dependency-light and security-first.
package identity
