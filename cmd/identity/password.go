package identity

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost the source system used when it introduced
// hashing; raising it only affects newly written hashes.
const bcryptCost = 10

// HashPassword returns a bcrypt hash of the plaintext password.
func HashPassword(plain string) (string, error) {
	const op = "identity.HashPassword"

	if strings.TrimSpace(plain) == "" {
		return "", invalid(op, "empty password")
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}
	return string(b), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
// It never fails loudly: any mismatch or malformed hash is simply false.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsBcryptHash reports whether a stored credential value is bcrypt-shaped.
// Structural prefix check: every bcrypt variant encodes as "$2a$", "$2b$", "$2y$", ...
func IsBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// LegacyVerify compares a plaintext password against a stored plaintext
// value in constant time. It exists solely for the one-time lazy migration
// of pre-hashing credentials; callers must re-hash and persist on success.
func LegacyVerify(plain, stored string) bool {
	if len(plain) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
}
