// Package session implements credential verification and the issued-token
// lifecycle: registration, login, and access-token refresh against a
// persisted refresh-token store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"opsboard/cmd/identity"
	"opsboard/cmd/internal/auth/token"
)

// Known-good hash verified against failed lookups so an unknown email costs
// the same as a wrong password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterInput carries a new account request. Password arrives in plain
// text and is hashed before it reaches any store.
type RegisterInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
}

// LoginResult is the successful outcome of Login.
type LoginResult struct {
	User         identity.User
	AccessToken  string
	RefreshToken string
}

// Service coordinates identity lookups, password verification, and token
// issuance. It owns the one-time migration of legacy plaintext credentials.
type Service struct {
	users  identity.Store
	store  Store
	tokens *token.Manager
	log    *slog.Logger

	// legacyMigrations counts plaintext credentials upgraded to bcrypt.
	legacyMigrations prometheus.Counter

	now func() time.Time
}

// NewService wires a Service. legacyMigrations may be nil when metrics are
// not collected.
func NewService(users identity.Store, store Store, tokens *token.Manager, log *slog.Logger, legacyMigrations prometheus.Counter) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:            users,
		store:            store,
		tokens:           tokens,
		log:              log,
		legacyMigrations: legacyMigrations,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and returns it with a signed access token.
// Duplicate emails surface as identity.ConflictError from the store.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.User, string, error) {
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Email = strings.TrimSpace(in.Email)

	if in.Firstname == "" || in.Lastname == "" || in.Email == "" || in.Password == "" {
		return identity.User{}, "", fmt.Errorf("%w: firstname, lastname, email and password are required", identity.ErrInvalidInput)
	}
	if !strings.Contains(in.Email, "@") {
		return identity.User{}, "", fmt.Errorf("%w: invalid email", identity.ErrInvalidInput)
	}

	hash, err := identity.HashPassword(in.Password)
	if err != nil {
		return identity.User{}, "", err
	}

	user, err := s.users.Create(ctx, identity.CreateInput{
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return identity.User{}, "", err
	}

	access, _, err := s.tokens.IssueAccess(s.claimsFor(user), s.now())
	if err != nil {
		return identity.User{}, "", err
	}

	s.log.Info("session.register", "user_id", user.ID)
	return user, access, nil
}

// Login verifies credentials and establishes a session: an access token plus
// a persisted refresh token. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if identity.IsNotFound(err) {
			// Burn the same bcrypt cost as a real comparison.
			identity.VerifyPassword(password, dummyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !s.verifyAndMaybeMigrate(ctx, &user, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	access, _, err := s.tokens.IssueAccess(s.claimsFor(user), now)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID, now)
	if err != nil {
		return LoginResult{}, err
	}

	_, err = s.store.CreateWithAudit(ctx,
		RefreshToken{UserID: user.ID, Token: refresh, ExpiresAt: refreshExp},
		AuditEntry{UserID: user.ID, Action: "login", At: now},
	)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info("session.login", "user_id", user.ID)
	return LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// verifyAndMaybeMigrate checks the password against the stored credential.
// A stored value without a bcrypt shape is treated as a legacy plaintext
// credential: on match it is re-hashed and persisted, exactly once.
func (s *Service) verifyAndMaybeMigrate(ctx context.Context, user *identity.User, password string) bool {
	if identity.IsBcryptHash(user.PasswordHash) {
		return identity.VerifyPassword(password, user.PasswordHash)
	}

	if !identity.LegacyVerify(password, user.PasswordHash) {
		return false
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		s.log.Error("session.legacy_migration.hash", "user_id", user.ID, "error", err)
		return true
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		// The login still succeeds; the credential stays legacy until the
		// next successful login retries the upgrade.
		s.log.Error("session.legacy_migration.persist", "user_id", user.ID, "error", err)
		return true
	}
	user.PasswordHash = hash

	if s.legacyMigrations != nil {
		s.legacyMigrations.Inc()
	}
	s.log.Info("session.legacy_migration", "user_id", user.ID)
	return true
}

// Refresh exchanges a persisted, unexpired refresh token for a new access
// token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}

	rt, err := s.store.GetByToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	now := s.now()
	if !rt.ExpiresAt.After(now) {
		return "", ErrExpiredRefreshToken
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil || userID != rt.UserID {
		return "", ErrExpiredRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	access, _, err := s.tokens.IssueAccess(s.claimsFor(user), now)
	if err != nil {
		return "", err
	}
	return access, nil
}

// SweepExpired removes expired refresh tokens. Exposed for the background
// sweeper and for operational one-offs.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

func (s *Service) claimsFor(user identity.User) token.Claims {
	return token.Claims{
		UserID:    user.ID,
		Firstname: user.Firstname,
		Email:     user.Email,
		RoleID:    user.RoleID,
	}
}

// IsAuthFailure reports whether err maps to a credential or session problem
// rather than an infrastructure one.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidRefreshToken) ||
		errors.Is(err, ErrExpiredRefreshToken)
}
