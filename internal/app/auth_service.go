// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"glucotrack/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// dummyHash is compared against when no account matches a login.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("glucotrack-no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// AuthService handles authentication and session management.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration
	now        func() time.Time

	compareHash func(hash, password []byte) error
}

// NewAuthService creates a new authentication service. Sessions live for
// sessionTTL; a non-positive value means 24 hours.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,

		compareHash: bcrypt.CompareHashAndPassword,
	}
}

// SessionTTL returns how long newly created sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Signup registers a new account with a default profile and opens a session
// for it.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (string, *domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, err
	}
	if len(password) < minPasswordLen {
		return "", nil, invalid("password", "must be at least %d characters", minPasswordLen)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return "", nil, domain.ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.createUser(ctx, email, name, string(hash))
	if err != nil {
		return "", nil, err
	}
	slog.InfoContext(ctx, "user signed up", slog.Int64("user_id", user.ID))

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		// Unknown accounts cost the same bcrypt work as known ones.
		_ = s.compareHash(dummyHash(), []byte(password))
		return "", nil, ErrInvalidCredentials
	}

	if err = s.compareHash([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// CurrentUser resolves a session token to its user. Unknown and expired
// tokens yield ErrNotAuthenticated; expired ones are removed.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrNotAuthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// ValidateForwardAuth resolves the Remote-User header set by an
// authenticating reverse proxy, provisioning the account on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.findOrProvision(ctx, remoteUser, "")
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, email, name string) (string, *domain.User, error) {
	user, err := s.findOrProvision(ctx, email, name)
	if err != nil {
		return "", nil, err
	}
	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// SweepExpired deletes every expired session and reports how many went.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) findOrProvision(ctx context.Context, identity, name string) (*domain.User, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	user, err := s.users.GetByEmail(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if name == "" {
		name = identity
		if at := strings.Index(identity, "@"); at > 0 {
			name = identity[:at]
		}
	}
	// Empty password hash: SSO users cannot log in with a password.
	user, err = s.createUser(ctx, identity, name, "")
	if errors.Is(err, domain.ErrDuplicateAccount) {
		// Lost a race with a concurrent first login.
		user, err = s.users.GetByEmail(ctx, identity)
		if err == nil && user == nil {
			err = domain.ErrNotFound
		}
	}
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user provisioned from sso", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, name, hash string) (*domain.User, error) {
	now := s.now().UTC()
	user, err := s.users.Create(ctx,
		domain.User{Email: email, DisplayName: name, PasswordHash: hash, CreatedAt: now},
		domain.Profile{Name: name, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, userID, token, s.now().Add(s.sessionTTL)); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "must be a valid address")
	}
	return email, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
