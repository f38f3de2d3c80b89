// Package auth implements account registration, login, and bearer sessions.
//
// Two session scopes exist: registered users (credentials checked against
// bcrypt hashes in the user store) and guests (no account, a synthetic user
// id owning in-memory data only). Both are represented by the same opaque
// base58 token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/storage"
)

var (
	// ErrInvalidCredentials is returned when the email or password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnauthorized is returned for missing, unknown, or expired session tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrWeakPassword is returned when the password is shorter than MinPasswordLen.
	ErrWeakPassword = errors.New("password too short")
)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 8

const (
	tokenBytes      = 32
	userSessionTTL  = 30 * 24 * time.Hour
	guestSessionTTL = 24 * time.Hour
)

// Service implements registration, login, and session verification.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	logger   *zap.Logger
	now      func() time.Time // Injectable clock for deterministic tests
	cost     int              // bcrypt cost
}

// NewService creates an auth service backed by the given stores.
func NewService(users storage.UserStore, sessions storage.SessionStore, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an account and an initial session for it.
// The user id is a deterministic hash of the normalized email.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*domain.User, *domain.Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < MinPasswordLen {
		return nil, nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	nowMs := s.now().UnixMilli()
	user := &domain.User{
		UserID:       idhash.ComputeUserID(email),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    nowMs,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("insert user: %w", err)
	}

	session, err := s.issueSession(ctx, user.UserID, false)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID))
	return user, session, nil
}

// Login verifies credentials and issues a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.UserID, false)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.UserID))
	return user, session, nil
}

// Guest issues a session with a synthetic user id and no account behind it.
// Guest data lives in memory stores and disappears when the session expires.
func (s *Service) Guest(ctx context.Context) (*domain.Session, error) {
	suffix, err := idhash.NewToken(8)
	if err != nil {
		return nil, fmt.Errorf("generate guest id: %w", err)
	}
	userID := "guest-" + suffix

	session, err := s.issueSession(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("guest session issued", zap.String("user_id", userID))
	return session, nil
}

// Verify resolves a bearer token to its session.
// Expired sessions are deleted on sight and reported as ErrUnauthorized.
func (s *Service) Verify(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now().UnixMilli()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrUnauthorized
	}

	return session, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SweepExpired removes sessions past expiry. It returns the number of
// sessions removed and the user ids of expired guests: a guest's data has
// no owner left once its only session is gone, so callers should purge it.
func (s *Service) SweepExpired(ctx context.Context) (int, []string, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, nil, fmt.Errorf("delete expired sessions: %w", err)
	}

	seen := make(map[string]bool)
	var guests []string
	for _, sess := range removed {
		if sess.Guest && !seen[sess.UserID] {
			seen[sess.UserID] = true
			guests = append(guests, sess.UserID)
		}
	}

	if len(removed) > 0 {
		s.logger.Info("expired sessions removed",
			zap.Int("count", len(removed)), zap.Int("guests", len(guests)))
	}
	return len(removed), guests, nil
}

func (s *Service) issueSession(ctx context.Context, userID string, guest bool) (*domain.Session, error) {
	token, err := idhash.NewToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	ttl := userSessionTTL
	if guest {
		ttl = guestSessionTTL
	}

	now := s.now()
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		Guest:     guest,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail applies a cheap structural check. Real validation happens when
// the address is used; this only rejects obvious garbage.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}
