package postgres

import (
	"context"
	"fmt"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if user_id or email exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (user_id, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, u.UserID, u.Email, u.PasswordHash, u.DisplayName, u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.get(ctx, `SELECT user_id, email, password_hash, display_name, created_at FROM users WHERE user_id = $1`, userID)
}

// GetByEmail retrieves a user by email. Returns ErrNotFound if not exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.get(ctx, `SELECT user_id, email, password_hash, display_name, created_at FROM users WHERE email = $1`, email)
}

func (s *UserStore) get(ctx context.Context, query, arg string) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.UserID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
