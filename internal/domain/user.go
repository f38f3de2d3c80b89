package domain

// User is a registered account.
// Corresponds to the users table in PostgreSQL.
type User struct {
	UserID       string // PRIMARY KEY, deterministic hash of email
	Email        string // unique
	PasswordHash string // bcrypt
	DisplayName  string
	CreatedAt    int64 // Unix timestamp in milliseconds
}

// Session is an opaque bearer token bound to a user or guest scope.
// Guest sessions own in-memory data only and disappear on restart.
type Session struct {
	Token     string // base58-encoded random bytes
	UserID    string // guest sessions use a synthetic guest id
	Guest     bool
	CreatedAt int64 // Unix timestamp in milliseconds
	ExpiresAt int64
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(nowMs int64) bool {
	return nowMs >= s.ExpiresAt
}
