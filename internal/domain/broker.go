package domain

// Broker provider identifiers.
const (
	BrokerSchwab = "schwab"
)

// BrokerLink stores OAuth tokens linking a user to a brokerage account.
// Corresponds to the broker_links table in PostgreSQL.
type BrokerLink struct {
	UserID       string // PRIMARY KEY together with Provider
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenExpiry  int64 // Unix timestamp in milliseconds
	LinkedAt     int64
}
