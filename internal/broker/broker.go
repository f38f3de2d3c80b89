// Package broker links user accounts to their brokerage through OAuth2.
// Schwab is the only supported provider: the authorization-code flow
// stores token pairs per user, and API calls refresh them as needed.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/storage"
)

var (
	// ErrNotLinked is returned when the user has no broker link.
	ErrNotLinked = errors.New("broker not linked")

	// ErrInvalidState is returned when the OAuth callback state is unknown
	// or expired.
	ErrInvalidState = errors.New("invalid oauth state")
)

// Schwab endpoint defaults.
const (
	schwabAuthURL    = "https://api.schwabapi.com/v1/oauth/authorize"
	schwabTokenURL   = "https://api.schwabapi.com/v1/oauth/token"
	schwabAPIBaseURL = "https://api.schwabapi.com"

	stateTTL = 10 * time.Minute
)

// Config carries the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides, used in tests. Empty values fall back to Schwab.
	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// pendingState is an issued-but-unredeemed authorization request.
type pendingState struct {
	userID    string
	expiresAt time.Time
}

// Service implements the Schwab OAuth flow and authenticated API calls.
type Service struct {
	links      storage.BrokerLinkStore
	logger     *zap.Logger
	oauth      *oauth2.Config
	apiBaseURL string
	client     *http.Client
	now        func() time.Time // Injectable clock for deterministic tests

	mu     sync.Mutex
	states map[string]pendingState
}

// NewService creates a broker service from the OAuth registration.
func NewService(links storage.BrokerLinkStore, cfg Config, logger *zap.Logger) *Service {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = schwabAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = schwabTokenURL
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = schwabAPIBaseURL
	}

	return &Service{
		links: links,
		logger: logger,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
			Scopes: []string{"readonly"},
		},
		apiBaseURL: strings.TrimSuffix(apiBaseURL, "/"),
		client:     &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// AuthorizeURL starts the flow: issues a one-time state bound to the user
// and returns the provider URL to redirect them to.
func (s *Service) AuthorizeURL(userID string) (string, error) {
	state, err := idhash.NewToken(16)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	s.mu.Lock()
	s.pruneStatesLocked()
	s.states[state] = pendingState{userID: userID, expiresAt: s.now().Add(stateTTL)}
	s.mu.Unlock()

	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleCallback redeems the state, exchanges the code for tokens, and
// stores the link. Returns the owning user id.
func (s *Service) HandleCallback(ctx context.Context, state, code string) (string, error) {
	s.mu.Lock()
	pending, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	s.mu.Unlock()
	if !ok || s.now().After(pending.expiresAt) {
		return "", ErrInvalidState
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	link := &domain.BrokerLink{
		UserID:       pending.userID,
		Provider:     domain.BrokerSchwab,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry.UnixMilli(),
		LinkedAt:     s.now().UnixMilli(),
	}
	if err := s.links.Upsert(ctx, link); err != nil {
		return "", fmt.Errorf("store link: %w", err)
	}

	s.logger.Info("broker linked",
		zap.String("user_id", pending.userID),
		zap.String("provider", domain.BrokerSchwab))
	return pending.userID, nil
}

// Linked reports whether the user has a broker link and when its access
// token expires.
func (s *Service) Linked(ctx context.Context, userID string) (*domain.BrokerLink, error) {
	link, err := s.links.Get(ctx, userID, domain.BrokerSchwab)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotLinked
		}
		return nil, err
	}
	return link, nil
}

// Unlink removes the user's broker link.
func (s *Service) Unlink(ctx context.Context, userID string) error {
	if err := s.links.Delete(ctx, userID, domain.BrokerSchwab); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotLinked
		}
		return err
	}
	s.logger.Info("broker unlinked", zap.String("user_id", userID))
	return nil
}

// Accounts proxies the Schwab accounts endpoint for the linked user.
func (s *Service) Accounts(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.apiGet(ctx, userID, "/trader/v1/accounts")
}

// apiGet performs an authenticated GET against the broker API, refreshing
// and re-persisting the token pair when the access token expired.
func (s *Service) apiGet(ctx context.Context, userID, path string) (json.RawMessage, error) {
	link, err := s.Linked(ctx, userID)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		Expiry:       time.UnixMilli(link.TokenExpiry),
	}

	fresh, err := s.oauth.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != link.AccessToken {
		link.AccessToken = fresh.AccessToken
		if fresh.RefreshToken != "" {
			link.RefreshToken = fresh.RefreshToken
		}
		link.TokenExpiry = fresh.Expiry.UnixMilli()
		if err := s.links.Upsert(ctx, link); err != nil {
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
		s.logger.Info("broker token refreshed", zap.String("user_id", userID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+fresh.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("broker api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read broker response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("broker api status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// pruneStatesLocked drops expired pending states. Caller holds mu.
func (s *Service) pruneStatesLocked() {
	if s.states == nil {
		s.states = make(map[string]pendingState)
	}
	now := s.now()
	for state, pending := range s.states {
		if now.After(pending.expiresAt) {
			delete(s.states, state)
		}
	}
}
