package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/storage/memory"
)

// fakeBroker stands in for the Schwab token and API endpoints.
type fakeBroker struct {
	srv          *httptest.Server
	tokenCalls   int
	accountCalls int
	accessToken  string
}

func newFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()
	f := &fakeBroker{accessToken: "access-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.accessToken,
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    1800,
		})
	})
	mux.HandleFunc("/trader/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		f.accountCalls++
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"accountNumber":"12345678","type":"MARGIN"}]`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestService(t *testing.T, f *fakeBroker) *Service {
	t.Helper()
	return NewService(memory.NewBrokerLinkStore(), Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/api/broker/callback",
		AuthURL:      f.srv.URL + "/v1/oauth/authorize",
		TokenURL:     f.srv.URL + "/v1/oauth/token",
		APIBaseURL:   f.srv.URL,
	}, zap.NewNop())
}

func TestAuthorizeURLCarriesState(t *testing.T) {
	svc := newTestService(t, newFakeBroker(t))

	raw, err := svc.AuthorizeURL("user-1")
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Query().Get("state") == "" {
		t.Error("authorize url has no state")
	}
	if u.Query().Get("client_id") != "client-id" {
		t.Errorf("client_id not forwarded: %q", u.Query().Get("client_id"))
	}

	// Each request gets its own state.
	raw2, err := svc.AuthorizeURL("user-1")
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}
	u2, _ := url.Parse(raw2)
	if u.Query().Get("state") == u2.Query().Get("state") {
		t.Error("state tokens collide")
	}
}

func TestCallbackStoresLink(t *testing.T) {
	f := newFakeBroker(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	raw, err := svc.AuthorizeURL("user-1")
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}
	u, _ := url.Parse(raw)
	state := u.Query().Get("state")

	userID, err := svc.HandleCallback(ctx, state, "auth-code")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("callback resolved wrong user: %q", userID)
	}
	if f.tokenCalls != 1 {
		t.Errorf("expected 1 token exchange, got %d", f.tokenCalls)
	}

	link, err := svc.Linked(ctx, "user-1")
	if err != nil {
		t.Fatalf("Linked: %v", err)
	}
	if link.AccessToken != "access-1" || link.RefreshToken != "refresh-1" {
		t.Errorf("token pair not stored: %q/%q", link.AccessToken, link.RefreshToken)
	}

	// State is one-time.
	if _, err := svc.HandleCallback(ctx, state, "auth-code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("reused state: expected ErrInvalidState, got %v", err)
	}
}

func TestCallbackRejectsUnknownAndExpiredState(t *testing.T) {
	svc := newTestService(t, newFakeBroker(t))
	ctx := context.Background()

	if _, err := svc.HandleCallback(ctx, "bogus", "code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unknown state: expected ErrInvalidState, got %v", err)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	raw, err := svc.AuthorizeURL("user-1")
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}
	u, _ := url.Parse(raw)

	svc.now = func() time.Time { return base.Add(11 * time.Minute) }
	if _, err := svc.HandleCallback(ctx, u.Query().Get("state"), "code"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expired state: expected ErrInvalidState, got %v", err)
	}
}

func TestAccountsProxy(t *testing.T) {
	f := newFakeBroker(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	raw, _ := svc.AuthorizeURL("user-1")
	u, _ := url.Parse(raw)
	if _, err := svc.HandleCallback(ctx, u.Query().Get("state"), "auth-code"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	body, err := svc.Accounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	var accounts []map[string]any
	if err := json.Unmarshal(body, &accounts); err != nil {
		t.Fatalf("parse accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0]["accountNumber"] != "12345678" {
		t.Errorf("unexpected accounts payload: %s", body)
	}
	if f.accountCalls != 1 {
		t.Errorf("expected 1 api call, got %d", f.accountCalls)
	}
}

func TestAccountsRefreshesExpiredToken(t *testing.T) {
	f := newFakeBroker(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	raw, _ := svc.AuthorizeURL("user-1")
	u, _ := url.Parse(raw)
	if _, err := svc.HandleCallback(ctx, u.Query().Get("state"), "auth-code"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	// Force the stored access token past expiry; the next call must
	// refresh and persist the replacement.
	link, _ := svc.Linked(ctx, "user-1")
	link.TokenExpiry = time.Now().Add(-time.Hour).UnixMilli()
	if err := svc.links.Upsert(ctx, link); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	f.accessToken = "access-2"

	if _, err := svc.Accounts(ctx, "user-1"); err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if f.tokenCalls != 2 {
		t.Errorf("expected refresh exchange, got %d token calls", f.tokenCalls)
	}

	link, _ = svc.Linked(ctx, "user-1")
	if link.AccessToken != "access-2" {
		t.Errorf("refreshed token not persisted: %q", link.AccessToken)
	}
}

func TestUnlink(t *testing.T) {
	f := newFakeBroker(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	if err := svc.Unlink(ctx, "user-1"); !errors.Is(err, ErrNotLinked) {
		t.Errorf("expected ErrNotLinked, got %v", err)
	}

	raw, _ := svc.AuthorizeURL("user-1")
	u, _ := url.Parse(raw)
	if _, err := svc.HandleCallback(ctx, u.Query().Get("state"), "auth-code"); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	if err := svc.Unlink(ctx, "user-1"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := svc.Linked(ctx, "user-1"); !errors.Is(err, ErrNotLinked) {
		t.Errorf("expected ErrNotLinked after unlink, got %v", err)
	}
	if _, err := svc.Accounts(ctx, "user-1"); !errors.Is(err, ErrNotLinked) {
		t.Errorf("expected ErrNotLinked from Accounts, got %v", err)
	}
}
