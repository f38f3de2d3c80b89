// Package main runs the journal API server: HTTP JSON API, websocket
// quote streaming, Prometheus metrics, and the session sweeper.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trade-journal/internal/api"
	"trade-journal/internal/auth"
	"trade-journal/internal/broker"
	"trade-journal/internal/config"
	"trade-journal/internal/domain"
	"trade-journal/internal/journal"
	"trade-journal/internal/observability"
	"trade-journal/internal/quotes"
	"trade-journal/internal/reporting"
	"trade-journal/internal/storage"
	chstore "trade-journal/internal/storage/clickhouse"
	"trade-journal/internal/storage/memory"
	"trade-journal/internal/storage/migrations"
	pgstore "trade-journal/internal/storage/postgres"
)

const sweepInterval = 1 * time.Hour

// stores holds the storage implementations for registered accounts.
// Guest data lives in separate in-memory twins regardless of mode.
type stores struct {
	users    storage.UserStore
	sessions storage.SessionStore
	settings storage.SettingsStore
	trades   storage.TradeStore
	outcomes storage.OutcomeStore
	links    storage.BrokerLinkStore
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file (optional)")
	addr := flag.String("addr", "", "API listen address (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Metrics listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of Postgres/ClickHouse")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	// The flag folds into the env override so validation sees it.
	if *useMemory {
		os.Setenv("USE_MEMORY", "true")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, guestOutcomes, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("create stores", zap.Error(err))
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	authSvc := auth.NewService(st.users, st.sessions, logger)
	journalSvc := journal.NewService(st.trades, st.outcomes, logger)
	guestTrades := memory.NewTradeStore()
	guestSettings := memory.NewSettingsStore()
	guestJournal := journal.NewService(guestTrades, guestOutcomes, logger)

	// An expired guest session leaves its data ownerless; drop it so the
	// memory stores do not grow without bound.
	guestPurge := func(ctx context.Context, userID string) {
		n := guestTrades.DeleteByUser(ctx, userID)
		n += guestSettings.DeleteByUser(ctx, userID)
		n += guestOutcomes.DeleteByUser(ctx, userID)
		if n > 0 {
			logger.Info("guest data purged",
				zap.String("user_id", userID), zap.Int("rows", n))
		}
	}

	quoteSvc := quotes.NewService(logger, metrics)
	registerProviders(quoteSvc, cfg)

	hub := quotes.NewHub(quoteSvc, logger, metrics)
	hub.SetInterval(cfg.Quotes.RefreshInterval)
	go hub.Run(ctx)

	var brokerSvc *broker.Service
	if cfg.Broker.ClientID != "" {
		brokerSvc = broker.NewService(st.links, broker.Config{
			ClientID:     cfg.Broker.ClientID,
			ClientSecret: cfg.Broker.ClientSecret,
			RedirectURL:  cfg.Broker.RedirectURL,
		}, logger)
	} else {
		logger.Info("broker linking disabled, no client id configured")
	}

	server := api.NewServer(api.Deps{
		Logger:        logger,
		Metrics:       metrics,
		Auth:          authSvc,
		Journal:       journalSvc,
		GuestJournal:  guestJournal,
		Settings:      st.settings,
		GuestSettings: guestSettings,
		Reports:       reporting.NewGenerator(st.outcomes),
		GuestReports:  reporting.NewGenerator(guestOutcomes),
		Quotes:        quoteSvc,
		QuoteHub:      hub,
		Broker:        brokerSvc,
	})

	go runSessionSweeper(ctx, authSvc, guestPurge, logger)
	go runMetricsServer(cfg.Server.MetricsAddr, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

// createStores builds the account-scoped stores. In database mode it
// connects to Postgres and ClickHouse and applies migrations; sessions
// stay in memory in both modes since tokens are short-lived. The guest
// outcome store is returned concrete so expired guests can be purged.
func createStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, *memory.OutcomeStore, func(), error) {
	guestOutcomes := memory.NewOutcomeStore()

	if cfg.Storage.UseMemory {
		logger.Info("using in-memory storage")
		st := &stores{
			users:    memory.NewUserStore(),
			sessions: memory.NewSessionStore(),
			settings: memory.NewSettingsStore(),
			trades:   memory.NewTradeStore(),
			outcomes: memory.NewOutcomeStore(),
			links:    memory.NewBrokerLinkStore(),
		}
		return st, guestOutcomes, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, nil, err
	}

	st := &stores{
		users:    pgstore.NewUserStore(pool),
		sessions: memory.NewSessionStore(),
		settings: pgstore.NewSettingsStore(pool),
		trades:   pgstore.NewTradeStore(pool),
		outcomes: chstore.NewOutcomeStore(conn),
		links:    pgstore.NewBrokerLinkStore(pool),
	}
	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return st, guestOutcomes, cleanup, nil
}

// registerProviders wires the per-market quote failover chains.
func registerProviders(svc *quotes.Service, cfg *config.Config) {
	stooq := quotes.NewStooqClient()
	svc.Register(domain.MarketUS, stooq)
	svc.RegisterCandles(domain.MarketUS, stooq)

	if cfg.Quotes.AlphaVantageKey != "" {
		av := quotes.NewAlphaVantageClient(cfg.Quotes.AlphaVantageKey)
		svc.Register(domain.MarketUS, av)
		svc.RegisterCandles(domain.MarketUS, av)
	}

	svc.Register(domain.MarketCN, quotes.NewTencentClient())
}

// runSessionSweeper periodically removes expired sessions and purges the
// data of guests whose sessions expired.
func runSessionSweeper(ctx context.Context, authSvc *auth.Service, purge func(context.Context, string), logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, guests, err := authSvc.SweepExpired(ctx)
			if err != nil {
				logger.Warn("session sweep", zap.Error(err))
				continue
			}
			for _, userID := range guests {
				purge(ctx, userID)
			}
			if n > 0 {
				logger.Info("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}

// runMetricsServer serves Prometheus metrics and liveness on its own port.
func runMetricsServer(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics server", zap.Error(err))
	}
}
