// Package main provides the vault daemon that runs all components together:
// - Market data feed (WebSocket or stub)
// - Trading loop (signal scoring, position opens, exit policy, closes)
// - Snapshot persistence (PostgreSQL) and trade history (ClickHouse)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"curverider/internal/bot"
	"curverider/internal/marketdata"
	"curverider/internal/observability"
	"curverider/internal/pubkey"
	"curverider/internal/storage"
	chstore "curverider/internal/storage/clickhouse"
	"curverider/internal/storage/memory"
	"curverider/internal/storage/migrations"
	pgstore "curverider/internal/storage/postgres"
	"curverider/internal/vault"
)

// Server holds all components of the vault daemon.
type Server struct {
	// Configuration
	wsEndpoint    string
	botAuthority  string
	watchMints    []string
	cycleInterval time.Duration
	useMemory     bool

	// Components
	delegations *vault.DelegationLedger
	positions   *vault.PositionLedger
	market      marketdata.Provider
	runner      *bot.Runner
	logger      *log.Logger

	// State
	mu        sync.Mutex
	startedAt time.Time
}

// vaultStores holds the storage implementations.
type vaultStores struct {
	delegationStore storage.DelegationStore
	positionStore   storage.PositionStore
	historyStore    storage.TradeHistoryStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("MARKETDATA_WS_ENDPOINT"), "Market data WebSocket endpoint (stub feed when empty)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (trade history, optional)")
	botAuthority := flag.String("bot-authority", os.Getenv("BOT_AUTHORITY"), "Bot authority public key")
	watchMints := flag.String("watch-mints", os.Getenv("WATCH_MINTS"), "Comma-separated token mints to score for entries")
	cycleInterval := flag.Duration("cycle-interval", 5*time.Second, "Trading cycle interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	verbose := flag.Bool("verbose", false, "Verbose trading loop logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[vaultd] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *botAuthority == "" {
		logger.Fatal("--bot-authority is required")
	}
	// Mints may be off-curve program addresses; the bot authority is a
	// wallet key and must be on-curve.
	if !pubkey.OnCurve(*botAuthority) {
		logger.Fatalf("--bot-authority %q is not a valid wallet public key", *botAuthority)
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	mints := resolveMints(*watchMints, logger)
	logger.Printf("Watching %d mints", len(mints))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create ledgers and rehydrate from persisted snapshots
	delegations := vault.NewDelegationLedger()
	positions := vault.NewPositionLedger(delegations)
	if err := restoreLedgers(ctx, stores, delegations, positions, logger); err != nil {
		logger.Fatalf("Failed to restore ledgers: %v", err)
	}

	// Create market data provider
	market, err := createMarket(ctx, *wsEndpoint, mints, logger)
	if err != nil {
		logger.Fatalf("Failed to create market data provider: %v", err)
	}
	defer market.Close()

	// Create trading runner
	runner, err := bot.New(bot.Options{
		Delegations:       delegations,
		Positions:         positions,
		Market:            market,
		DelegationStore:   stores.delegationStore,
		PositionStore:     stores.positionStore,
		TradeHistoryStore: stores.historyStore,
		BotAuthority:      *botAuthority,
		WatchMints:        mints,
		Interval:          *cycleInterval,
		Verbose:           *verbose,
	})
	if err != nil {
		logger.Fatalf("Failed to create runner: %v", err)
	}

	server := &Server{
		wsEndpoint:    *wsEndpoint,
		botAuthority:  *botAuthority,
		watchMints:    mints,
		cycleInterval: *cycleInterval,
		useMemory:     *useMemory,
		delegations:   delegations,
		positions:     positions,
		market:        market,
		runner:        runner,
		logger:        logger,
		startedAt:     time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*metricsAddr)

	// Run the daemon
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolveMints parses and validates the watch list.
func resolveMints(raw string, logger *log.Logger) []string {
	seen := make(map[string]bool)
	var list []string
	for _, m := range strings.Split(raw, ",") {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		if !pubkey.Valid(m) {
			logger.Printf("Skipping invalid mint %q", m)
			continue
		}
		seen[m] = true
		list = append(list, m)
	}
	return list
}

// createStores creates the required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*vaultStores, func(), error) {
	if useMemory {
		stores := &vaultStores{
			delegationStore: memory.NewDelegationStore(),
			positionStore:   memory.NewPositionStore(),
			historyStore:    memory.NewTradeHistoryStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &vaultStores{
		delegationStore: pgstore.NewDelegationStore(pool),
		positionStore:   pgstore.NewPositionStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse trade history is optional
	if clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.historyStore = chstore.NewTradeHistoryStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// restoreLedgers rehydrates the in-memory ledgers from persisted snapshots.
func restoreLedgers(
	ctx context.Context,
	stores *vaultStores,
	delegations *vault.DelegationLedger,
	positions *vault.PositionLedger,
	logger *log.Logger,
) error {
	dels, err := stores.delegationStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list delegations: %w", err)
	}
	for _, d := range dels {
		delegations.Restore(*d)
	}

	open, err := stores.positionStore.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open positions: %w", err)
	}
	for _, p := range open {
		if err := positions.Restore(*p); err != nil {
			logger.Printf("Skipping orphan position %s: %v", p.ID, err)
		}
	}

	logger.Printf("Restored %d delegations, %d open positions", len(dels), len(open))
	return nil
}

// createMarket creates the market data provider. An empty endpoint selects
// the stub feed for local runs.
func createMarket(ctx context.Context, wsEndpoint string, mints []string, logger *log.Logger) (marketdata.Provider, error) {
	if wsEndpoint == "" {
		logger.Println("No WebSocket endpoint configured, using stub market data feed")
		return marketdata.NewStubFeed(), nil
	}

	feed, err := marketdata.NewWSFeed(ctx, wsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create websocket feed: %w", err)
	}
	if len(mints) > 0 {
		if _, err := feed.SubscribePrices(ctx, mints); err != nil {
			feed.Close()
			return nil, fmt.Errorf("subscribe prices: %w", err)
		}
	}
	return feed, nil
}

// Run starts the daemon components.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting vault daemon...")

	errCh := make(chan error, 2)

	// Trading loop
	go func() {
		err := s.runner.Run(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("trading loop: %w", err)
		}
	}()

	// Uptime counter
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	BotAuthority  string `json:"bot_authority"`
	WatchedMints  int    `json:"watched_mints"`
	Delegations   int    `json:"delegations"`
	OpenPositions int    `json:"open_positions"`
}

// handleStatus returns daemon status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	dels := s.delegations.List()
	open := 0
	for _, d := range dels {
		open += int(d.ActiveTrades)
	}

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(startedAt).String(),
		BotAuthority:  s.botAuthority,
		WatchedMints:  len(s.watchMints),
		Delegations:   len(dels),
		OpenPositions: open,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads .env into the environment without overriding set vars.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
