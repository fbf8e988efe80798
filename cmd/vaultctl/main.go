// Command vaultctl manages delegations in the snapshot store: create,
// update, revoke, stats, list and trade history. All writes go through the
// ledger validation rules before being persisted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"curverider/internal/domain"
	"curverider/internal/pubkey"
	"curverider/internal/storage"
	chstore "curverider/internal/storage/clickhouse"
	"curverider/internal/storage/migrations"
	pgstore "curverider/internal/storage/postgres"
	"curverider/internal/vault"
)

func main() {
	action := flag.String("action", "", "Action: create, update, revoke, stats, list, history (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (history only)")

	user := flag.String("user", "", "User public key")
	botAuthority := flag.String("bot-authority", "", "Bot authority public key (create only)")
	strategyName := flag.String("strategy", "", "Strategy: conservative, sniper, scalper, graduation")
	maxPositionSize := flag.Uint64("max-position-size", 0, "Max position size in lamports")
	maxConcurrent := flag.Uint("max-concurrent", 0, "Max concurrent trades (1..10)")
	active := flag.Bool("active", true, "Delegation active flag (update only)")

	flag.Parse()

	logger := log.New(os.Stderr, "[vaultctl] ", log.LstdFlags)

	if *action == "" {
		logger.Fatal("--action is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("postgres migrations: %v", err)
	}
	store := pgstore.NewDelegationStore(pool)

	switch strings.ToLower(*action) {
	case "create":
		err = runCreate(ctx, store, *user, *botAuthority, *strategyName, *maxPositionSize, *maxConcurrent)
	case "update":
		err = runUpdate(ctx, store, *user, *strategyName, *maxPositionSize, *maxConcurrent, *active)
	case "revoke":
		err = runRevoke(ctx, store, *user)
	case "stats":
		err = runStats(ctx, store, *user)
	case "list":
		err = runList(ctx, store)
	case "history":
		err = runHistory(ctx, *clickhouseDSN, *user)
	default:
		err = fmt.Errorf("unknown action %q", *action)
	}
	if err != nil {
		logger.Fatal(err)
	}
}

func runCreate(ctx context.Context, store storage.DelegationStore, user, botAuthority, strategyName string, maxPositionSize uint64, maxConcurrent uint) error {
	if !pubkey.OnCurve(user) {
		return fmt.Errorf("--user %q is not a valid wallet public key", user)
	}
	if !pubkey.OnCurve(botAuthority) {
		return fmt.Errorf("--bot-authority %q is not a valid wallet public key", botAuthority)
	}
	strategy, err := domain.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	if maxConcurrent > 255 {
		return fmt.Errorf("--max-concurrent out of range")
	}

	if _, err := store.GetByUser(ctx, user); err == nil {
		return fmt.Errorf("delegation for %s already exists", user)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	ledger := vault.NewDelegationLedger()
	d, err := ledger.CreateDelegation(user, botAuthority, strategy, maxPositionSize, uint8(maxConcurrent))
	if err != nil {
		return fmt.Errorf("create delegation: %w", err)
	}
	if err := store.Upsert(ctx, &d); err != nil {
		return fmt.Errorf("persist delegation: %w", err)
	}

	fmt.Printf("Created delegation: user=%s bot=%s strategy=%s size=%.6f SOL concurrent=%d\n",
		d.User, d.BotAuthority, d.Strategy, sol(int64(d.MaxPositionSizeSol)), d.MaxConcurrentTrades)
	return nil
}

func runUpdate(ctx context.Context, store storage.DelegationStore, user, strategyName string, maxPositionSize uint64, maxConcurrent uint, active bool) error {
	snapshot, err := store.GetByUser(ctx, user)
	if err != nil {
		return fmt.Errorf("load delegation: %w", err)
	}

	// Only flags that were set on the command line become update fields.
	var upd domain.DelegationUpdate
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			strategy, err := domain.ParseStrategy(strategyName)
			if err != nil {
				flagErr = err
				return
			}
			upd.Strategy = &strategy
		case "max-position-size":
			upd.MaxPositionSizeSol = &maxPositionSize
		case "max-concurrent":
			if maxConcurrent > 255 {
				flagErr = fmt.Errorf("--max-concurrent out of range")
				return
			}
			v := uint8(maxConcurrent)
			upd.MaxConcurrentTrades = &v
		case "active":
			upd.IsActive = &active
		}
	})
	if flagErr != nil {
		return flagErr
	}

	ledger := vault.NewDelegationLedger()
	ledger.Restore(*snapshot)
	d, err := ledger.UpdateDelegation(user, user, upd)
	if err != nil {
		return fmt.Errorf("update delegation: %w", err)
	}
	if err := store.Upsert(ctx, &d); err != nil {
		return fmt.Errorf("persist delegation: %w", err)
	}

	fmt.Printf("Updated delegation: user=%s strategy=%s size=%.6f SOL concurrent=%d active=%v\n",
		d.User, d.Strategy, sol(int64(d.MaxPositionSizeSol)), d.MaxConcurrentTrades, d.IsActive)
	return nil
}

func runRevoke(ctx context.Context, store storage.DelegationStore, user string) error {
	snapshot, err := store.GetByUser(ctx, user)
	if err != nil {
		return fmt.Errorf("load delegation: %w", err)
	}

	ledger := vault.NewDelegationLedger()
	ledger.Restore(*snapshot)
	d, err := ledger.RevokeDelegation(user, user)
	if err != nil {
		return fmt.Errorf("revoke delegation: %w", err)
	}
	if err := store.Upsert(ctx, &d); err != nil {
		return fmt.Errorf("persist delegation: %w", err)
	}

	fmt.Printf("Revoked delegation for %s\n", user)
	return nil
}

func runStats(ctx context.Context, store storage.DelegationStore, user string) error {
	d, err := store.GetByUser(ctx, user)
	if err != nil {
		return fmt.Errorf("load delegation: %w", err)
	}

	fmt.Printf("User:               %s\n", d.User)
	fmt.Printf("Bot Authority:      %s\n", d.BotAuthority)
	fmt.Printf("Strategy:           %s\n", d.Strategy)
	fmt.Printf("Max Position Size:  %.6f SOL\n", sol(int64(d.MaxPositionSizeSol)))
	fmt.Printf("Max Concurrent:     %d\n", d.MaxConcurrentTrades)
	fmt.Printf("Active:             %v\n", d.IsActive)
	fmt.Printf("Active Trades:      %d\n", d.ActiveTrades)
	fmt.Printf("Total Trades:       %d\n", d.TotalTrades)
	fmt.Printf("Profitable Trades:  %d\n", d.ProfitableTrades)
	if d.TotalTrades > 0 {
		fmt.Printf("Win Rate:           %.1f%%\n", 100*float64(d.ProfitableTrades)/float64(d.TotalTrades))
	}
	fmt.Printf("Total PnL:          %.6f SOL\n", sol(d.TotalPnl))
	fmt.Printf("Created At:         %s\n", d.CreatedAt.Format(time.RFC3339))
	if !d.LastTradeAt.IsZero() {
		fmt.Printf("Last Trade At:      %s\n", d.LastTradeAt.Format(time.RFC3339))
	}
	return nil
}

func runList(ctx context.Context, store storage.DelegationStore) error {
	dels, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list delegations: %w", err)
	}

	for _, d := range dels {
		state := "active"
		if !d.IsActive {
			state = "revoked"
		}
		fmt.Printf("%s  %-22s  %-8s  trades=%d/%d  pnl=%.6f SOL\n",
			d.User, d.Strategy, state, d.ProfitableTrades, d.TotalTrades, sol(d.TotalPnl))
	}
	fmt.Printf("%d delegation(s)\n", len(dels))
	return nil
}

func runHistory(ctx context.Context, clickhouseDSN, user string) error {
	if clickhouseDSN == "" {
		return fmt.Errorf("--clickhouse-dsn is required for history")
	}
	if user == "" {
		return fmt.Errorf("--user is required for history")
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	trades, err := chstore.NewTradeHistoryStore(conn).GetByUser(ctx, user)
	if err != nil {
		return fmt.Errorf("load trade history: %w", err)
	}

	var total int64
	for _, t := range trades {
		hold := time.Duration(t.ClosedAtMs-t.OpenedAtMs) * time.Millisecond
		fmt.Printf("%s  %s  %-15s  in=%.6f SOL  pnl=%+.6f SOL  held=%v\n",
			time.UnixMilli(t.ClosedAtMs).Format(time.RFC3339),
			t.TokenMint, t.ExitReason, sol(int64(t.AmountSol)), sol(t.Pnl), hold)
		total += t.Pnl
	}
	fmt.Printf("%d trade(s), total pnl=%+.6f SOL\n", len(trades), sol(total))
	return nil
}

func sol(lamports int64) float64 {
	return float64(lamports) / 1_000_000_000
}
