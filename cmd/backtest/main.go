// Command backtest replays a recorded snapshot file through the vault's
// scoring and exit machinery and reports the simulated trades.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"curverider/internal/backtest"
	"curverider/internal/domain"
)

func main() {
	inputPath := flag.String("input", "", "Snapshot file, one JSON object per line (required)")
	strategyName := flag.String("strategy", "", "Strategy: conservative, sniper, scalper, graduation (required)")
	user := flag.String("user", "BacktestUser", "User identity for the simulated delegation")
	botAuthority := flag.String("bot-authority", "BacktestBot", "Bot authority for the simulated delegation")
	maxPositionSize := flag.Uint64("max-position-size", 100_000_000, "Position size in lamports")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *inputPath == "" {
		logger.Fatal("--input is required")
	}
	strategy, err := domain.ParseStrategy(*strategyName)
	if err != nil {
		logger.Fatal(err)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		logger.Fatalf("open input: %v", err)
	}
	defer f.Close()

	snapshots, err := backtest.LoadSnapshots(f)
	if err != nil {
		logger.Fatalf("load snapshots: %v", err)
	}
	if len(snapshots) == 0 {
		logger.Fatal("input contains no snapshots")
	}

	logger.Printf("replaying %d snapshots, strategy=%s", len(snapshots), strategy)

	results, err := backtest.Run(backtest.Config{
		User:               *user,
		BotAuthority:       *botAuthority,
		Strategy:           strategy,
		MaxPositionSizeSol: *maxPositionSize,
	}, snapshots)
	if err != nil {
		logger.Fatalf("replay failed: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
	} else {
		printResults(results)
	}
}

// printResults outputs a human-readable replay report.
func printResults(r *backtest.Results) {
	fmt.Println()
	fmt.Println("=== Replay Result ===")
	fmt.Printf("Strategy:           %s\n", r.Strategy)
	fmt.Printf("Mint:               %s\n", r.Mint)
	fmt.Printf("Events:             %d\n", r.EventCount)
	fmt.Printf("Buy Signals:        %d\n", r.BuySignals)
	fmt.Println()

	for i, t := range r.Trades {
		fmt.Printf("Trade %d:\n", i+1)
		fmt.Printf("  Position ID:      %s\n", t.PositionID)
		fmt.Printf("  Amount:           %.6f SOL\n", sol(int64(t.AmountSol)))
		fmt.Printf("  Entry Price:      %d\n", t.EntryPrice)
		fmt.Printf("  Exit Price:       %d\n", t.ExitPrice)
		fmt.Printf("  Exit Reason:      %s\n", t.ExitReason)
		fmt.Printf("  Hold Duration:    %v\n", time.Duration(t.HoldDurationMs)*time.Millisecond)
		fmt.Printf("  PnL:              %.6f SOL\n", sol(t.Pnl))
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  Trades:           %d\n", len(r.Trades))
	fmt.Printf("  Profitable:       %d\n", r.ProfitableTrades)
	fmt.Printf("  Total PnL:        %.6f SOL\n", sol(r.TotalPnl))
	if r.OpenAtEnd {
		fmt.Println("  Note:             position still open at end of replay")
	}
}

func sol(lamports int64) float64 {
	return float64(lamports) / 1_000_000_000
}
