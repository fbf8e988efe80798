// Package marketdata delivers token prices and metrics to the trading loop.
package marketdata

import (
	"context"
	"time"

	"curverider/internal/domain"
)

// PriceUpdate is a single price tick for a token.
type PriceUpdate struct {
	Mint       string
	Price      uint64 // lamports per token unit
	ReceivedAt time.Time
}

// Provider supplies live prices and metric snapshots for tokens.
type Provider interface {
	// SubscribePrices returns a channel of price ticks for the given mints.
	// The channel is closed when the provider shuts down.
	SubscribePrices(ctx context.Context, mints []string) (<-chan PriceUpdate, error)

	// Metrics returns the latest known metrics snapshot for a mint.
	Metrics(ctx context.Context, mint string) (*domain.TokenMetrics, error)

	// Close releases provider resources.
	Close() error
}
