package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"curverider/internal/domain"
)

// StubFeed is an in-memory Provider for tests and local runs. Prices and
// metrics are set directly and pushed to subscribers.
type StubFeed struct {
	mu        sync.RWMutex
	prices    map[string]uint64
	snapshots map[string]domain.TokenMetrics
	subs      []chan PriceUpdate
	closed    bool
}

var _ Provider = (*StubFeed)(nil)

// NewStubFeed creates an empty stub feed.
func NewStubFeed() *StubFeed {
	return &StubFeed{
		prices:    make(map[string]uint64),
		snapshots: make(map[string]domain.TokenMetrics),
	}
}

// SetPrice records a price and pushes a tick to all subscribers.
func (s *StubFeed) SetPrice(mint string, price uint64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.prices[mint] = price
	subs := make([]chan PriceUpdate, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	update := PriceUpdate{Mint: mint, Price: price, ReceivedAt: time.Now()}
	for _, ch := range subs {
		select {
		case ch <- update:
		default:
			// Slow test consumer, drop rather than deadlock
		}
	}
}

// SetMetrics records a metrics snapshot for a mint.
func (s *StubFeed) SetMetrics(m domain.TokenMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[m.Mint] = m
}

// SubscribePrices returns a channel receiving every subsequent SetPrice.
func (s *StubFeed) SubscribePrices(_ context.Context, _ []string) (<-chan PriceUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("feed closed")
	}

	ch := make(chan PriceUpdate, 1000)
	s.subs = append(s.subs, ch)
	return ch, nil
}

// Metrics returns the snapshot recorded by SetMetrics.
func (s *StubFeed) Metrics(_ context.Context, mint string) (*domain.TokenMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[mint]
	if !ok {
		return nil, fmt.Errorf("no metrics for mint %s", mint)
	}
	out := snap
	return &out, nil
}

// Close closes all subscriber channels.
func (s *StubFeed) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	return nil
}
