package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"curverider/internal/domain"
	"curverider/internal/observability"
)

// WSFeedConfig configures WebSocket feed behavior.
type WSFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSFeedConfig returns default WebSocket feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSFeed implements Provider over a gorilla/websocket market data stream.
type WSFeed struct {
	endpoint string
	config   WSFeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subscribed mints, kept for resubscription after reconnect
	mints   map[string]struct{}
	mintsMu sync.RWMutex

	// price tick channels by subscriber
	subs   []chan PriceUpdate
	subsMu sync.Mutex

	// latest metrics snapshot per mint
	snapshots   map[string]domain.TokenMetrics
	snapshotsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ Provider = (*WSFeed)(nil)

// NewWSFeed connects to the endpoint and starts the read and ping loops.
func NewWSFeed(ctx context.Context, endpoint string, config *WSFeedConfig) (*WSFeed, error) {
	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WSFeed{
		endpoint:  endpoint,
		config:    cfg,
		mints:     make(map[string]struct{}),
		snapshots: make(map[string]domain.TokenMetrics),
		done:      make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// SubscribePrices subscribes to price ticks for the given mints.
func (f *WSFeed) SubscribePrices(ctx context.Context, mints []string) (<-chan PriceUpdate, error) {
	if f.closed.Load() {
		return nil, fmt.Errorf("feed closed")
	}

	if err := f.sendSubscribe(mints); err != nil {
		return nil, err
	}

	f.mintsMu.Lock()
	for _, m := range mints {
		f.mints[m] = struct{}{}
	}
	f.mintsMu.Unlock()

	// Large buffer absorbs bursts; blocking send ensures no tick loss.
	ch := make(chan PriceUpdate, 10000)
	f.subsMu.Lock()
	f.subs = append(f.subs, ch)
	f.subsMu.Unlock()

	return ch, nil
}

// Metrics returns the latest metrics snapshot for a mint.
func (f *WSFeed) Metrics(_ context.Context, mint string) (*domain.TokenMetrics, error) {
	f.snapshotsMu.RLock()
	snap, ok := f.snapshots[mint]
	f.snapshotsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no metrics for mint %s", mint)
	}
	out := snap
	return &out, nil
}

// Close closes the WebSocket connection and all subscriber channels.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.subsMu.Lock()
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
	f.subsMu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *WSFeed) sendSubscribe(mints []string) error {
	req := wsSubscribeRequest{Op: "subscribe", Mints: mints}

	f.connMu.Lock()
	defer f.connMu.Unlock()

	if f.conn == nil {
		return fmt.Errorf("not connected")
	}

	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			// Connection error, reconnect with exponential backoff
			if !f.reconnecting.Swap(true) {
				go f.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (f *WSFeed) reconnect(delay time.Duration) {
	defer f.reconnecting.Store(false)

	if f.closed.Load() {
		return
	}

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	f.mintsMu.RLock()
	mints := make([]string, 0, len(f.mints))
	for m := range f.mints {
		mints = append(mints, m)
	}
	f.mintsMu.RUnlock()

	if len(mints) > 0 {
		f.sendSubscribe(mints)
	}
}

// handleMessage processes an incoming feed message.
func (f *WSFeed) handleMessage(message []byte) {
	start := time.Now()

	var msg wsFeedMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "price":
		update := PriceUpdate{
			Mint:       msg.Mint,
			Price:      msg.Price,
			ReceivedAt: time.Now(),
		}
		observability.RecordPriceUpdate()
		f.dispatch(update)

	case "metrics":
		if msg.Metrics == nil {
			return
		}
		f.snapshotsMu.Lock()
		f.snapshots[msg.Mint] = msg.Metrics.toDomain(msg.Mint)
		f.snapshotsMu.Unlock()
	}

	observability.DefaultMetrics.WSMessageLatency.Observe(time.Since(start).Seconds())
}

func (f *WSFeed) dispatch(update PriceUpdate) {
	f.subsMu.Lock()
	subs := make([]chan PriceUpdate, len(f.subs))
	copy(subs, f.subs)
	f.subsMu.Unlock()

	for _, ch := range subs {
		// Block until we can send, never drop ticks
		select {
		case ch <- update:
		case <-f.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			f.connMu.Unlock()
		}
	}
}

// Feed wire types

type wsSubscribeRequest struct {
	Op    string   `json:"op"`
	Mints []string `json:"mints"`
}

type wsFeedMessage struct {
	Type    string         `json:"type"`
	Mint    string         `json:"mint"`
	Price   uint64         `json:"price,omitempty"`
	Metrics *wsMetricsBody `json:"metrics,omitempty"`
}

type wsMetricsBody struct {
	Symbol               string  `json:"symbol"`
	Volume5m             float64 `json:"volume_5m"`
	Volume1h             float64 `json:"volume_1h"`
	Volume24h            float64 `json:"volume_24h"`
	LiquiditySol         float64 `json:"liquidity_sol"`
	HolderCount          int     `json:"holder_count"`
	HolderConcentration  float64 `json:"holder_concentration"`
	CurrentPrice         float64 `json:"current_price"`
	PriceChange5m        float64 `json:"price_change_5m"`
	PriceChange1h        float64 `json:"price_change_1h"`
	BuyPressure          float64 `json:"buy_pressure"`
	SellPressure         float64 `json:"sell_pressure"`
	BondingCurveProgress float64 `json:"bonding_curve_progress"`
	IsGraduated          bool    `json:"is_graduated"`
	AgeSeconds           int64   `json:"age_seconds"`
	VolumeAcceleration   float64 `json:"volume_acceleration"`
}

func (b *wsMetricsBody) toDomain(mint string) domain.TokenMetrics {
	return domain.TokenMetrics{
		Mint:                 mint,
		Symbol:               b.Symbol,
		Volume5m:             b.Volume5m,
		Volume1h:             b.Volume1h,
		Volume24h:            b.Volume24h,
		LiquiditySol:         b.LiquiditySol,
		HolderCount:          b.HolderCount,
		HolderConcentration:  b.HolderConcentration,
		CurrentPrice:         b.CurrentPrice,
		PriceChange5m:        b.PriceChange5m,
		PriceChange1h:        b.PriceChange1h,
		BuyPressure:          b.BuyPressure,
		SellPressure:         b.SellPressure,
		BondingCurveProgress: b.BondingCurveProgress,
		IsGraduated:          b.IsGraduated,
		AgeSeconds:           b.AgeSeconds,
		VolumeAcceleration:   b.VolumeAcceleration,
	}
}
