// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Delegation metrics
	DelegationsCreated prometheus.Counter
	DelegationsRevoked prometheus.Counter
	DelegationsUpdated prometheus.Counter
	ActiveDelegations  prometheus.Gauge

	// Position metrics
	PositionsOpened *prometheus.CounterVec
	PositionsClosed *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	RealizedPnl     prometheus.Gauge

	// Signal metrics
	SignalsEvaluated *prometheus.CounterVec
	SignalConfidence *prometheus.HistogramVec

	// Exit policy metrics
	ExitEvaluations prometheus.Counter
	ExitsTriggered  *prometheus.CounterVec

	// Market data metrics
	PriceUpdatesReceived prometheus.Counter
	WSMessageLatency     prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "curverider"
	}

	return &Metrics{
		// Delegation metrics
		DelegationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "delegations_created_total",
			Help:      "Total number of delegations created",
		}),
		DelegationsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "delegations_revoked_total",
			Help:      "Total number of delegations revoked",
		}),
		DelegationsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "delegations_updated_total",
			Help:      "Total number of delegation parameter updates",
		}),
		ActiveDelegations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "active_delegations",
			Help:      "Current number of active delegations",
		}),

		// Position metrics
		PositionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened by strategy",
		}, []string{"strategy"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"exit_reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		RealizedPnl: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "realized_pnl_lamports",
			Help:      "Total realized PnL across all delegations in lamports",
		}),

		// Signal metrics
		SignalsEvaluated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "evaluations_total",
			Help:      "Total number of signal evaluations by strategy and signal kind",
		}, []string{"strategy", "signal"}),
		SignalConfidence: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "confidence",
			Help:      "Distribution of signal confidence by strategy",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.45, 0.65, 0.75, 0.85, 0.95, 1.0},
		}, []string{"strategy"}),

		// Exit policy metrics
		ExitEvaluations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exitpolicy",
			Name:      "evaluations_total",
			Help:      "Total number of exit policy evaluations",
		}),
		ExitsTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exitpolicy",
			Name:      "exits_triggered_total",
			Help:      "Total number of exits triggered by reason",
		}, []string{"reason"}),

		// Market data metrics
		PriceUpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "price_updates_received_total",
			Help:      "Total number of price updates received",
		}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful trading cycle",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDelegationCreated increments the delegations created counter.
// ActiveDelegations is set by the trading loop each cycle.
func RecordDelegationCreated() {
	DefaultMetrics.DelegationsCreated.Inc()
}

// RecordDelegationRevoked increments the delegations revoked counter.
func RecordDelegationRevoked() {
	DefaultMetrics.DelegationsRevoked.Inc()
}

// RecordPositionOpened records a newly opened position.
func RecordPositionOpened(strategy string) {
	DefaultMetrics.PositionsOpened.WithLabelValues(strategy).Inc()
	DefaultMetrics.OpenPositions.Inc()
}

// RecordPositionClosed records a closed position by exit reason.
func RecordPositionClosed(exitReason string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(exitReason).Inc()
	DefaultMetrics.OpenPositions.Dec()
}

// RecordSignal records a signal evaluation.
func RecordSignal(strategy, signal string, confidence float64) {
	DefaultMetrics.SignalsEvaluated.WithLabelValues(strategy, signal).Inc()
	DefaultMetrics.SignalConfidence.WithLabelValues(strategy).Observe(confidence)
}

// RecordExitEvaluation increments the exit evaluation counter.
func RecordExitEvaluation() {
	DefaultMetrics.ExitEvaluations.Inc()
}

// RecordExitTriggered records a triggered exit by reason.
func RecordExitTriggered(reason string) {
	DefaultMetrics.ExitsTriggered.WithLabelValues(reason).Inc()
}

// RecordPriceUpdate increments the price updates received counter.
func RecordPriceUpdate() {
	DefaultMetrics.PriceUpdatesReceived.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
