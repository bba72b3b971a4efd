package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HiFi metrics collector

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all HiFi metrics
type Collector struct {
	// Pool metrics
	PoolTotalAssets   *prometheus.GaugeVec
	PoolPnL           *prometheus.GaugeVec
	PoolPhase         *prometheus.GaugeVec
	DepositsTotal     *prometheus.CounterVec
	DepositValue      *prometheus.CounterVec
	WithdrawalsTotal  *prometheus.CounterVec
	WithdrawalValue   *prometheus.CounterVec
	LiquidationsTotal *prometheus.CounterVec
	PoolResetsTotal   *prometheus.CounterVec

	// Delegation metrics
	GrantsTotal       *prometheus.CounterVec
	RevocationsTotal  *prometheus.CounterVec
	ExecutionsTotal   *prometheus.CounterVec
	GrantsExpired     prometheus.Counter
	StopLossTriggered *prometheus.CounterVec

	// Treasury metrics
	TreasuryBalance *prometheus.GaugeVec
	TreasuryInflow  *prometheus.CounterVec
	TreasuryOutflow *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight       prometheus.Gauge
	EndBlockerLatency *prometheus.HistogramVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{}

	// Pool metrics
	c.PoolTotalAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "total_assets",
			Help:      "Deployed principal plus accumulated PnL",
		},
		[]string{"pool_id", "tier"},
	)

	c.PoolPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "pnl",
			Help:      "Accumulated PnL of the current round",
		},
		[]string{"pool_id", "tier"},
	)

	c.PoolPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "phase",
			Help:      "1 for the phase the pool is in, 0 otherwise",
		},
		[]string{"pool_id", "phase"},
	)

	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "deposits_total",
			Help:      "Number of accepted deposits",
		},
		[]string{"pool_id"},
	)

	c.DepositValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "deposit_value_total",
			Help:      "Total value deposited",
		},
		[]string{"pool_id"},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "withdrawals_total",
			Help:      "Number of withdrawals by origin",
		},
		[]string{"pool_id", "origin"},
	)

	c.WithdrawalValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "withdrawal_value_total",
			Help:      "Total value paid out",
		},
		[]string{"pool_id"},
	)

	c.LiquidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "liquidations_total",
			Help:      "Number of pool liquidations",
		},
		[]string{"pool_id"},
	)

	c.PoolResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "pool",
			Name:      "resets_total",
			Help:      "Number of pool rounds completed",
		},
		[]string{"pool_id"},
	)

	// Delegation metrics
	c.GrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "delegation",
			Name:      "grants_total",
			Help:      "Number of permissions granted",
		},
		[]string{"capability"},
	)

	c.RevocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "delegation",
			Name:      "revocations_total",
			Help:      "Number of permissions revoked",
		},
		[]string{"capability"},
	)

	c.ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "delegation",
			Name:      "executions_total",
			Help:      "Delegated executions by capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	c.GrantsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "delegation",
			Name:      "grants_expired_total",
			Help:      "Number of grant expiries observed",
		},
	)

	c.StopLossTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "delegation",
			Name:      "stop_loss_triggered_total",
			Help:      "Stop-loss executions started by the sweep",
		},
		[]string{"pool_id"},
	)

	// Treasury metrics
	c.TreasuryBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "treasury",
			Name:      "balance",
			Help:      "Treasury fund balance",
		},
		[]string{"fund_id"},
	)

	c.TreasuryInflow = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "treasury",
			Name:      "inflow_total",
			Help:      "Total treasury inflows by kind",
		},
		[]string{"kind"},
	)

	c.TreasuryOutflow = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "treasury",
			Name:      "outflow_total",
			Help:      "Total treasury outflows by kind",
		},
		[]string{"kind"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hifi",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message broadcast latency",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hifi",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors by codespace",
		},
		[]string{"codespace", "code"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hifi",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Total rate limit hits",
		},
		[]string{"scope"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hifi",
			Subsystem: "chain",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.EndBlockerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hifi",
			Subsystem: "chain",
			Name:      "end_blocker_ms",
			Help:      "Time spent in end block processing",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
		},
		[]string{"module"},
	)

	c.registerAll()
	return c
}

func (c *Collector) registerAll() {
	prometheus.MustRegister(
		c.PoolTotalAssets,
		c.PoolPnL,
		c.PoolPhase,
		c.DepositsTotal,
		c.DepositValue,
		c.WithdrawalsTotal,
		c.WithdrawalValue,
		c.LiquidationsTotal,
		c.PoolResetsTotal,

		c.GrantsTotal,
		c.RevocationsTotal,
		c.ExecutionsTotal,
		c.GrantsExpired,
		c.StopLossTriggered,

		c.TreasuryBalance,
		c.TreasuryInflow,
		c.TreasuryOutflow,

		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.WSMessageLatency,
		c.WSSubscriptions,

		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.APIErrorsTotal,
		c.RateLimitHits,

		c.BlockHeight,
		c.EndBlockerLatency,
	)
}

// ============ Recording Helpers ============

// phases lists every pool phase so the phase gauge can be one-hot
var phases = []string{"collecting", "deployed", "withdraw_open", "liquidated"}

// RecordPool records a pool snapshot
func (c *Collector) RecordPool(poolID, tier, phase string, totalAssets, pnl float64) {
	c.PoolTotalAssets.WithLabelValues(poolID, tier).Set(totalAssets)
	c.PoolPnL.WithLabelValues(poolID, tier).Set(pnl)
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		c.PoolPhase.WithLabelValues(poolID, p).Set(v)
	}
}

// RecordDeposit records an accepted deposit
func (c *Collector) RecordDeposit(poolID string, amount float64) {
	c.DepositsTotal.WithLabelValues(poolID).Inc()
	c.DepositValue.WithLabelValues(poolID).Add(amount)
}

// RecordWithdrawal records a completed withdrawal. origin is "direct" or the
// delegated capability.
func (c *Collector) RecordWithdrawal(poolID, origin string, payout float64, reset bool) {
	c.WithdrawalsTotal.WithLabelValues(poolID, origin).Inc()
	c.WithdrawalValue.WithLabelValues(poolID).Add(payout)
	if reset {
		c.PoolResetsTotal.WithLabelValues(poolID).Inc()
	}
}

// RecordLiquidation records a pool liquidation
func (c *Collector) RecordLiquidation(poolID string) {
	c.LiquidationsTotal.WithLabelValues(poolID).Inc()
}

// RecordGrant records a new permission
func (c *Collector) RecordGrant(capability string) {
	c.GrantsTotal.WithLabelValues(capability).Inc()
}

// RecordRevocation records revoked permissions
func (c *Collector) RecordRevocation(capability string, n int) {
	c.RevocationsTotal.WithLabelValues(capability).Add(float64(n))
}

// RecordExecution records a delegated execution attempt
func (c *Collector) RecordExecution(capability string, succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	c.ExecutionsTotal.WithLabelValues(capability, outcome).Inc()
}

// RecordTreasury records the treasury balance and a movement
func (c *Collector) RecordTreasury(fundID, kind string, amount, balance float64) {
	c.TreasuryBalance.WithLabelValues(fundID).Set(balance)
	if amount >= 0 {
		c.TreasuryInflow.WithLabelValues(kind).Add(amount)
	} else {
		c.TreasuryOutflow.WithLabelValues(kind).Add(-amount)
	}
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordAPIError records an error response
func (c *Collector) RecordAPIError(codespace, code string) {
	c.APIErrorsTotal.WithLabelValues(codespace, code).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// RecordEndBlocker records block height and end block latency for module
func (c *Collector) RecordEndBlocker(module string, blockHeight int64, latencyMs float64) {
	c.BlockHeight.Set(float64(blockHeight))
	c.EndBlockerLatency.WithLabelValues(module).Observe(latencyMs)
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
