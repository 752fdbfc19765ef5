package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// LedgerOperations counts wallet credits and debits by outcome
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luvy_ledger_operations_total",
			Help: "The total number of ledger operations",
		},
		[]string{"operation", "result"}, // credit/debit, success/insufficient/retryable/failed
	)

	// LedgerOperationSeconds tracks unit of work latency
	LedgerOperationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "luvy_ledger_operation_seconds",
			Help:    "Time taken by a ledger unit of work in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// TokenValue is the last committed token value in EUR
	TokenValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "luvy_token_value_eur",
		Help: "The current token value in EUR",
	})

	// CirculatingSupply is the last committed circulating supply
	CirculatingSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "luvy_circulating_supply",
		Help: "The current circulating token supply",
	})

	// ReceiptDecisions counts receipt approvals and rejections
	ReceiptDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luvy_receipt_decisions_total",
			Help: "The total number of receipt decisions",
		},
		[]string{"status"},
	)

	// RewardsIssued counts tokens issued by source
	RewardsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luvy_rewards_issued_total",
			Help: "The total amount of tokens issued",
		},
		[]string{"source"}, // receipt, achievement, challenge, referral, manual
	)

	// SnapshotsTaken counts market history snapshots
	SnapshotsTaken = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luvy_market_snapshots_total",
			Help: "The total number of market snapshots",
		},
		[]string{"interval", "status"},
	)
)

// RecordLedgerOperation records the outcome and latency of a ledger operation
func RecordLedgerOperation(operation, result string, started time.Time) {
	LedgerOperations.WithLabelValues(operation, result).Inc()
	LedgerOperationSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// SetMarket publishes the committed market state
func SetMarket(tokenValue, circulating decimal.Decimal) {
	TokenValue.Set(tokenValue.InexactFloat64())
	CirculatingSupply.Set(circulating.InexactFloat64())
}

// RecordReward adds an issued reward amount
func RecordReward(source string, amount decimal.Decimal) {
	RewardsIssued.WithLabelValues(source).Add(amount.InexactFloat64())
}

// RecordReceiptDecision counts a receipt approval or rejection
func RecordReceiptDecision(status string) {
	ReceiptDecisions.WithLabelValues(status).Inc()
}

// RecordSnapshot counts a market snapshot attempt
func RecordSnapshot(interval, status string) {
	SnapshotsTaken.WithLabelValues(interval, status).Inc()
}
