package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// LedgerMetrics holds the Prometheus collectors for ledger and rate activity.
type LedgerMetrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationResults  *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	TransactionsTotal *prometheus.CounterVec
	TransactionAmount *prometheus.CounterVec
	RateFetches       *prometheus.CounterVec
	RateRefreshRuns   *prometheus.CounterVec
}

// NewLedgerMetrics registers the collectors on reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	factory := promauto.With(reg)

	return &LedgerMetrics{
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundapp_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_operation_results_total",
				Help: "Ledger operation outcomes by error code",
			},
			[]string{"operation", "result"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_cache_lookups_total",
				Help: "Entity cache lookups",
			},
			[]string{"entity", "outcome"},
		),
		TransactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_transactions_total",
				Help: "Completed money movements",
			},
			[]string{"type", "currency"},
		),
		TransactionAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_transaction_amount_total",
				Help: "Sum of amounts moved, in the sending currency",
			},
			[]string{"type", "currency"},
		),
		RateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_rate_fetches_total",
				Help: "Calls to the exchange rate provider",
			},
			[]string{"currency", "result"},
		),
		RateRefreshRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundapp_rate_refresh_runs_total",
				Help: "Scheduled full-table rate refresh runs",
			},
			[]string{"result"},
		),
	}
}

func (m *LedgerMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *LedgerMetrics) RecordOperationResult(operation, result string) {
	m.OperationResults.WithLabelValues(operation, result).Inc()
}

func (m *LedgerMetrics) RecordCacheHit(entity string) {
	m.CacheLookups.WithLabelValues(entity, "hit").Inc()
}

func (m *LedgerMetrics) RecordCacheMiss(entity string) {
	m.CacheLookups.WithLabelValues(entity, "miss").Inc()
}

func (m *LedgerMetrics) RecordTransaction(txType, currency string, amount decimal.Decimal) {
	m.TransactionsTotal.WithLabelValues(txType, currency).Inc()
	m.TransactionAmount.WithLabelValues(txType, currency).Add(amount.InexactFloat64())
}

func (m *LedgerMetrics) RecordRateFetch(currency, result string) {
	m.RateFetches.WithLabelValues(currency, result).Inc()
}

func (m *LedgerMetrics) RecordRefreshRun(result string) {
	m.RateRefreshRuns.WithLabelValues(result).Inc()
}
