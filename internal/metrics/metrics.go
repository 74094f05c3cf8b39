package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// TradeMetrics holds the Prometheus instruments for trade execution.
type TradeMetrics struct {
	TradesTotal         *prometheus.CounterVec
	TradeVolumePlnTotal *prometheus.CounterVec
	TradeErrorsTotal    *prometheus.CounterVec
	RateFetchDuration   *prometheus.HistogramVec
	LogAppendFailures   prometheus.Counter
}

// NewTradeMetrics registers the trade instruments with the default registry.
func NewTradeMetrics() *TradeMetrics {
	return &TradeMetrics{
		TradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_total",
				Help: "Total number of executed trades",
			},
			[]string{"type", "currency"},
		),
		TradeVolumePlnTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trade_volume_pln_total",
				Help: "Total traded volume in PLN",
			},
			[]string{"type", "currency"},
		),
		TradeErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trade_errors_total",
				Help: "Total number of failed trades by reason",
			},
			[]string{"type", "reason"},
		),
		RateFetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_fetch_duration_seconds",
				Help:    "Duration of upstream rate lookups in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"endpoint"},
		),
		LogAppendFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "transaction_log_append_failures_total",
				Help: "Total number of swallowed transaction log append failures",
			},
		),
	}
}

// RecordTrade records one executed trade and its PLN volume.
func (m *TradeMetrics) RecordTrade(tradeType, currency string, amountPln decimal.Decimal) {
	m.TradesTotal.WithLabelValues(tradeType, currency).Inc()
	volume, _ := amountPln.Float64()
	m.TradeVolumePlnTotal.WithLabelValues(tradeType, currency).Add(volume)
}

// RecordTradeError records one failed trade, labeled by the taxonomy error.
func (m *TradeMetrics) RecordTradeError(tradeType string, cause error) {
	m.TradeErrorsTotal.WithLabelValues(tradeType, errorReason(cause)).Inc()
}

// RecordLogAppendFailure records one swallowed log append failure.
func (m *TradeMetrics) RecordLogAppendFailure() {
	m.LogAppendFailures.Inc()
}

// ObserveRateFetch records the duration of one upstream rate lookup.
func (m *TradeMetrics) ObserveRateFetch(endpoint string, seconds float64) {
	m.RateFetchDuration.WithLabelValues(endpoint).Observe(seconds)
}

func errorReason(cause error) string {
	switch {
	case errors.Is(cause, models.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(cause, models.ErrUnsupportedCurrency):
		return "unsupported_currency"
	case errors.Is(cause, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(cause, models.ErrRateUnavailable):
		return "rate_unavailable"
	case errors.Is(cause, models.ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
