package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// RateProvider exposes read-only, idempotent quotes from the upstream rate
// source. The base currency short-circuits to 1.0 without a network call.
// Failures surface as models.ErrRateUnavailable; retry policy belongs to the
// caller, not the provider.
type RateProvider interface {
	CurrentRate(ctx context.Context, currencyCode string) (decimal.Decimal, error)
	BuySellRate(ctx context.Context, currencyCode string) (models.BuySellRate, error)
	HistoricalRates(ctx context.Context, currencyCode string, from, to time.Time) ([]models.Rate, error)
	CurrentGoldPrice(ctx context.Context) (models.GoldPrice, error)
	HistoricalGoldPrices(ctx context.Context, from, to time.Time) ([]models.GoldPrice, error)
}
