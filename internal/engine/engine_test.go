package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/currency-trading-service/internal/models"
	"github.com/sheikh-saqib/currency-trading-service/internal/storage/memory"
)

// stubRates serves fixed mid rates and counts lookups.
type stubRates struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (s *stubRates) CurrentRate(_ context.Context, code string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return decimal.Zero, s.err
	}
	rate, ok := s.rates[code]
	if !ok {
		return decimal.Zero, errors.Wrapf(models.ErrRateUnavailable, "unknown code %s", code)
	}
	return rate, nil
}

func (s *stubRates) BuySellRate(context.Context, string) (models.BuySellRate, error) {
	return models.BuySellRate{}, nil
}

func (s *stubRates) HistoricalRates(context.Context, string, time.Time, time.Time) ([]models.Rate, error) {
	return nil, nil
}

func (s *stubRates) CurrentGoldPrice(context.Context) (models.GoldPrice, error) {
	return models.GoldPrice{}, nil
}

func (s *stubRates) HistoricalGoldPrices(context.Context, time.Time, time.Time) ([]models.GoldPrice, error) {
	return nil, nil
}

func (s *stubRates) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// failingLog rejects every append; listing still works.
type failingLog struct{}

func (failingLog) Append(context.Context, models.Transaction) error {
	return errors.New("log storage down")
}

func (failingLog) ListByUser(context.Context, string) ([]models.Transaction, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, rates *stubRates, startPln int64) (*TradeEngine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	if startPln > 0 {
		require.NoError(t, store.SetAmount(context.Background(), "user-1", models.BaseCurrency, decimal.NewFromInt(startPln)))
	}
	return NewTradeEngine(store, store, rates, nil), store
}

func usdAt4() *stubRates {
	return &stubRates{rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(4)}}
}

func TestBuyCurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("buy foreign currency converts and mutates both balances", func(t *testing.T) {
		rates := usdAt4()
		eng, store := newTestEngine(t, rates, 1000)

		result, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(300))
		require.NoError(t, err)

		assert.Equal(t, "75", result.AmountForeign.String())
		assert.Equal(t, "300", result.AmountPln.String())
		assert.Equal(t, "4", result.Rate.String())
		assert.Equal(t, "USD", result.CurrencyCode)

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		usd, err := store.Amount(ctx, "user-1", "USD")
		require.NoError(t, err)
		assert.Equal(t, "700", pln.String())
		assert.Equal(t, "75", usd.String())
	})

	t.Run("buying the base currency is a deposit with no rate lookup", func(t *testing.T) {
		rates := usdAt4()
		eng, store := newTestEngine(t, rates, 0)

		result, err := eng.BuyCurrency(ctx, "user-1", "PLN", decimal.NewFromInt(250))
		require.NoError(t, err)

		assert.Equal(t, "1", result.Rate.String())
		assert.Equal(t, "250", result.AmountPln.String())
		assert.Zero(t, rates.callCount(), "deposit must not consult the rate provider")

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		assert.Equal(t, "250", pln.String())
	})

	t.Run("insufficient funds leaves the ledger untouched", func(t *testing.T) {
		eng, store := newTestEngine(t, usdAt4(), 700)

		_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(5000))
		require.ErrorIs(t, err, models.ErrInsufficientFunds)

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		usd, err := store.Amount(ctx, "user-1", "USD")
		require.NoError(t, err)
		assert.Equal(t, "700", pln.String())
		assert.Equal(t, "0", usd.String())
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		eng, _ := newTestEngine(t, usdAt4(), 1000)

		_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.Zero)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)

		_, err = eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(-10))
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("unknown currency code is rejected at the boundary", func(t *testing.T) {
		rates := usdAt4()
		eng, _ := newTestEngine(t, rates, 1000)

		_, err := eng.BuyCurrency(ctx, "user-1", "DOGE", decimal.NewFromInt(10))
		assert.ErrorIs(t, err, models.ErrUnsupportedCurrency)
		assert.Zero(t, rates.callCount())
	})

	t.Run("rate failure aborts before any mutation", func(t *testing.T) {
		rates := &stubRates{err: models.ErrRateUnavailable}
		eng, store := newTestEngine(t, rates, 1000)

		_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(100))
		require.ErrorIs(t, err, models.ErrRateUnavailable)

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		assert.Equal(t, "1000", pln.String())

		txs, err := eng.GetTransactions(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, txs)
	})
}

func TestSellCurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("sell foreign currency credits PLN", func(t *testing.T) {
		eng, store := newTestEngine(t, usdAt4(), 1000)

		_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(300))
		require.NoError(t, err)

		result, err := eng.SellCurrency(ctx, "user-1", "USD", decimal.NewFromInt(30))
		require.NoError(t, err)

		assert.Equal(t, "30", result.AmountForeign.String())
		assert.Equal(t, "120", result.AmountPln.String())
		assert.Equal(t, "4", result.Rate.String())

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		usd, err := store.Amount(ctx, "user-1", "USD")
		require.NoError(t, err)
		assert.Equal(t, "820", pln.String())
		assert.Equal(t, "45", usd.String())
	})

	t.Run("selling more than held fails without mutation", func(t *testing.T) {
		eng, store := newTestEngine(t, usdAt4(), 1000)

		_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(100))
		require.NoError(t, err)

		_, err = eng.SellCurrency(ctx, "user-1", "USD", decimal.NewFromInt(26))
		require.ErrorIs(t, err, models.ErrInsufficientFunds)

		usd, err := store.Amount(ctx, "user-1", "USD")
		require.NoError(t, err)
		assert.Equal(t, "25", usd.String())
	})

	t.Run("selling the base currency simulates success without mutation", func(t *testing.T) {
		rates := usdAt4()
		eng, store := newTestEngine(t, rates, 500)

		result, err := eng.SellCurrency(ctx, "user-1", "PLN", decimal.NewFromInt(100))
		require.NoError(t, err)

		assert.Equal(t, "100", result.AmountPln.String())
		assert.Equal(t, "1", result.Rate.String())
		assert.Zero(t, rates.callCount())

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		assert.Equal(t, "500", pln.String(), "simulated withdrawal must not touch the balance")

		txs, err := eng.GetTransactions(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, txs, "simulated withdrawal must not be recorded")
	})

	t.Run("round trip at a fixed rate restores the PLN balance", func(t *testing.T) {
		eng, store := newTestEngine(t, usdAt4(), 1000)

		buy, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(300))
		require.NoError(t, err)

		_, err = eng.SellCurrency(ctx, "user-1", "USD", buy.AmountForeign)
		require.NoError(t, err)

		pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
		require.NoError(t, err)
		usd, err := store.Amount(ctx, "user-1", "USD")
		require.NoError(t, err)
		assert.Equal(t, "1000", pln.String())
		assert.Equal(t, "0", usd.String())
	})
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, usdAt4(), 1000)

	_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(300))
	require.NoError(t, err)

	account, err := eng.GetAccount(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", account.UserID)
	assert.Equal(t, "700", account.Balances["PLN"].String())
	assert.Equal(t, "75", account.Balances["USD"].String())
	for _, code := range []string{"EUR", "GBP", "CHF"} {
		balance, ok := account.Balances[code]
		require.True(t, ok, "always-shown currency %s missing", code)
		assert.Equal(t, "0", balance.String())
	}
}

func TestGetTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, &stubRates{rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(4),
		"EUR": decimal.NewFromInt(5),
	}}, 1000)

	_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = eng.BuyCurrency(ctx, "user-1", "EUR", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = eng.SellCurrency(ctx, "user-1", "USD", decimal.NewFromInt(10))
	require.NoError(t, err)

	txs, err := eng.GetTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, models.TradeTypeSell, txs[0].Type)
	assert.Equal(t, "USD", txs[0].CurrencyCode)
	assert.Equal(t, "EUR", txs[1].CurrencyCode)
	assert.Equal(t, "USD", txs[2].CurrencyCode)
	for i := 1; i < len(txs); i++ {
		assert.False(t, txs[i-1].CreatedAt.Before(txs[i].CreatedAt), "records must be ordered newest first")
	}
}

func TestLogAppendFailureDoesNotFailTrade(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SetAmount(ctx, "user-1", models.BaseCurrency, decimal.NewFromInt(1000)))
	eng := NewTradeEngine(store, failingLog{}, usdAt4(), nil)

	result, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(100))
	require.NoError(t, err, "a failed log append must not fail the trade")
	assert.Equal(t, "25", result.AmountForeign.String())

	pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
	require.NoError(t, err)
	assert.Equal(t, "900", pln.String())
}

func TestConcurrentBuysSameUser(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, usdAt4(), 1000)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := eng.BuyCurrency(ctx, "user-1", "USD", decimal.NewFromInt(10))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pln, err := store.Amount(ctx, "user-1", models.BaseCurrency)
	require.NoError(t, err)
	usd, err := store.Amount(ctx, "user-1", "USD")
	require.NoError(t, err)
	assert.Equal(t, "500", pln.String(), "no update may be lost under concurrency")
	assert.Equal(t, "125", usd.String())

	txs, err := eng.GetTransactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, txs, workers)
}
