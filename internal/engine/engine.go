package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/currency-trading-service/internal/interfaces"
	"github.com/sheikh-saqib/currency-trading-service/internal/metrics"
	"github.com/sheikh-saqib/currency-trading-service/internal/models"
	"github.com/sheikh-saqib/currency-trading-service/internal/models/events"
)

// tradeEventsTopic is where completed trades are published, best effort.
const tradeEventsTopic = "trade-completed"

// TradeEngine orchestrates single trades: it validates input, consults the
// rate provider, checks and mutates balances and appends a trade record.
// It is stateless apart from the per-user locks; all collaborators are
// injected, nothing is a package-level singleton.
type TradeEngine struct {
	balances interfaces.BalanceStore
	txLog    interfaces.TransactionLog
	rates    interfaces.RateProvider
	events   interfaces.EventPublisher // optional
	metrics  *metrics.TradeMetrics     // optional
	logger   *zap.Logger

	muMap map[string]*sync.Mutex // one mutex per user id
	mapMu sync.Mutex             // protects muMap itself
}

// Option configures optional engine collaborators.
type Option func(*TradeEngine)

// WithEventPublisher wires a publisher for trade-completed events.
func WithEventPublisher(pub interfaces.EventPublisher) Option {
	return func(e *TradeEngine) { e.events = pub }
}

// WithMetrics wires Prometheus trade metrics.
func WithMetrics(m *metrics.TradeMetrics) Option {
	return func(e *TradeEngine) { e.metrics = m }
}

// NewTradeEngine creates an engine over the given stores and rate provider.
func NewTradeEngine(
	balances interfaces.BalanceStore,
	txLog interfaces.TransactionLog,
	rates interfaces.RateProvider,
	logger *zap.Logger,
	opts ...Option,
) *TradeEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &TradeEngine{
		balances: balances,
		txLog:    txLog,
		rates:    rates,
		logger:   logger,
		muMap:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// userLock returns the mutex serializing mutations for one user. Ledgers of
// different users are fully independent, so there is no cross-user locking.
func (e *TradeEngine) userLock(userID string) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	if _, exists := e.muMap[userID]; !exists {
		e.muMap[userID] = &sync.Mutex{}
	}
	return e.muMap[userID]
}

// BuyCurrency buys amountPln worth of the given currency for the user.
// Buying the base currency is a deposit: the PLN balance grows by amountPln
// at rate 1.0 with no funds check and no rate lookup.
func (e *TradeEngine) BuyCurrency(ctx context.Context, userID, currencyCode string, amountPln decimal.Decimal) (models.TradeResult, error) {
	code, err := validateTrade(currencyCode, amountPln)
	if err != nil {
		e.recordError(models.TradeTypeBuy, err)
		return models.TradeResult{}, err
	}

	rate := decimal.NewFromInt(1)
	amountForeign := amountPln
	if code != models.BaseCurrency {
		// The rate lookup is read-only and network-bound, so it happens
		// strictly before any mutation and outside the user lock.
		rate, err = e.rates.CurrentRate(ctx, code)
		if err != nil {
			e.recordError(models.TradeTypeBuy, models.ErrRateUnavailable)
			return models.TradeResult{}, errors.Wrapf(models.ErrRateUnavailable, "buy %s for user %s: %v", code, userID, err)
		}
		// Division is left unrounded; precision is the store's concern.
		amountForeign = amountPln.Div(rate)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if code == models.BaseCurrency {
		if err := e.balances.Adjust(ctx, userID, models.BaseCurrency, amountPln); err != nil {
			e.recordError(models.TradeTypeBuy, models.ErrPersistence)
			return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "deposit for user %s: %v", userID, err)
		}
	} else {
		plnBalance, err := e.balances.Amount(ctx, userID, models.BaseCurrency)
		if err != nil {
			e.recordError(models.TradeTypeBuy, models.ErrPersistence)
			return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "read %s balance for user %s: %v", models.BaseCurrency, userID, err)
		}
		if plnBalance.LessThan(amountPln) {
			e.recordError(models.TradeTypeBuy, models.ErrInsufficientFunds)
			return models.TradeResult{}, errors.Wrapf(models.ErrInsufficientFunds,
				"user %s has %s PLN, needs %s", userID, plnBalance, amountPln)
		}
		// Both adjustments belong to one logical trade and run under the
		// same user lock so concurrent trades cannot interleave between them.
		if err := e.balances.Adjust(ctx, userID, models.BaseCurrency, amountPln.Neg()); err != nil {
			e.recordError(models.TradeTypeBuy, models.ErrPersistence)
			return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "debit PLN for user %s: %v", userID, err)
		}
		if err := e.balances.Adjust(ctx, userID, code, amountForeign); err != nil {
			e.recordError(models.TradeTypeBuy, models.ErrPersistence)
			return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "credit %s for user %s: %v", code, userID, err)
		}
	}

	result := models.TradeResult{
		UserID:        userID,
		CurrencyCode:  code,
		AmountForeign: amountForeign,
		AmountPln:     amountPln,
		Rate:          rate,
		Timestamp:     time.Now().UTC(),
	}
	e.finishTrade(ctx, models.TradeTypeBuy, result)
	return result, nil
}

// SellCurrency sells amountForeign of the given currency back to PLN.
// Selling the base currency is a simulated withdrawal: it reports success
// without touching any balance or appending a record. That asymmetry with
// BuyCurrency is deliberate and inherited from the original product behavior.
func (e *TradeEngine) SellCurrency(ctx context.Context, userID, currencyCode string, amountForeign decimal.Decimal) (models.TradeResult, error) {
	code, err := validateTrade(currencyCode, amountForeign)
	if err != nil {
		e.recordError(models.TradeTypeSell, err)
		return models.TradeResult{}, err
	}

	if code == models.BaseCurrency {
		return models.TradeResult{
			UserID:        userID,
			CurrencyCode:  code,
			AmountForeign: amountForeign,
			AmountPln:     amountForeign,
			Rate:          decimal.NewFromInt(1),
			Timestamp:     time.Now().UTC(),
		}, nil
	}

	rate, err := e.rates.CurrentRate(ctx, code)
	if err != nil {
		e.recordError(models.TradeTypeSell, models.ErrRateUnavailable)
		return models.TradeResult{}, errors.Wrapf(models.ErrRateUnavailable, "sell %s for user %s: %v", code, userID, err)
	}
	amountPln := amountForeign.Mul(rate)

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	foreignBalance, err := e.balances.Amount(ctx, userID, code)
	if err != nil {
		e.recordError(models.TradeTypeSell, models.ErrPersistence)
		return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "read %s balance for user %s: %v", code, userID, err)
	}
	if foreignBalance.LessThan(amountForeign) {
		e.recordError(models.TradeTypeSell, models.ErrInsufficientFunds)
		return models.TradeResult{}, errors.Wrapf(models.ErrInsufficientFunds,
			"user %s has %s %s, needs %s", userID, foreignBalance, code, amountForeign)
	}
	if err := e.balances.Adjust(ctx, userID, code, amountForeign.Neg()); err != nil {
		e.recordError(models.TradeTypeSell, models.ErrPersistence)
		return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "debit %s for user %s: %v", code, userID, err)
	}
	if err := e.balances.Adjust(ctx, userID, models.BaseCurrency, amountPln); err != nil {
		e.recordError(models.TradeTypeSell, models.ErrPersistence)
		return models.TradeResult{}, errors.Wrapf(models.ErrPersistence, "credit PLN for user %s: %v", userID, err)
	}

	result := models.TradeResult{
		UserID:        userID,
		CurrencyCode:  code,
		AmountForeign: amountForeign,
		AmountPln:     amountPln,
		Rate:          rate,
		Timestamp:     time.Now().UTC(),
	}
	e.finishTrade(ctx, models.TradeTypeSell, result)
	return result, nil
}

// GetAccount returns every balance the user holds plus zero entries for the
// always-shown currencies.
func (e *TradeEngine) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	ledger, err := e.balances.GetLedger(ctx, userID)
	if err != nil {
		return models.Account{}, errors.Wrapf(models.ErrPersistence, "load ledger for user %s: %v", userID, err)
	}

	balances := make(map[string]decimal.Decimal)
	for _, code := range models.AlwaysShown() {
		balances[code] = decimal.Zero
	}
	for code, amount := range ledger.Currencies {
		balances[code] = amount
	}
	return models.Account{UserID: userID, Balances: balances}, nil
}

// GetTransactions returns the user's trade records, newest first.
func (e *TradeEngine) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := e.txLog.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(models.ErrPersistence, "list transactions for user %s: %v", userID, err)
	}
	return txs, nil
}

// finishTrade runs the post-commit phase: the balance mutation is already the
// source of truth, so a failed record append or event publish is logged and
// swallowed, never rolled back into the trade outcome.
func (e *TradeEngine) finishTrade(ctx context.Context, tradeType string, result models.TradeResult) {
	record := models.Transaction{
		ID:           uuid.NewString(),
		UserID:       result.UserID,
		Type:         tradeType,
		CurrencyCode: result.CurrencyCode,
		Amount:       result.AmountForeign,
		CreatedAt:    result.Timestamp,
	}
	if err := e.txLog.Append(ctx, record); err != nil {
		e.logger.Warn("transaction log append failed",
			zap.String("user_id", result.UserID),
			zap.String("type", tradeType),
			zap.String("currency", result.CurrencyCode),
			zap.Error(err))
		if e.metrics != nil {
			e.metrics.RecordLogAppendFailure()
		}
	}

	if e.events != nil {
		event := events.TradeCompleted{
			TradeID:       record.ID,
			UserID:        result.UserID,
			Type:          tradeType,
			CurrencyCode:  result.CurrencyCode,
			AmountForeign: result.AmountForeign,
			AmountPln:     result.AmountPln,
			Rate:          result.Rate,
			OccurredAt:    result.Timestamp,
		}
		if err := e.events.Publish(tradeEventsTopic, event); err != nil {
			e.logger.Warn("trade event publish failed",
				zap.String("user_id", result.UserID),
				zap.Error(err))
		}
	}

	if e.metrics != nil {
		e.metrics.RecordTrade(tradeType, result.CurrencyCode, result.AmountPln)
	}
	e.logger.Info("trade executed",
		zap.String("user_id", result.UserID),
		zap.String("type", tradeType),
		zap.String("currency", result.CurrencyCode),
		zap.String("amount_foreign", result.AmountForeign.String()),
		zap.String("amount_pln", result.AmountPln.String()),
		zap.String("rate", result.Rate.String()))
}

func (e *TradeEngine) recordError(tradeType string, cause error) {
	if e.metrics != nil {
		e.metrics.RecordTradeError(tradeType, cause)
	}
}

// validateTrade normalizes the currency code and rejects non-positive
// amounts and codes outside the supported registry.
func validateTrade(currencyCode string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", errors.Wrapf(models.ErrInvalidAmount, "got %s", amount)
	}
	code := models.NormalizeCode(currencyCode)
	if !models.IsSupported(code) {
		return "", errors.Wrapf(models.ErrUnsupportedCurrency, "got %q", currencyCode)
	}
	return code, nil
}
