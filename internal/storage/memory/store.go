package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/currency-trading-service/internal/interfaces"
	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// Store is an in-memory implementation of BalanceStore and TransactionLog,
// used for tests and local runs. It is safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	ledgers      map[string]models.UserLedger
	transactions []models.Transaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		ledgers: make(map[string]models.UserLedger),
	}
}

// GetLedger returns a copy of the user's ledger, or a fresh empty one. The
// fresh ledger is not stored until a mutation happens.
func (s *Store) GetLedger(_ context.Context, userID string) (models.UserLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ledger, ok := s.ledgers[userID]; ok {
		return ledger.Copy(), nil
	}
	return models.NewUserLedger(userID), nil
}

// Amount returns the balance for one currency, zero if absent.
func (s *Store) Amount(ctx context.Context, userID, currencyCode string) (decimal.Decimal, error) {
	ledger, err := s.GetLedger(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Amount(currencyCode), nil
}

// SetAmount replaces one currency balance and writes the whole ledger back.
func (s *Store) SetAmount(_ context.Context, userID, currencyCode string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, ok := s.ledgers[userID]
	if !ok {
		ledger = models.NewUserLedger(userID)
	} else {
		ledger = ledger.Copy()
	}
	ledger.SetAmount(currencyCode, amount)
	s.ledgers[userID] = ledger
	return nil
}

// Adjust adds delta to one currency balance: SetAmount(current + delta).
func (s *Store) Adjust(ctx context.Context, userID, currencyCode string, delta decimal.Decimal) error {
	current, err := s.Amount(ctx, userID, currencyCode)
	if err != nil {
		return err
	}
	return s.SetAmount(ctx, userID, currencyCode, current.Add(delta))
}

// Append stores one trade record.
func (s *Store) Append(_ context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
	return nil
}

// ListByUser returns the user's records newest first: reverse insertion
// order, which matches descending timestamps for append-only records.
func (s *Store) ListByUser(_ context.Context, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].UserID == userID {
			result = append(result, s.transactions[i])
		}
	}
	return result, nil
}

var _ interfaces.BalanceStore = (*Store)(nil)
var _ interfaces.TransactionLog = (*Store)(nil)
