package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// BalanceStore owns one ledger document per user. Persistence is an upsert
// keyed by user id with read-modify-write semantics: the whole document is
// rewritten on every mutation. Callers are responsible for serializing
// concurrent mutations on the same user.
type BalanceStore interface {
	// GetLedger returns the persisted ledger, or a fresh empty one if none
	// exists. The fresh ledger is not written until a mutation occurs.
	GetLedger(ctx context.Context, userID string) (models.UserLedger, error)

	// Amount returns the balance for a single currency, zero if absent.
	Amount(ctx context.Context, userID, currencyCode string) (decimal.Decimal, error)

	// SetAmount replaces one currency balance and persists the whole ledger.
	SetAmount(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) error

	// Adjust adds delta to one currency balance and persists the whole
	// ledger. Defined as SetAmount(current + delta).
	Adjust(ctx context.Context, userID, currencyCode string, delta decimal.Decimal) error
}
