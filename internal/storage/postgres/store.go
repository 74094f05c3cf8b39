package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/currency-trading-service/internal/interfaces"
	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

// Store implements BalanceStore and TransactionLog on top of PostgreSQL.
// One ledger row per user with the currency map stored as JSONB; writes
// replace the whole document via upsert keyed by user_id. The engine
// serializes same-user mutations, so the store does not need its own
// concurrency control across the read-modify-write.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetLedger loads the user's ledger row, or returns a fresh empty ledger
// without writing it.
func (p *Store) GetLedger(ctx context.Context, userID string) (models.UserLedger, error) {
	const query = `SELECT currencies FROM user_ledgers WHERE user_id = $1`

	var raw []byte
	err := p.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.NewUserLedger(userID), nil
	}
	if err != nil {
		return models.UserLedger{}, err
	}

	ledger := models.NewUserLedger(userID)
	if err := json.Unmarshal(raw, &ledger.Currencies); err != nil {
		return models.UserLedger{}, err
	}
	return ledger, nil
}

// Amount returns the balance for one currency, zero if absent.
func (p *Store) Amount(ctx context.Context, userID, currencyCode string) (decimal.Decimal, error) {
	ledger, err := p.GetLedger(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Amount(currencyCode), nil
}

// SetAmount reads the full ledger, replaces the single currency entry and
// upserts the whole document.
func (p *Store) SetAmount(ctx context.Context, userID, currencyCode string, amount decimal.Decimal) error {
	ledger, err := p.GetLedger(ctx, userID)
	if err != nil {
		return err
	}
	ledger.SetAmount(currencyCode, amount)
	return p.saveLedger(ctx, ledger)
}

// Adjust adds delta to one currency balance: SetAmount(current + delta).
func (p *Store) Adjust(ctx context.Context, userID, currencyCode string, delta decimal.Decimal) error {
	ledger, err := p.GetLedger(ctx, userID)
	if err != nil {
		return err
	}
	ledger.AdjustAmount(currencyCode, delta)
	return p.saveLedger(ctx, ledger)
}

func (p *Store) saveLedger(ctx context.Context, ledger models.UserLedger) error {
	const query = `INSERT INTO user_ledgers (user_id, currencies, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (user_id) DO UPDATE SET currencies = EXCLUDED.currencies, updated_at = now()`

	raw, err := json.Marshal(ledger.Currencies)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, query, ledger.UserID, raw)
	return err
}

// Append inserts one trade record. Records are never updated or deleted.
func (p *Store) Append(ctx context.Context, tx models.Transaction) error {
	const query = `INSERT INTO transactions (id, user_id, type, currency_code, amount, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := p.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.Type, tx.CurrencyCode, tx.Amount, tx.CreatedAt)
	return err
}

// ListByUser returns the user's records newest first.
func (p *Store) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `SELECT id, user_id, type, currency_code, amount, created_at
	FROM transactions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.CurrencyCode, &tx.Amount, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

var _ interfaces.BalanceStore = (*Store)(nil)
var _ interfaces.TransactionLog = (*Store)(nil)
