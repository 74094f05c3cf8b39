package models

import "github.com/shopspring/decimal"

// UserLedger holds all currency balances for one user as a single document.
// It is created lazily on first read and only persisted once a mutation
// happens; the whole document is rewritten on every change.
type UserLedger struct {
	UserID     string                     `json:"user_id"`
	Currencies map[string]decimal.Decimal `json:"currencies"`
}

// NewUserLedger returns an empty ledger for the user. Every absent currency
// reads as a zero balance.
func NewUserLedger(userID string) UserLedger {
	return UserLedger{
		UserID:     userID,
		Currencies: make(map[string]decimal.Decimal),
	}
}

// Amount returns the balance for a currency, zero if the code is absent.
func (l UserLedger) Amount(code string) decimal.Decimal {
	if amount, ok := l.Currencies[code]; ok {
		return amount
	}
	return decimal.Zero
}

// SetAmount replaces the balance for a currency.
func (l *UserLedger) SetAmount(code string, amount decimal.Decimal) {
	if l.Currencies == nil {
		l.Currencies = make(map[string]decimal.Decimal)
	}
	l.Currencies[code] = amount
}

// AdjustAmount adds delta to the currency balance (delta may be negative).
func (l *UserLedger) AdjustAmount(code string, delta decimal.Decimal) {
	l.SetAmount(code, l.Amount(code).Add(delta))
}

// Copy returns a deep copy so callers cannot mutate stored state through the
// shared currencies map.
func (l UserLedger) Copy() UserLedger {
	copied := NewUserLedger(l.UserID)
	for code, amount := range l.Currencies {
		copied.Currencies[code] = amount
	}
	return copied
}
