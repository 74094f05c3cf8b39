package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade record kinds.
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// Transaction is one immutable trade record. Amount is denominated in the
// traded currency, not PLN. Records are append-only: never updated or deleted.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Type         string          `json:"type"` // "buy" or "sell"
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
}
