package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeCompleted is published after a trade commits. Consumers must treat it
// as best-effort: the balance mutation is the source of truth, not the event.
type TradeCompleted struct {
	TradeID       string          `json:"trade_id"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"type"`
	CurrencyCode  string          `json:"currency_code"`
	AmountForeign decimal.Decimal `json:"amount_foreign"`
	AmountPln     decimal.Decimal `json:"amount_pln"`
	Rate          decimal.Decimal `json:"rate"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
