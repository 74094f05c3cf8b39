package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult is returned to the caller after a successful trade. It is
// ephemeral and never persisted.
type TradeResult struct {
	UserID        string          `json:"user_id"`
	CurrencyCode  string          `json:"currency_code"`
	AmountForeign decimal.Decimal `json:"amount_foreign"`
	AmountPln     decimal.Decimal `json:"amount_pln"`
	Rate          decimal.Decimal `json:"rate"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Account is the full currency view for a user: every currency the user
// holds plus zero entries for the always-shown set.
type Account struct {
	UserID   string                     `json:"user_id"`
	Balances map[string]decimal.Decimal `json:"balances"`
}
