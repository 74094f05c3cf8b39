package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a single mid-rate quote for a currency on a given day.
type Rate struct {
	No            string          `json:"no"`
	EffectiveDate time.Time       `json:"effective_date"`
	Mid           decimal.Decimal `json:"mid"`
}

// BuySellRate carries the bid (counterparty buys) and ask (counterparty
// sells) quotes for a currency. The spread is Ask - Bid.
type BuySellRate struct {
	CurrencyCode  string          `json:"currency_code"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
	EffectiveDate time.Time       `json:"effective_date"`
}

// GoldPrice is the price of one gram of gold on a given day.
type GoldPrice struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}
