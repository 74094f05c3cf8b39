// Package nbp adapts the public NBP (Narodowy Bank Polski) web API to the
// RateProvider interface: table A mid rates, table C bid/ask quotes and
// gold prices, with date-range historical variants.
package nbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/currency-trading-service/internal/interfaces"
	"github.com/sheikh-saqib/currency-trading-service/internal/metrics"
	"github.com/sheikh-saqib/currency-trading-service/internal/models"
)

const (
	// DefaultBaseURL is the public NBP API root.
	DefaultBaseURL = "https://api.nbp.pl/api"

	dateLayout = "2006-01-02"
)

// Client fetches quotes from the NBP API. It performs no retries; a failed
// lookup aborts the caller's operation before any mutation and the caller
// owns the retry policy.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
	metrics *metrics.TradeMetrics // optional
}

// Option configures the client.
type Option func(*Client)

// WithMetrics records lookup durations on the given instruments.
func WithMetrics(m *metrics.TradeMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an NBP client with the given base URL and timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rateTableResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string          `json:"no"`
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
		Bid           decimal.Decimal `json:"bid"`
		Ask           decimal.Decimal `json:"ask"`
	} `json:"rates"`
}

type goldPriceItem struct {
	Date  string          `json:"data"`
	Price decimal.Decimal `json:"cena"`
}

// CurrentRate returns the latest mid rate for the currency. The base
// currency short-circuits to exactly 1.0 without a network call.
func (c *Client) CurrentRate(ctx context.Context, currencyCode string) (decimal.Decimal, error) {
	if currencyCode == models.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}

	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/?format=json", c.baseURL, currencyCode)
	var resp rateTableResponse
	if err := c.fetch(ctx, "current_rate", url, &resp); err != nil {
		return decimal.Zero, err
	}
	if len(resp.Rates) == 0 {
		return decimal.Zero, errors.Wrapf(models.ErrRateUnavailable, "no rates returned for %s", currencyCode)
	}

	mid := resp.Rates[0].Mid
	c.logger.Debug("fetched mid rate", zap.String("code", currencyCode), zap.String("mid", mid.String()))
	return mid, nil
}

// BuySellRate returns the current bid and ask quotes (table C). The base
// currency short-circuits to 1.0/1.0 dated today.
func (c *Client) BuySellRate(ctx context.Context, currencyCode string) (models.BuySellRate, error) {
	if currencyCode == models.BaseCurrency {
		one := decimal.NewFromInt(1)
		return models.BuySellRate{
			CurrencyCode:  currencyCode,
			Bid:           one,
			Ask:           one,
			EffectiveDate: time.Now().UTC().Truncate(24 * time.Hour),
		}, nil
	}

	url := fmt.Sprintf("%s/exchangerates/rates/c/%s/?format=json", c.baseURL, currencyCode)
	var resp rateTableResponse
	if err := c.fetch(ctx, "buy_sell_rate", url, &resp); err != nil {
		return models.BuySellRate{}, err
	}
	if len(resp.Rates) == 0 {
		return models.BuySellRate{}, errors.Wrapf(models.ErrRateUnavailable, "no quotes returned for %s", currencyCode)
	}

	quote := resp.Rates[0]
	date, err := time.Parse(dateLayout, quote.EffectiveDate)
	if err != nil {
		return models.BuySellRate{}, errors.Wrapf(models.ErrRateUnavailable, "bad effective date %q", quote.EffectiveDate)
	}
	return models.BuySellRate{
		CurrencyCode:  resp.Code,
		Bid:           quote.Bid,
		Ask:           quote.Ask,
		EffectiveDate: date,
	}, nil
}

// HistoricalRates returns the mid rates for the currency between from and to
// inclusive.
func (c *Client) HistoricalRates(ctx context.Context, currencyCode string, from, to time.Time) ([]models.Rate, error) {
	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/%s/%s/?format=json",
		c.baseURL, currencyCode, from.Format(dateLayout), to.Format(dateLayout))
	var resp rateTableResponse
	if err := c.fetch(ctx, "historical_rates", url, &resp); err != nil {
		return nil, err
	}

	rates := make([]models.Rate, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		date, err := time.Parse(dateLayout, r.EffectiveDate)
		if err != nil {
			return nil, errors.Wrapf(models.ErrRateUnavailable, "bad effective date %q", r.EffectiveDate)
		}
		rates = append(rates, models.Rate{No: r.No, EffectiveDate: date, Mid: r.Mid})
	}
	return rates, nil
}

// CurrentGoldPrice returns the latest price of one gram of gold.
func (c *Client) CurrentGoldPrice(ctx context.Context) (models.GoldPrice, error) {
	url := fmt.Sprintf("%s/cenyzlota?format=json", c.baseURL)
	var items []goldPriceItem
	if err := c.fetch(ctx, "gold_price", url, &items); err != nil {
		return models.GoldPrice{}, err
	}
	if len(items) == 0 {
		return models.GoldPrice{}, errors.Wrap(models.ErrRateUnavailable, "no gold price returned")
	}
	return goldPriceFromItem(items[0])
}

// HistoricalGoldPrices returns gold prices between from and to inclusive.
func (c *Client) HistoricalGoldPrices(ctx context.Context, from, to time.Time) ([]models.GoldPrice, error) {
	url := fmt.Sprintf("%s/cenyzlota/%s/%s?format=json",
		c.baseURL, from.Format(dateLayout), to.Format(dateLayout))
	var items []goldPriceItem
	if err := c.fetch(ctx, "historical_gold_prices", url, &items); err != nil {
		return nil, err
	}

	prices := make([]models.GoldPrice, 0, len(items))
	for _, item := range items {
		price, err := goldPriceFromItem(item)
		if err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, nil
}

// fetch GETs the URL and decodes the JSON body into out. Any transport
// error, non-2xx status or undecodable body maps to ErrRateUnavailable.
func (c *Client) fetch(ctx context.Context, endpoint, url string, out any) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveRateFetch(endpoint, time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(models.ErrRateUnavailable, "building request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(models.ErrRateUnavailable, "calling NBP: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(models.ErrRateUnavailable, "reading NBP response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrapf(models.ErrRateUnavailable, "NBP returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(models.ErrRateUnavailable, "decoding NBP response: %v", err)
	}
	return nil
}

func goldPriceFromItem(item goldPriceItem) (models.GoldPrice, error) {
	date, err := time.Parse(dateLayout, item.Date)
	if err != nil {
		return models.GoldPrice{}, errors.Wrapf(models.ErrRateUnavailable, "bad gold price date %q", item.Date)
	}
	return models.GoldPrice{Date: date, Price: item.Price}, nil
}

var _ interfaces.RateProvider = (*Client)(nil)
