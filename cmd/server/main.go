package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/currency-trading-service/internal/config"
	"github.com/sheikh-saqib/currency-trading-service/internal/engine"
	"github.com/sheikh-saqib/currency-trading-service/internal/events/kafka"
	"github.com/sheikh-saqib/currency-trading-service/internal/interfaces"
	"github.com/sheikh-saqib/currency-trading-service/internal/metrics"
	"github.com/sheikh-saqib/currency-trading-service/internal/models"
	"github.com/sheikh-saqib/currency-trading-service/internal/rates/nbp"
	"github.com/sheikh-saqib/currency-trading-service/internal/storage/memory"
	"github.com/sheikh-saqib/currency-trading-service/internal/storage/postgres"
)

const dateLayout = "2006-01-02"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}
	cfg := config.MustLoad()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	var balances interfaces.BalanceStore
	var txLog interfaces.TransactionLog
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if err := postgres.RunMigrations(db, cfg.Storage.MigrationsPath); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		store := postgres.NewStore(db)
		balances, txLog = store, store
	case "memory":
		store := memory.NewStore()
		balances, txLog = store, store
	default:
		logger.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	tradeMetrics := metrics.NewTradeMetrics()
	rateProvider := nbp.NewClient(cfg.NBP.BaseURL, cfg.NBP.Timeout, logger, nbp.WithMetrics(tradeMetrics))

	opts := []engine.Option{engine.WithMetrics(tradeMetrics)}
	if cfg.Kafka.Enabled {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		opts = append(opts, engine.WithEventPublisher(publisher))
	}
	tradeEngine := engine.NewTradeEngine(balances, txLog, rateProvider, logger, opts...)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	http.HandleFunc("/trades/buy", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			UserID       string          `json:"user_id"`
			CurrencyCode string          `json:"currency_code"`
			AmountPln    decimal.Decimal `json:"amount_pln"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is a mandatory field", http.StatusBadRequest)
			return
		}

		result, err := tradeEngine.BuyCurrency(r.Context(), req.UserID, req.CurrencyCode, req.AmountPln)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	http.HandleFunc("/trades/sell", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			UserID        string          `json:"user_id"`
			CurrencyCode  string          `json:"currency_code"`
			AmountForeign decimal.Decimal `json:"amount_foreign"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is a mandatory field", http.StatusBadRequest)
			return
		}

		result, err := tradeEngine.SellCurrency(r.Context(), req.UserID, req.CurrencyCode, req.AmountForeign)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	http.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is a mandatory field", http.StatusBadRequest)
			return
		}

		account, err := tradeEngine.GetAccount(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	})

	http.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is a mandatory field", http.StatusBadRequest)
			return
		}

		txs, err := tradeEngine.GetTransactions(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if txs == nil {
			txs = []models.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	})

	http.HandleFunc("/rates/current", func(w http.ResponseWriter, r *http.Request) {
		code := models.NormalizeCode(r.URL.Query().Get("code"))
		if !models.IsSupported(code) {
			http.Error(w, "unsupported currency code", http.StatusBadRequest)
			return
		}

		rate, err := rateProvider.CurrentRate(r.Context(), code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			CurrencyCode string          `json:"currency_code"`
			Mid          decimal.Decimal `json:"mid"`
		}{code, rate})
	})

	http.HandleFunc("/rates/buysell", func(w http.ResponseWriter, r *http.Request) {
		code := models.NormalizeCode(r.URL.Query().Get("code"))
		if !models.IsSupported(code) {
			http.Error(w, "unsupported currency code", http.StatusBadRequest)
			return
		}

		quote, err := rateProvider.BuySellRate(r.Context(), code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	})

	http.HandleFunc("/rates/history", func(w http.ResponseWriter, r *http.Request) {
		code := models.NormalizeCode(r.URL.Query().Get("code"))
		if !models.IsSupported(code) {
			http.Error(w, "unsupported currency code", http.StatusBadRequest)
			return
		}
		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rates, err := rateProvider.HistoricalRates(r.Context(), code, from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rates)
	})

	http.HandleFunc("/gold/current", func(w http.ResponseWriter, r *http.Request) {
		price, err := rateProvider.CurrentGoldPrice(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, price)
	})

	http.HandleFunc("/gold/history", func(w http.ResponseWriter, r *http.Request) {
		from, to, err := parseDateRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		prices, err := rateProvider.HistoricalGoldPrices(r.Context(), from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prices)
	})

	http.Handle("/metrics", promhttp.Handler())

	addr := cfg.HTTPServer.Host + ":" + cfg.HTTPServer.Port
	logger.Info("starting server", zap.String("addr", addr), zap.String("storage", cfg.Storage.Driver))
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from must be a YYYY-MM-DD date")
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to must be a YYYY-MM-DD date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps the trade error taxonomy to HTTP statuses: client errors
// to 400/422, upstream rate failures to 502, store failures to 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrUnsupportedCurrency):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrRateUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, models.ErrPersistence):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
