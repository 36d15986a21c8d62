package botapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a test server and a RestClient pointed at it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	rc := &RestClient{
		client:  resty.New().SetBaseURL(server.URL),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	return rc, server
}

func TestPing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/ping", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": "pong"}`))
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		assert.NoError(t, rc.Ping())
	})

	t.Run("UpstreamErrorPropagates", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		err := rc.Ping()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status API unreachable")
	})
}

func TestGetOpenTrades(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/status", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"trade_id": 1, "pair": "BTC/USDT", "stake_amount": 25, "open_rate": 45000, "is_open": true},
				{"trade_id": 2, "pair": "ETH/USDT", "stake_amount": 30, "open_rate": 2500, "is_open": true}
			]`))
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		trades, err := rc.GetOpenTrades()
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "BTC/USDT", trades[0].Pair)
		assert.Equal(t, 45000.0, trades[0].OpenRate)
	})

	t.Run("DegradesToEmptyOnFailure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		trades, err := rc.GetOpenTrades()
		assert.NoError(t, err)
		assert.Empty(t, trades)
	})
}

func TestGetTrade(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/trade/7", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"trade_id": 7, "pair": "SOL/USDT", "profit_abs": 1.5}`))
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		trade, err := rc.GetTrade(7)
		require.NoError(t, err)
		assert.Equal(t, "SOL/USDT", trade.Pair)
		assert.Equal(t, 1.5, trade.ProfitAbs)
	})

	t.Run("DegradesToDefaultsOnFailure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		rc, server := setupTestServer(handler)
		defer server.Close()

		trade, err := rc.GetTrade(7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), trade.TradeID)
		assert.Empty(t, trade.Pair)
	})
}

func TestGetPerformance(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/performance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"pair": "BTC/USDT", "profit": 12.5, "count": 4}]`))
	})
	rc, server := setupTestServer(handler)
	defer server.Close()

	entries, err := rc.GetPerformance()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 12.5, entries[0].Profit)
	assert.Equal(t, 4, entries[0].Count)
}

func TestGetDailyStats(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/daily", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date": "2024-07-01", "abs_profit": 8.2, "trade_count": 3}]`))
	})
	rc, server := setupTestServer(handler)
	defer server.Close()

	records, err := rc.GetDailyStats()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-07-01", records[0].Date)
}

func TestGetConfigs(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/strategy":
			_, _ = w.Write([]byte(`{"strategy": "RsiMacdCross", "timeframe": "5m"}`))
		case "/api/v1/show_config":
			_, _ = w.Write([]byte(`{"max_open_trades": 3, "stake_currency": "USDT", "stake_amount": 25, "dry_run": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	rc, server := setupTestServer(handler)
	defer server.Close()

	strategy, err := rc.GetStrategyConfig()
	require.NoError(t, err)
	assert.Equal(t, "RsiMacdCross", strategy.Strategy)

	bot, err := rc.GetBotConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, bot.MaxOpenTrades)
	assert.True(t, bot.DryRun)
}

func TestBasicAuthHeaderSent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dashboard", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`{"status": "pong"}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	rc := &RestClient{
		client:  resty.New().SetBaseURL(server.URL).SetBasicAuth("dashboard", "secret"),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	assert.NoError(t, rc.Ping())
}
