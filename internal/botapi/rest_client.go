// Package botapi is a client for the external bot-status REST API that the
// dashboard consumes. Only Ping surfaces upstream errors; every other read
// degrades to empty or zeroed defaults so a transient outage never breaks
// rendering.
package botapi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"paper-trading-bot-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// requestTimeout caps every call to the status API.
const requestTimeout = 10 * time.Second

// RestClientInterface defines the status-API surface the rest of the
// application depends on.
type RestClientInterface interface {
	Ping() error
	GetOpenTrades() ([]Trade, error)
	GetTrade(id int64) (*Trade, error)
	GetPerformance() ([]PerformanceEntry, error)
	GetDailyStats() ([]DailyRecord, error)
	GetStrategyConfig() (*StrategyConfig, error)
	GetBotConfig() (*BotConfig, error)
}

// RestClient talks to the bot-status API over HTTP with optional Basic
// Auth. It implements RestClientInterface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ RestClientInterface = (*RestClient)(nil)

// Trade is one trade as reported by the status API.
type Trade struct {
	TradeID     int64   `json:"trade_id"`
	Pair        string  `json:"pair"`
	StakeAmount float64 `json:"stake_amount"`
	OpenRate    float64 `json:"open_rate"`
	CloseRate   float64 `json:"close_rate"`
	ProfitAbs   float64 `json:"profit_abs"`
	ProfitRatio float64 `json:"profit_ratio"`
	IsOpen      bool    `json:"is_open"`
	OpenDate    string  `json:"open_date"`
	CloseDate   string  `json:"close_date"`
}

// PerformanceEntry summarizes realized profit per pair.
type PerformanceEntry struct {
	Pair   string  `json:"pair"`
	Profit float64 `json:"profit"`
	Count  int     `json:"count"`
}

// DailyRecord is one day's aggregate result.
type DailyRecord struct {
	Date       string  `json:"date"`
	AbsProfit  float64 `json:"abs_profit"`
	TradeCount int     `json:"trade_count"`
}

// StrategyConfig is the strategy section of the remote bot's configuration.
type StrategyConfig struct {
	Strategy  string `json:"strategy"`
	Timeframe string `json:"timeframe"`
}

// BotConfig is the remote bot's general configuration.
type BotConfig struct {
	MaxOpenTrades int     `json:"max_open_trades"`
	StakeCurrency string  `json:"stake_currency"`
	StakeAmount   float64 `json:"stake_amount"`
	DryRun        bool    `json:"dry_run"`
}

// NewRestClient creates a status-API client from the exchange config.
func NewRestClient(cfg *config.Exchange, logger *zap.Logger) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.StatusURL).
		SetTimeout(requestTimeout)
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &RestClient{
		client:  client,
		logger:  logger.Named("botapi"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// doRequest executes a request with rate limiting and retry on 429/5xx.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network-level failure.
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// Ping checks connectivity. Unlike the other reads, failures propagate so
// the caller's connectivity indicator can reflect them.
func (c *RestClient) Ping() error {
	req := c.client.R()
	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/ping", req); err != nil {
		return fmt.Errorf("status API unreachable: %w", err)
	}
	return nil
}

// GetOpenTrades lists currently open trades. Degrades to an empty list.
func (c *RestClient) GetOpenTrades() ([]Trade, error) {
	var trades []Trade
	req := c.client.R().SetResult(&trades)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/status", req); err != nil {
		c.logger.Warn("Failed to fetch open trades, returning empty list", zap.Error(err))
		return []Trade{}, nil
	}
	return trades, nil
}

// GetTrade fetches a single trade by id. Degrades to a zeroed trade.
func (c *RestClient) GetTrade(id int64) (*Trade, error) {
	var trade Trade
	req := c.client.R().SetResult(&trade)

	url := fmt.Sprintf("/api/v1/trade/%d", id)
	if _, err := c.doRequest(context.Background(), "GET", url, req); err != nil {
		c.logger.Warn("Failed to fetch trade, returning defaults", zap.Int64("trade_id", id), zap.Error(err))
		return &Trade{TradeID: id}, nil
	}
	return &trade, nil
}

// GetPerformance fetches per-pair profit summaries. Degrades to empty.
func (c *RestClient) GetPerformance() ([]PerformanceEntry, error) {
	var entries []PerformanceEntry
	req := c.client.R().SetResult(&entries)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/performance", req); err != nil {
		c.logger.Warn("Failed to fetch performance, returning empty list", zap.Error(err))
		return []PerformanceEntry{}, nil
	}
	return entries, nil
}

// GetDailyStats fetches daily aggregates. Degrades to empty.
func (c *RestClient) GetDailyStats() ([]DailyRecord, error) {
	var records []DailyRecord
	req := c.client.R().SetResult(&records)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/daily", req); err != nil {
		c.logger.Warn("Failed to fetch daily stats, returning empty list", zap.Error(err))
		return []DailyRecord{}, nil
	}
	return records, nil
}

// GetStrategyConfig fetches the remote strategy config. Degrades to zeroes.
func (c *RestClient) GetStrategyConfig() (*StrategyConfig, error) {
	var cfg StrategyConfig
	req := c.client.R().SetResult(&cfg)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/strategy", req); err != nil {
		c.logger.Warn("Failed to fetch strategy config, returning defaults", zap.Error(err))
		return &StrategyConfig{}, nil
	}
	return &cfg, nil
}

// GetBotConfig fetches the remote bot config. Degrades to zeroes.
func (c *RestClient) GetBotConfig() (*BotConfig, error) {
	var cfg BotConfig
	req := c.client.R().SetResult(&cfg)

	if _, err := c.doRequest(context.Background(), "GET", "/api/v1/show_config", req); err != nil {
		c.logger.Warn("Failed to fetch bot config, returning defaults", zap.Error(err))
		return &BotConfig{}, nil
	}
	return &cfg, nil
}
