package main

import (
	"encoding/json"
	"net/http"
	"time"

	"paper-trading-bot-go/internal/botapi"
	"paper-trading-bot-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	db     *gorm.DB
	status botapi.RestClientInterface
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB, status botapi.RestClientInterface) *APIHandler {
	return &APIHandler{log: log, db: db, status: status}
}

// StatusHandler reports connectivity to the external bot-status API. This
// is the one read that surfaces upstream failures instead of hiding them.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Online bool   `json:"online"`
		Error  string `json:"error,omitempty"`
	}{Online: true}

	if err := h.status.Ping(); err != nil {
		response.Online = false
		response.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// TradesHandler returns all persisted trades, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	var trades []models.TradeRecord
	if err := h.db.Order("closed_at desc").Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// AlertsHandler returns persisted health alerts, most recent first.
func (h *APIHandler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	var alerts []models.AlertRecord
	if err := h.db.Order("timestamp desc").Limit(50).Find(&alerts).Error; err != nil {
		h.log.Error("Failed to get alerts from database", zap.Error(err))
		http.Error(w, "Failed to get alerts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alerts)
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades      int64   `json:"total_trades"`
	ProfitableTrades int64   `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalProfit      float64 `json:"total_profit"`
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler calculates and returns trading statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	var allTrades []models.TradeRecord
	if err := h.db.Where("status = ?", "closed").Find(&allTrades).Error; err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	since24h := now.Add(-24 * time.Hour).Unix()

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	for _, trade := range allTrades {
		// Calculate for all time
		statsAllTime.TotalTrades++
		if trade.ProfitAbs > 0 {
			statsAllTime.ProfitableTrades++
		}
		statsAllTime.TotalProfit += trade.ProfitAbs

		// Calculate for last 24 hours
		if trade.ClosedAt >= since24h {
			stats24h.TotalTrades++
			if trade.ProfitAbs > 0 {
				stats24h.ProfitableTrades++
			}
			stats24h.TotalProfit += trade.ProfitAbs
		}
	}

	if statsAllTime.TotalTrades > 0 {
		statsAllTime.WinRate = float64(statsAllTime.ProfitableTrades) / float64(statsAllTime.TotalTrades) * 100
	}
	if stats24h.TotalTrades > 0 {
		stats24h.WinRate = float64(stats24h.ProfitableTrades) / float64(stats24h.TotalTrades) * 100
	}

	response := StatisticsResponse{
		Since24h: stats24h,
		AllTime:  statsAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
