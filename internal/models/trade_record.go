package models

import "gorm.io/gorm"

// TradeRecord is a closed simulated trade persisted for the dashboard.
type TradeRecord struct {
	gorm.Model
	SessionID   string  `json:"session_id" gorm:"index"`
	TradeID     int64   `json:"trade_id"`
	Pair        string  `json:"pair"`
	Status      string  `json:"status"` // "closed" or "cancelled"
	StakeAmount float64 `json:"stake_amount"`
	Quantity    float64 `json:"quantity"`
	OpenRate    float64 `json:"open_rate"`
	CloseRate   float64 `json:"close_rate"`
	ProfitAbs   float64 `json:"profit_abs"`
	ProfitRatio float64 `json:"profit_ratio"`
	OpenedAt    int64   `json:"opened_at"`
	ClosedAt    int64   `json:"closed_at"`
}
