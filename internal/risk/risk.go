// Package risk derives drawdown, position caps, and a composite risk score
// from session state. Assessment is a pure read: nothing is cached, nothing
// is mutated, and it never fails. Enforcement is the caller's job: the
// trading engine consults IsWithinLimits before opening new positions.
package risk

import "paper-trading-bot-go/internal/session"

// Limits that shape the assessment.
const (
	MaxDrawdownPercent   = 10.0
	MaxOpenTrades        = 3
	PositionSizeFraction = 0.05 // of current equity
	DailyLossFraction    = 0.03 // of current equity
	RiskPerTradePercent  = 1.0
)

// State is the derived risk view of a session.
type State struct {
	MaxDrawdownPercent  float64 `json:"max_drawdown_percent"`
	MaxPositionSize     float64 `json:"max_position_size"`
	MaxOpenTrades       int     `json:"max_open_trades"`
	DailyLossLimit      float64 `json:"daily_loss_limit"`
	RiskPerTradePercent float64 `json:"risk_per_trade_percent"`
	CurrentDrawdown     float64 `json:"current_drawdown"`
	CurrentDailyLoss    float64 `json:"current_daily_loss"`
	IsWithinLimits      bool    `json:"is_within_limits"`
	RiskScore           float64 `json:"risk_score"`
}

// Assess recomputes the risk state from the session. CurrentDailyLoss is
// cumulative session loss, not a rolling 24h window; downstream consumers
// depend on the session-lifetime semantics, so the name is kept as-is.
func Assess(s session.Session) State {
	drawdown := 0.0
	if s.StartingEquity > 0 {
		drawdown = (s.StartingEquity - s.Equity) / s.StartingEquity * 100
	}
	if drawdown < 0 {
		drawdown = 0
	}

	dailyLoss := 0.0
	if s.TotalProfit < 0 {
		dailyLoss = -s.TotalProfit
	}

	dailyLossLimit := s.Equity * DailyLossFraction
	withinLimits := drawdown < MaxDrawdownPercent && dailyLoss < dailyLossLimit

	score := 3.0
	if drawdown > 5 {
		score += 2
	}
	if dailyLoss > dailyLossLimit*0.5 {
		score += 2
	}
	if !withinLimits {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return State{
		MaxDrawdownPercent:  MaxDrawdownPercent,
		MaxPositionSize:     s.Equity * PositionSizeFraction,
		MaxOpenTrades:       MaxOpenTrades,
		DailyLossLimit:      dailyLossLimit,
		RiskPerTradePercent: RiskPerTradePercent,
		CurrentDrawdown:     drawdown,
		CurrentDailyLoss:    dailyLoss,
		IsWithinLimits:      withinLimits,
		RiskScore:           score,
	}
}
