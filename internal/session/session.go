// Package session owns the lifecycle of the single simulated trading
// session: equity and win-rate accounting, the weekly profit target, and a
// bounded health-alert log. All mutations go through the Tracker, which
// serializes them with a mutex so concurrent callers never observe a
// partially applied update.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultStartingEquity is the virtual bankroll a fresh session opens with.
	DefaultStartingEquity = 800.0

	// TargetWinRate is the win-rate milestone, in percent.
	TargetWinRate = 90.0

	// WeeklyTargetProfit is the cumulative profit goal per calendar week.
	WeeklyTargetProfit = 100.0

	// winRateMinTrades is how many trades must be recorded before the
	// win-rate milestone can fire.
	winRateMinTrades = 10

	// alertCapacity bounds the health-alert log. Oldest entries drop off.
	alertCapacity = 20
)

// AlertType is the severity of a health alert.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
)

// Alert is a single entry in the session's health log.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// Session is the state of one simulated trading run. Equity reflects
// realized profit only; unrealized PnL lives on open positions.
type Session struct {
	ID                 string    `json:"id"`
	StartTime          time.Time `json:"start_time"`
	Equity             float64   `json:"equity"`
	StartingEquity     float64   `json:"starting_equity"`
	TotalProfit        float64   `json:"total_profit"`
	TotalTrades        int       `json:"total_trades"`
	WinningTrades      int       `json:"winning_trades"`
	LosingTrades       int       `json:"losing_trades"`
	WinRate            float64   `json:"win_rate"`
	TargetWinRate      float64   `json:"target_win_rate"`
	IsActive           bool      `json:"is_active"`
	AutoTradingEnabled bool      `json:"auto_trading_enabled"`
}

// WeeklyTarget is the profit-target projection, derived from the session
// and the wall clock on every read. Weeks start on Sunday.
type WeeklyTarget struct {
	TargetProfit         float64 `json:"target_profit"`
	CurrentProfit        float64 `json:"current_profit"`
	ProgressPercent      float64 `json:"progress_percent"`
	DaysRemaining        int     `json:"days_remaining"`
	DailyAverage         float64 `json:"daily_average"`
	ProjectedProfit      float64 `json:"projected_profit"`
	DailyTargetRemaining float64 `json:"daily_target_remaining"`
	OnTrack              bool    `json:"on_track"`
}

// Tracker serializes all access to the session and its alert log.
type Tracker struct {
	mu      sync.Mutex
	logger  *zap.Logger
	session *Session
	alerts  []Alert

	// now is swappable so week-boundary math is testable.
	now func() time.Time
}

// NewTracker creates a tracker with no session. Most operations lazily
// initialize one; StopTrading and the read accessors tolerate its absence.
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		logger: logger.Named("session"),
		now:    time.Now,
	}
}

// InitializeSession replaces any existing session with a fresh, inactive one.
func (t *Tracker) InitializeSession(startingEquity float64) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initializeLocked(startingEquity)
}

func (t *Tracker) initializeLocked(startingEquity float64) Session {
	t.session = &Session{
		ID:             uuid.NewString(),
		StartTime:      t.now(),
		Equity:         startingEquity,
		StartingEquity: startingEquity,
		TargetWinRate:  TargetWinRate,
	}
	t.appendAlertLocked(AlertInfo, "Trading session initialized")
	t.logger.Info("Session initialized",
		zap.String("session_id", t.session.ID),
		zap.Float64("starting_equity", startingEquity),
	)
	return *t.session
}

// StartTrading activates the session, lazily initializing one if needed.
func (t *Tracker) StartTrading() Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		t.initializeLocked(DefaultStartingEquity)
	}
	t.session.IsActive = true
	t.session.AutoTradingEnabled = true
	t.appendAlertLocked(AlertInfo, "Auto-trading started")
	t.logger.Info("Trading started", zap.String("session_id", t.session.ID))
	return *t.session
}

// StopTrading deactivates the session. Returns false if none exists.
func (t *Tracker) StopTrading() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Session{}, false
	}
	t.session.IsActive = false
	t.session.AutoTradingEnabled = false
	t.appendAlertLocked(AlertInfo, "Auto-trading stopped")
	t.logger.Info("Trading stopped", zap.String("session_id", t.session.ID))
	return *t.session, true
}

// RecordTrade applies one closed trade's outcome to the session counters
// and fires milestone alerts when the weekly profit target or the win-rate
// target is newly reached.
func (t *Tracker) RecordTrade(profit float64, isWin bool) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		t.initializeLocked(DefaultStartingEquity)
	}
	s := t.session

	weeklyHitBefore := s.TotalProfit >= WeeklyTargetProfit
	winRateHitBefore := s.TotalTrades >= winRateMinTrades && s.WinRate >= TargetWinRate

	s.TotalTrades++
	if isWin {
		s.WinningTrades++
	} else {
		s.LosingTrades++
	}
	s.TotalProfit += profit
	s.Equity += profit
	s.WinRate = winRate(s.WinningTrades, s.TotalTrades)

	if !weeklyHitBefore && s.TotalProfit >= WeeklyTargetProfit {
		t.appendAlertLocked(AlertInfo, "Weekly profit target reached")
		t.logger.Info("Weekly profit target reached", zap.Float64("total_profit", s.TotalProfit))
	}
	if !winRateHitBefore && s.TotalTrades >= winRateMinTrades && s.WinRate >= TargetWinRate {
		t.appendAlertLocked(AlertInfo, "Win-rate target reached")
		t.logger.Info("Win-rate target reached", zap.Float64("win_rate", s.WinRate))
	}

	return *s
}

// ResetSession clears the alert log and starts a fresh session with the
// same starting equity as before (default when none existed).
func (t *Tracker) ResetSession() Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	startingEquity := DefaultStartingEquity
	if t.session != nil {
		startingEquity = t.session.StartingEquity
	}
	t.alerts = nil
	return t.initializeLocked(startingEquity)
}

// Session returns a copy of the current session state. The second return
// is false when no session has been initialized.
func (t *Tracker) Session() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Seed restores session state from a persisted snapshot, replacing the
// current session. Counters are taken as-is; the win rate is recomputed.
func (t *Tracker) Seed(s Session) {
	t.mu.Lock()
	defer t.mu.Unlock()

	restored := s
	restored.WinRate = winRate(s.WinningTrades, s.TotalTrades)
	t.session = &restored
	t.appendAlertLocked(AlertInfo, "Session restored from snapshot")
	t.logger.Info("Session restored", zap.String("session_id", restored.ID))
}

// AddAlert appends an alert to the health log, evicting the oldest entry
// once the log is at capacity. Newest entries come first.
func (t *Tracker) AddAlert(kind AlertType, message string) Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendAlertLocked(kind, message)
}

func (t *Tracker) appendAlertLocked(kind AlertType, message string) Alert {
	alert := Alert{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		Timestamp: t.now(),
	}
	t.alerts = append([]Alert{alert}, t.alerts...)
	if len(t.alerts) > alertCapacity {
		t.alerts = t.alerts[:alertCapacity]
	}
	return alert
}

// Alerts returns a copy of the alert log, newest first.
func (t *Tracker) Alerts() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Alert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

// WeeklyTarget derives the profit-target projection for the current
// calendar week (Sunday start) from the session and the wall clock.
func (t *Tracker) WeeklyTarget() WeeklyTarget {
	t.mu.Lock()
	defer t.mu.Unlock()

	var currentProfit float64
	if t.session != nil {
		currentProfit = t.session.TotalProfit
	}

	weekday := int(t.now().Weekday()) // Sunday == 0
	daysRemaining := 7 - weekday
	daysElapsed := weekday
	if daysElapsed < 1 {
		daysElapsed = 1
	}

	dailyAverage := currentProfit / float64(daysElapsed)
	projected := dailyAverage * 7

	progress := currentProfit / WeeklyTargetProfit * 100
	if progress > 100 {
		progress = 100
	}

	var dailyTargetRemaining float64
	if daysRemaining > 0 {
		dailyTargetRemaining = (WeeklyTargetProfit - currentProfit) / float64(daysRemaining)
	}

	return WeeklyTarget{
		TargetProfit:         WeeklyTargetProfit,
		CurrentProfit:        currentProfit,
		ProgressPercent:      progress,
		DaysRemaining:        daysRemaining,
		DailyAverage:         dailyAverage,
		ProjectedProfit:      projected,
		DailyTargetRemaining: dailyTargetRemaining,
		OnTrack:              projected >= WeeklyTargetProfit || currentProfit >= WeeklyTargetProfit,
	}
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}
