// Package ledger implements the in-memory state machine for a single
// simulated portfolio. Trades move OPEN -> CLOSED or OPEN -> CANCELLED and
// never leave a terminal state. Session equity reflects realized profit
// only; unrealized PnL is carried on the open position itself.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"paper-trading-bot-go/internal/session"

	"go.uber.org/zap"
)

// Sentinel errors for ledger operations. Callers match with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("trade not found")
	ErrInvalidState = errors.New("trade is not open")
)

// Status of a trade within the ledger.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Position is an open simulated trade. ProfitAbs/ProfitRatio hold the
// unrealized PnL against CurrentRate.
type Position struct {
	ID          int64     `json:"id"`
	Pair        string    `json:"pair"`
	StakeAmount float64   `json:"stake_amount"`
	Quantity    float64   `json:"quantity"`
	OpenRate    float64   `json:"open_rate"`
	CurrentRate float64   `json:"current_rate"`
	ProfitAbs   float64   `json:"profit_abs"`
	ProfitRatio float64   `json:"profit_ratio"`
	OpenedAt    time.Time `json:"opened_at"`
}

// ClosedTrade is a position in a terminal state. Immutable once created.
type ClosedTrade struct {
	Position
	Status    Status    `json:"status"`
	CloseRate float64   `json:"close_rate"`
	ClosedAt  time.Time `json:"closed_at"`
}

// Ledger tracks the open and closed trades of one session. Counter and
// equity updates on close are delegated to the owning session tracker, so
// the equity identity (starting equity + realized profit) always holds.
type Ledger struct {
	mu      sync.Mutex
	logger  *zap.Logger
	tracker *session.Tracker
	nextID  int64
	order   []int64
	open    map[int64]*Position
	closed  []ClosedTrade

	now func() time.Time
}

// New creates an empty ledger owned by the given session tracker.
func New(tracker *session.Tracker, logger *zap.Logger) *Ledger {
	return &Ledger{
		logger:  logger.Named("ledger"),
		tracker: tracker,
		open:    make(map[int64]*Position),
		now:     time.Now,
	}
}

// Initialize discards all trades and resets the owning session to a fresh
// inactive state with the given starting equity.
func (l *Ledger) Initialize(startingEquity float64) session.Session {
	l.mu.Lock()
	l.nextID = 0
	l.order = nil
	l.open = make(map[int64]*Position)
	l.closed = nil
	l.mu.Unlock()

	return l.tracker.InitializeSession(startingEquity)
}

// Reset discards all trades and performs the owning session's full reset,
// which also clears the alert log. Starting equity carries over.
func (l *Ledger) Reset() session.Session {
	l.mu.Lock()
	l.nextID = 0
	l.order = nil
	l.open = make(map[int64]*Position)
	l.closed = nil
	l.mu.Unlock()

	return l.tracker.ResetSession()
}

// OpenTrade creates a new open position. Stake and rate must be positive.
func (l *Ledger) OpenTrade(pair string, stakeAmount, openRate float64) (Position, error) {
	if stakeAmount <= 0 {
		return Position{}, fmt.Errorf("%w: stake amount must be positive, got %f", ErrValidation, stakeAmount)
	}
	if openRate <= 0 {
		return Position{}, fmt.Errorf("%w: open rate must be positive, got %f", ErrValidation, openRate)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	pos := &Position{
		ID:          l.nextID,
		Pair:        pair,
		StakeAmount: stakeAmount,
		Quantity:    stakeAmount / openRate,
		OpenRate:    openRate,
		CurrentRate: openRate,
		OpenedAt:    l.now(),
	}
	l.open[pos.ID] = pos
	l.order = append(l.order, pos.ID)

	l.logger.Info("Trade opened",
		zap.Int64("trade_id", pos.ID),
		zap.String("pair", pair),
		zap.Float64("stake", stakeAmount),
		zap.Float64("open_rate", openRate),
	)
	return *pos, nil
}

// UpdateTradePrice marks an open position to market, recomputing its
// unrealized PnL.
func (l *Ledger) UpdateTradePrice(id int64, currentRate float64) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, err := l.openPositionLocked(id)
	if err != nil {
		return Position{}, err
	}

	pos.CurrentRate = currentRate
	pos.ProfitAbs = (currentRate - pos.OpenRate) / pos.OpenRate * pos.StakeAmount
	pos.ProfitRatio = pos.ProfitAbs / pos.StakeAmount
	return *pos, nil
}

// CloseTrade moves an open position to the closed set, realizing its PnL
// into the session. A trade with exactly zero profit counts as a loss.
func (l *Ledger) CloseTrade(id int64, closeRate float64) (ClosedTrade, error) {
	l.mu.Lock()
	pos, err := l.openPositionLocked(id)
	if err != nil {
		l.mu.Unlock()
		return ClosedTrade{}, err
	}

	pos.CurrentRate = closeRate
	pos.ProfitAbs = (closeRate - pos.OpenRate) / pos.OpenRate * pos.StakeAmount
	pos.ProfitRatio = pos.ProfitAbs / pos.StakeAmount

	closed := ClosedTrade{
		Position:  *pos,
		Status:    StatusClosed,
		CloseRate: closeRate,
		ClosedAt:  l.now(),
	}
	l.removeLocked(id)
	l.closed = append(l.closed, closed)
	l.mu.Unlock()

	// Session update happens outside the ledger lock; the tracker has its
	// own serialization.
	l.tracker.RecordTrade(closed.ProfitAbs, closed.ProfitAbs > 0)

	l.logger.Info("Trade closed",
		zap.Int64("trade_id", id),
		zap.Float64("close_rate", closeRate),
		zap.Float64("profit_abs", closed.ProfitAbs),
	)
	return closed, nil
}

// CancelTrade discards an open position without realizing any PnL or
// touching the session counters.
func (l *Ledger) CancelTrade(id int64) (ClosedTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, err := l.openPositionLocked(id)
	if err != nil {
		return ClosedTrade{}, err
	}

	cancelled := ClosedTrade{
		Position: *pos,
		Status:   StatusCancelled,
		ClosedAt: l.now(),
	}
	cancelled.ProfitAbs = 0
	cancelled.ProfitRatio = 0
	l.removeLocked(id)
	l.closed = append(l.closed, cancelled)

	l.logger.Info("Trade cancelled", zap.Int64("trade_id", id))
	return cancelled, nil
}

// OpenPositions returns copies of all open positions in opening order.
func (l *Ledger) OpenPositions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.open))
	for _, id := range l.order {
		if pos, ok := l.open[id]; ok {
			out = append(out, *pos)
		}
	}
	return out
}

// ClosedTrades returns copies of all terminal trades in closing order.
func (l *Ledger) ClosedTrades() []ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ClosedTrade, len(l.closed))
	copy(out, l.closed)
	return out
}

// OpenCount reports how many positions are currently open.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

func (l *Ledger) openPositionLocked(id int64) (*Position, error) {
	if pos, ok := l.open[id]; ok {
		return pos, nil
	}
	// Distinguish a terminal trade from an id that never existed.
	for _, c := range l.closed {
		if c.ID == id {
			return nil, fmt.Errorf("%w: trade %d is %s", ErrInvalidState, id, c.Status)
		}
	}
	return nil, fmt.Errorf("%w: trade %d", ErrNotFound, id)
}

func (l *Ledger) removeLocked(id int64) {
	delete(l.open, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}
