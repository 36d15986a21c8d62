package trader

import (
	"context"
	"errors"
	"fmt"

	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/risk"
	"paper-trading-bot-go/internal/session"
	"paper-trading-bot-go/internal/signal"

	"go.uber.org/zap"
)

// priceLevels holds the exit levels recorded when a position was opened.
type priceLevels struct {
	stopLoss   float64
	takeProfit float64
}

// SignalStrategy opens and closes paper trades from technical-indicator
// signals. The portfolio is long-only: BUY signals open positions, SELL
// signals and stop/target crossings close them.
type SignalStrategy struct {
	levels map[int64]priceLevels
}

// NewSignalStrategy creates the default indicator-driven strategy.
func NewSignalStrategy() *SignalStrategy {
	return &SignalStrategy{levels: make(map[int64]priceLevels)}
}

// Name returns the unique name of the strategy.
func (s *SignalStrategy) Name() string {
	return "SignalStrategy"
}

// Initialize logs the configured pairs; the strategy itself is stateless
// apart from remembered exit levels.
func (s *SignalStrategy) Initialize(sc StrategyContext) error {
	if len(sc.Cfg.Trading.TradePairs) == 0 {
		sc.Logger.Warn("No trade pairs configured. SignalStrategy will not be able to trade.")
	}
	sc.Logger.Info("SignalStrategy initialized",
		zap.Strings("pairs", sc.Cfg.Trading.TradePairs),
		zap.Float64("min_confidence", sc.Cfg.Risk.MinConfidence),
	)
	return nil
}

// Evaluate runs one cycle for a pair: mark open positions to market, close
// what hit its exit levels, then act on a fresh signal. The market read
// happens in full before any ledger mutation, so a failed fetch leaves
// state untouched.
func (s *SignalStrategy) Evaluate(ctx context.Context, sc StrategyContext, pair string) error {
	history, err := sc.Feed.History(ctx, pair)
	if err != nil {
		return fmt.Errorf("could not get price history for %s: %w", pair, err)
	}
	if len(history) == 0 {
		return fmt.Errorf("empty price history for %s", pair)
	}
	current := history[len(history)-1]

	s.markToMarket(sc, pair, current)

	sig := signal.Generate(pair, history, current)
	l := sc.Logger.With(
		zap.String("pair", pair),
		zap.String("signal", string(sig.Signal)),
		zap.Float64("confidence", sig.Confidence),
	)

	switch sig.Signal {
	case signal.ActionBuy:
		s.tryOpen(sc, l, sig)
	case signal.ActionSell:
		s.closeAll(sc, pair, current, "sell signal")
	default:
		l.Debug("Holding")
	}
	return nil
}

// markToMarket updates unrealized PnL for the pair's open positions and
// closes any that crossed their stop-loss or take-profit.
func (s *SignalStrategy) markToMarket(sc StrategyContext, pair string, current float64) {
	for _, pos := range sc.Ledger.OpenPositions() {
		if pos.Pair != pair {
			continue
		}
		if _, err := sc.Ledger.UpdateTradePrice(pos.ID, current); err != nil {
			// Raced with a concurrent close; nothing to do.
			sc.Logger.Debug("Skipping price update", zap.Int64("trade_id", pos.ID), zap.Error(err))
			continue
		}

		levels, ok := s.levels[pos.ID]
		if !ok {
			continue
		}
		if current <= levels.stopLoss {
			s.closeOne(sc, pos.ID, current, "stop-loss hit")
		} else if current >= levels.takeProfit {
			s.closeOne(sc, pos.ID, current, "take-profit hit")
		}
	}
}

// tryOpen opens a position for a BUY signal after the risk checks pass.
func (s *SignalStrategy) tryOpen(sc StrategyContext, l *zap.Logger, sig signal.TradeSignal) {
	if sig.Confidence < sc.Cfg.Risk.MinConfidence {
		l.Debug("Signal below confidence threshold")
		return
	}

	sess, ok := sc.Tracker.Session()
	if !ok || !sess.AutoTradingEnabled {
		l.Debug("Auto-trading disabled, ignoring signal")
		return
	}

	riskState := risk.Assess(sess)
	if !riskState.IsWithinLimits {
		l.Warn("Risk limits breached, refusing new position",
			zap.Float64("drawdown", riskState.CurrentDrawdown),
			zap.Float64("daily_loss", riskState.CurrentDailyLoss),
		)
		sc.Tracker.AddAlert(session.AlertWarning, "Risk limits breached, trading paused")
		return
	}
	if sc.Ledger.OpenCount() >= riskState.MaxOpenTrades {
		l.Debug("Open-trade cap reached")
		return
	}

	stake := sc.Cfg.Trading.StakeAmount
	if stake > riskState.MaxPositionSize {
		stake = riskState.MaxPositionSize
	}

	pos, err := sc.Ledger.OpenTrade(sig.Symbol, stake, sig.EntryPrice)
	if err != nil {
		// Validation failures are caller-handled, never escalated.
		l.Error("Failed to open trade", zap.Error(err))
		return
	}
	s.levels[pos.ID] = priceLevels{stopLoss: sig.StopLoss, takeProfit: sig.TakeProfit}

	l.Info("Opened position",
		zap.Int64("trade_id", pos.ID),
		zap.Float64("stake", stake),
		zap.Float64("stop_loss", sig.StopLoss),
		zap.Float64("take_profit", sig.TakeProfit),
	)
}

// closeAll closes every open position on the pair at the current price.
func (s *SignalStrategy) closeAll(sc StrategyContext, pair string, current float64, reason string) {
	for _, pos := range sc.Ledger.OpenPositions() {
		if pos.Pair == pair {
			s.closeOne(sc, pos.ID, current, reason)
		}
	}
}

func (s *SignalStrategy) closeOne(sc StrategyContext, id int64, rate float64, reason string) {
	closed, err := sc.Ledger.CloseTrade(id, rate)
	if err != nil {
		if !errors.Is(err, ledger.ErrInvalidState) {
			sc.Logger.Error("Failed to close trade", zap.Int64("trade_id", id), zap.Error(err))
		}
		return
	}
	delete(s.levels, id)
	sc.Logger.Info("Closed position",
		zap.Int64("trade_id", id),
		zap.String("reason", reason),
		zap.Float64("profit_abs", closed.ProfitAbs),
	)
}
