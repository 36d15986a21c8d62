package trader

import (
	"context"
	"fmt"
	"time"

	"paper-trading-bot-go/internal/config"
	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/market"
	"paper-trading-bot-go/internal/session"
	"paper-trading-bot-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine drives the repeating evaluate-signals cycle. A failing cycle is
// logged and recorded as a health alert; the loop itself only stops when
// its context is cancelled.
type Engine struct {
	UUID      string
	Name      string
	StartTime time.Time

	logger   *zap.Logger
	cfg      *config.Config
	strategy Strategy
	sctx     StrategyContext
	store    *store.SnapshotStore

	// persisted counts how many closed trades have been flushed already.
	persisted int
}

// NewEngine creates a new trading engine. The store may be nil, in which
// case state is kept in memory only.
func NewEngine(
	logger *zap.Logger,
	cfg *config.Config,
	feed market.PriceFeed,
	book *ledger.Ledger,
	tracker *session.Tracker,
	snapshots *store.SnapshotStore,
	strategy Strategy,
) *Engine {
	return &Engine{
		UUID:      uuid.NewString(),
		Name:      "paper-trader",
		StartTime: time.Now(),
		logger:    logger.Named("engine"),
		cfg:       cfg,
		strategy:  strategy,
		store:     snapshots,
		sctx: StrategyContext{
			Logger:  logger.Named("strategy"),
			Cfg:     cfg,
			Feed:    feed,
			Ledger:  book,
			Tracker: tracker,
		},
	}
}

// Run starts the engine's main loop and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Initializing trading engine...", zap.String("strategy", e.strategy.Name()))
	if err := e.strategy.Initialize(e.sctx); err != nil {
		e.logger.Fatal("Failed to initialize strategy", zap.Error(err))
	}

	interval := time.Duration(e.cfg.Trading.TickInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting evaluation loop", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trading engine...")
			e.flush()
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle executes one full evaluation pass. Panics and errors from a
// cycle are contained here so the next tick always happens.
func (e *Engine) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Evaluation cycle panicked: %v", r)
			e.logger.Error(msg)
			e.sctx.Tracker.AddAlert(session.AlertError, msg)
		}
	}()

	for _, pair := range e.cfg.Trading.TradePairs {
		if err := e.strategy.Evaluate(ctx, e.sctx, pair); err != nil {
			e.logger.Warn("Evaluation failed", zap.String("pair", pair), zap.Error(err))
			e.sctx.Tracker.AddAlert(session.AlertWarning,
				fmt.Sprintf("Evaluation failed for %s: %v", pair, err))
		}
	}

	e.flush()
}

// flush persists new closed trades, the alert log, and a session snapshot.
// Persistence failures degrade to warnings; the in-memory state stays
// authoritative.
func (e *Engine) flush() {
	if e.store == nil {
		return
	}
	sess, ok := e.sctx.Tracker.Session()
	if !ok {
		return
	}

	closed := e.sctx.Ledger.ClosedTrades()
	if e.persisted > len(closed) {
		// Ledger was reset since the last flush.
		e.persisted = 0
	}
	for _, trade := range closed[e.persisted:] {
		if err := e.store.SaveClosedTrade(sess.ID, trade); err != nil {
			e.logger.Warn("Failed to persist closed trade", zap.Error(err))
			return
		}
		e.persisted++
	}

	if err := e.store.SaveAlerts(sess.ID, e.sctx.Tracker.Alerts()); err != nil {
		e.logger.Warn("Failed to persist alerts", zap.Error(err))
	}
	if err := e.store.SaveSessionSnapshot(sess); err != nil {
		e.logger.Warn("Failed to persist session snapshot", zap.Error(err))
	}
}
