package trader

import (
	"context"

	"paper-trading-bot-go/internal/config"
	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/market"
	"paper-trading-bot-go/internal/session"

	"go.uber.org/zap"
)

// StrategyContext provides the strategy with access to the core components.
type StrategyContext struct {
	Logger  *zap.Logger
	Cfg     *config.Config
	Feed    market.PriceFeed
	Ledger  *ledger.Ledger
	Tracker *session.Tracker
}

// Strategy defines the interface for a trading strategy.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Initialize gives the strategy a chance to perform setup tasks.
	Initialize(sc StrategyContext) error

	// Evaluate runs one decision cycle for a single pair. It is called
	// periodically by the engine for every configured pair.
	Evaluate(ctx context.Context, sc StrategyContext, pair string) error
}
