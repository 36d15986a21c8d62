package trader

import (
	"context"
	"errors"
	"testing"

	"paper-trading-bot-go/internal/config"
	"paper-trading-bot-go/internal/ledger"
	"paper-trading-bot-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFeed serves a fixed series per pair, or a fixed error.
type stubFeed struct {
	series map[string][]float64
	err    error
}

func (f *stubFeed) History(_ context.Context, pair string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	prices, ok := f.series[pair]
	if !ok {
		return nil, errors.New("unknown pair")
	}
	return prices, nil
}

func (f *stubFeed) Last(_ context.Context, pair string) (float64, error) {
	prices, err := f.History(context.Background(), pair)
	if err != nil {
		return 0, err
	}
	return prices[len(prices)-1], nil
}

// buySeries triggers an oversold RSI with a bullish MACD cross: flat, a
// sharp sell-off, then a partial recovery ending at 74.
func buySeries() []float64 {
	prices := make([]float64, 0, 35)
	for i := 0; i < 20; i++ {
		prices = append(prices, 100)
	}
	for i := 1; i <= 8; i++ {
		prices = append(prices, 100-5*float64(i))
	}
	for i := 1; i <= 7; i++ {
		prices = append(prices, 60+2*float64(i))
	}
	return prices
}

// flatSeries yields HOLD: no losses pegs RSI at 100 and MACD stays neutral.
func flatSeries(price float64) []float64 {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = price
	}
	return prices
}

func newTestContext(feed *stubFeed) StrategyContext {
	tracker := session.NewTracker(zap.NewNop())
	book := ledger.New(tracker, zap.NewNop())
	book.Initialize(800)
	tracker.StartTrading()

	return StrategyContext{
		Logger: zap.NewNop(),
		Cfg: &config.Config{
			Trading: config.Trading{
				TradePairs:     []string{"BTC-USD"},
				StartingEquity: 800,
				StakeAmount:    25,
			},
			Risk: config.Risk{MinConfidence: 0.85},
		},
		Feed:    feed,
		Ledger:  book,
		Tracker: tracker,
	}
}

func TestEvaluateOpensOnBuySignal(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	strategy := NewSignalStrategy()
	require.NoError(t, strategy.Initialize(sc))

	err := strategy.Evaluate(context.Background(), sc, "BTC-USD")
	require.NoError(t, err)

	positions := sc.Ledger.OpenPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, "BTC-USD", positions[0].Pair)
	assert.Equal(t, 25.0, positions[0].StakeAmount)
	assert.Equal(t, 74.0, positions[0].OpenRate)

	// Exit levels were remembered for the new position.
	levels, ok := strategy.levels[positions[0].ID]
	require.True(t, ok)
	assert.Less(t, levels.stopLoss, 74.0)
	assert.Greater(t, levels.takeProfit, 74.0)
}

func TestEvaluateHoldsBelowConfidenceThreshold(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	sc.Cfg.Risk.MinConfidence = 0.95 // above the base 0.85

	strategy := NewSignalStrategy()
	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))

	assert.Zero(t, sc.Ledger.OpenCount())
}

func TestEvaluateRespectsAutoTradingFlag(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	sc.Tracker.StopTrading()

	strategy := NewSignalStrategy()
	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))

	assert.Zero(t, sc.Ledger.OpenCount())
}

func TestEvaluateRefusesWhenRiskBreached(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	// Drive the session past the drawdown limit.
	sc.Tracker.RecordTrade(-120, false)

	strategy := NewSignalStrategy()
	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))

	assert.Zero(t, sc.Ledger.OpenCount())

	var found bool
	for _, a := range sc.Tracker.Alerts() {
		if a.Type == session.AlertWarning && a.Message == "Risk limits breached, trading paused" {
			found = true
		}
	}
	assert.True(t, found, "expected a risk warning alert")
}

func TestEvaluateEnforcesOpenTradeCap(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	strategy := NewSignalStrategy()

	// The cap is three open trades; a fourth evaluation must not open more.
	for i := 0; i < 4; i++ {
		require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))
	}
	assert.Equal(t, 3, sc.Ledger.OpenCount())
}

func TestEvaluateClosesOnStopLoss(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	strategy := NewSignalStrategy()

	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))
	require.Equal(t, 1, sc.Ledger.OpenCount())

	// Crash through the stop: next cycle marks to market and closes. The
	// flat series itself reads as HOLD, so nothing reopens.
	feed.series["BTC-USD"] = flatSeries(40)
	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))

	assert.Zero(t, sc.Ledger.OpenCount())
	closed := sc.Ledger.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Equal(t, 40.0, closed[0].CloseRate)
	assert.Negative(t, closed[0].ProfitAbs)
	assert.Empty(t, strategy.levels)
}

func TestEvaluateClosesOnTakeProfit(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	sc := newTestContext(feed)
	strategy := NewSignalStrategy()

	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))
	positions := sc.Ledger.OpenPositions()
	require.Len(t, positions, 1)
	target := strategy.levels[positions[0].ID].takeProfit

	feed.series["BTC-USD"] = flatSeries(target + 1)
	require.NoError(t, strategy.Evaluate(context.Background(), sc, "BTC-USD"))

	assert.Zero(t, sc.Ledger.OpenCount())
	closed := sc.Ledger.ClosedTrades()
	require.Len(t, closed, 1)
	assert.Positive(t, closed[0].ProfitAbs)
}

func TestEvaluatePropagatesFeedErrors(t *testing.T) {
	feed := &stubFeed{err: errors.New("upstream down")}
	sc := newTestContext(feed)
	strategy := NewSignalStrategy()

	err := strategy.Evaluate(context.Background(), sc, "BTC-USD")
	assert.Error(t, err)
	// A failed market read must not have touched the ledger.
	assert.Zero(t, sc.Ledger.OpenCount())
	assert.Empty(t, sc.Ledger.ClosedTrades())
}
