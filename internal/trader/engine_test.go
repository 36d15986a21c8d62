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

// panicStrategy blows up on every evaluation.
type panicStrategy struct{}

func (panicStrategy) Name() string                    { return "Panic" }
func (panicStrategy) Initialize(StrategyContext) error { return nil }
func (panicStrategy) Evaluate(context.Context, StrategyContext, string) error {
	panic("boom")
}

func newTestEngine(feed *stubFeed, strategy Strategy) *Engine {
	tracker := session.NewTracker(zap.NewNop())
	book := ledger.New(tracker, zap.NewNop())
	book.Initialize(800)
	tracker.StartTrading()

	cfg := &config.Config{
		Trading: config.Trading{
			TradePairs:     []string{"BTC-USD"},
			StartingEquity: 800,
			StakeAmount:    25,
			TickInterval:   3,
		},
		Risk: config.Risk{MinConfidence: 0.85},
	}
	return NewEngine(zap.NewNop(), cfg, feed, book, tracker, nil, strategy)
}

func TestRunCycleRecordsWarningOnFailedEvaluation(t *testing.T) {
	feed := &stubFeed{err: errors.New("upstream down")}
	e := newTestEngine(feed, NewSignalStrategy())

	// Two failing cycles: the loop must survive both and keep alerting.
	e.runCycle(context.Background())
	e.runCycle(context.Background())

	var warnings int
	for _, a := range e.sctx.Tracker.Alerts() {
		if a.Type == session.AlertWarning {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRunCycleContainsPanics(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	e := newTestEngine(feed, panicStrategy{})

	assert.NotPanics(t, func() {
		e.runCycle(context.Background())
	})

	var found bool
	for _, a := range e.sctx.Tracker.Alerts() {
		if a.Type == session.AlertError {
			found = true
		}
	}
	assert.True(t, found, "expected an error alert from the contained panic")
}

func TestRunCycleTrades(t *testing.T) {
	feed := &stubFeed{series: map[string][]float64{"BTC-USD": buySeries()}}
	e := newTestEngine(feed, NewSignalStrategy())

	e.runCycle(context.Background())

	require.Equal(t, 1, e.sctx.Ledger.OpenCount())
	sess, ok := e.sctx.Tracker.Session()
	require.True(t, ok)
	// Opening alone must not move equity.
	assert.InDelta(t, 800, sess.Equity, 1e-9)
}
