// Package signal turns indicator readings into categorical trade signals.
// Generation is a pure query: identical inputs always produce identical
// signals, and every input maps to a defined output.
package signal

import (
	"math"

	"paper-trading-bot-go/internal/indicator"
)

// Action is the categorical trade decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// minHistory is the shortest price series the generator will analyze.
// Anything shorter yields a neutral HOLD.
const minHistory = 30

// Snapshot captures the indicator readings a signal was derived from.
type Snapshot struct {
	RSI          float64                `json:"rsi"`
	MACD         float64                `json:"macd"`
	MACDSignal   float64                `json:"macd_signal"`
	Histogram    float64                `json:"histogram"`
	Bollinger    indicator.Bands        `json:"bollinger"`
	BandPosition indicator.BandPosition `json:"band_position"`
}

// TradeSignal is the generator's output: a decision plus the price levels
// to trade it at. Values are immutable once produced.
type TradeSignal struct {
	Symbol     string   `json:"symbol"`
	Signal     Action   `json:"signal"`
	Confidence float64  `json:"confidence"`
	EntryPrice float64  `json:"entry_price"`
	StopLoss   float64  `json:"stop_loss"`
	TakeProfit float64  `json:"take_profit"`
	RiskReward float64  `json:"risk_reward"`
	Indicators Snapshot `json:"indicators"`
}

type rsiReading string

const (
	rsiOverbought rsiReading = "overbought"
	rsiOversold   rsiReading = "oversold"
	rsiNeutral    rsiReading = "neutral"
)

type macdReading string

const (
	macdBullish macdReading = "bullish"
	macdBearish macdReading = "bearish"
	macdNeutral macdReading = "neutral"
)

type bandReading string

const (
	bandUpper  bandReading = "upper_band"
	bandLower  bandReading = "lower_band"
	bandMiddle bandReading = "middle"
)

// Generate produces a fresh TradeSignal for the given price history.
// Histories shorter than 30 points yield a neutral HOLD rather than an
// error; insufficient data is an expected state, not a failure.
func Generate(symbol string, history []float64, currentPrice float64) TradeSignal {
	if len(history) < minHistory {
		return holdSignal(symbol, currentPrice, Snapshot{
			RSI:          50,
			Bollinger:    indicator.Bands{Upper: currentPrice * 1.02, Middle: currentPrice, Lower: currentPrice * 0.98},
			BandPosition: indicator.BandMiddle,
		})
	}

	rsi := indicator.RSI(history, indicator.DefaultRSIPeriod)
	macd := indicator.MACD(history, indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal)
	bands := indicator.BollingerBands(history, indicator.DefaultBollingerPeriod, indicator.DefaultBollingerK)

	snap := Snapshot{
		RSI:          rsi,
		MACD:         macd.MACD,
		MACDSignal:   macd.Signal,
		Histogram:    macd.Histogram,
		Bollinger:    bands,
		BandPosition: indicator.ClassifyBandPosition(currentPrice, bands),
	}

	rsiSig := classifyRSI(rsi)
	macdSig := classifyMACD(macd)
	bandSig := collapseBand(snap.BandPosition)

	switch {
	case rsiSig == rsiOversold && macdSig == macdBullish:
		return buildSignal(symbol, ActionBuy, currentPrice, snap, bandSig, macdSig)
	case rsiSig == rsiOverbought && macdSig == macdBearish:
		return buildSignal(symbol, ActionSell, currentPrice, snap, bandSig, macdSig)
	}
	return holdSignal(symbol, currentPrice, snap)
}

func classifyRSI(rsi float64) rsiReading {
	switch {
	case rsi > 70:
		return rsiOverbought
	case rsi < 30:
		return rsiOversold
	}
	return rsiNeutral
}

func classifyMACD(m indicator.MACDResult) macdReading {
	switch {
	case m.Histogram > 0 && m.MACD > m.Signal:
		return macdBullish
	case m.Histogram < 0 && m.MACD < m.Signal:
		return macdBearish
	}
	return macdNeutral
}

func collapseBand(pos indicator.BandPosition) bandReading {
	switch pos {
	case indicator.BandBelowLower, indicator.BandNearLower:
		return bandLower
	case indicator.BandAboveUpper, indicator.BandNearUpper:
		return bandUpper
	}
	return bandMiddle
}

func buildSignal(symbol string, action Action, price float64, snap Snapshot, bandSig bandReading, macdSig macdReading) TradeSignal {
	var stopLoss, takeProfit float64
	var bandMatch bool
	var macdMatch bool

	if action == ActionBuy {
		stopLoss = snap.Bollinger.Lower * 0.99
		takeProfit = price + (price-stopLoss)*2
		bandMatch = bandSig == bandLower
		macdMatch = macdSig == macdBullish
	} else {
		stopLoss = snap.Bollinger.Upper * 1.01
		takeProfit = price - (stopLoss-price)*2
		bandMatch = bandSig == bandUpper
		macdMatch = macdSig == macdBearish
	}

	confidence := 0.85
	if bandMatch {
		confidence = 0.95
		if macdMatch {
			confidence = math.Min(1.0, confidence+0.1)
		}
	}

	return TradeSignal{
		Symbol:     symbol,
		Signal:     action,
		Confidence: confidence,
		EntryPrice: price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		RiskReward: riskReward(action, price, stopLoss, takeProfit),
		Indicators: snap,
	}
}

func holdSignal(symbol string, price float64, snap Snapshot) TradeSignal {
	return TradeSignal{
		Symbol:     symbol,
		Signal:     ActionHold,
		Confidence: 0,
		EntryPrice: price,
		StopLoss:   price * 0.98,
		TakeProfit: price * 1.02,
		RiskReward: 1,
		Indicators: snap,
	}
}

// riskReward computes reward:risk. Falls back to 1 when the risk leg is
// degenerate (flat band, zero denominator, non-finite result).
func riskReward(action Action, entry, stopLoss, takeProfit float64) float64 {
	var rr float64
	if action == ActionBuy {
		rr = (takeProfit - entry) / (entry - stopLoss)
	} else {
		rr = (entry - takeProfit) / (stopLoss - entry)
	}
	if math.IsNaN(rr) || math.IsInf(rr, 0) || rr <= 0 {
		return 1
	}
	return rr
}
