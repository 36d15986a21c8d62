// Package indicator provides technical indicator calculations over ordered
// price series (oldest first). All functions are pure and degrade to neutral
// defaults when the series is too short, so callers never branch on history
// length.
package indicator

import "math"

// Default periods used by the signal generator.
const (
	DefaultRSIPeriod       = 14
	DefaultMACDFast        = 12
	DefaultMACDSlow        = 26
	DefaultMACDSignal      = 9
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// BandPosition classifies where a price sits relative to Bollinger Bands.
type BandPosition string

const (
	BandBelowLower BandPosition = "below_lower"
	BandNearLower  BandPosition = "near_lower"
	BandMiddle     BandPosition = "middle"
	BandNearUpper  BandPosition = "near_upper"
	BandAboveUpper BandPosition = "above_upper"
)

// Bands holds the three Bollinger Band levels.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MACDResult holds the MACD line, its signal line, and the histogram.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// RSI computes the Relative Strength Index over the last period deltas.
// Returns the neutral value 50 when there are fewer than period+1 prices,
// and 100 when the window contains no losses.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	return 100 - 100/(1+avgGain/avgLoss)
}

// EMA computes the Exponential Moving Average, seeded with the simple
// average of the first period values. Returns the last price when the
// series is shorter than period.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	var ema float64
	for _, p := range prices[:period] {
		ema += p
	}
	ema /= float64(period)

	k := 2 / (float64(period) + 1)
	for _, p := range prices[period:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// MACD computes the MACD line (fast EMA - slow EMA), its signal line, and
// the histogram. The signal line is the signalPeriod-EMA of the macd-line
// series, reconstructed by recomputing both EMAs at every historical index.
// Quadratic, but the series here are short; flagged for an incremental
// rewrite if that ever changes.
func MACD(prices []float64, fast, slow, signalPeriod int) MACDResult {
	macdLine := EMA(prices, fast) - EMA(prices, slow)

	series := make([]float64, 0, len(prices))
	for i := slow; i <= len(prices); i++ {
		window := prices[:i]
		series = append(series, EMA(window, fast)-EMA(window, slow))
	}

	signalLine := EMA(series, signalPeriod)
	return MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}
}

// BollingerBands computes a simple moving average band with k population
// standard deviations on each side. With fewer than period prices it falls
// back to a degenerate ±2% band around the last price.
func BollingerBands(prices []float64, period int, k float64) Bands {
	if len(prices) == 0 {
		return Bands{}
	}
	last := prices[len(prices)-1]
	if len(prices) < period {
		return Bands{Upper: last * 1.02, Middle: last, Lower: last * 0.98}
	}

	window := prices[len(prices)-period:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	middle := sum / float64(period)

	var variance float64
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))

	return Bands{
		Upper:  middle + k*stdDev,
		Middle: middle,
		Lower:  middle - k*stdDev,
	}
}

// ClassifyBandPosition buckets a price against the bands. "Near" means
// within 30% of the half-span between the band and the middle.
func ClassifyBandPosition(price float64, b Bands) BandPosition {
	switch {
	case price < b.Lower:
		return BandBelowLower
	case price > b.Upper:
		return BandAboveUpper
	}

	if span := b.Middle - b.Lower; span > 0 {
		if price <= b.Lower+span*0.3 {
			return BandNearLower
		}
	}
	if span := b.Upper - b.Middle; span > 0 {
		if price >= b.Upper-span*0.3 {
			return BandNearUpper
		}
	}
	return BandMiddle
}
