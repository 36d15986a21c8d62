// Package market defines the price-input boundary. The engine only ever
// sees the PriceFeed interface; where the series actually comes from is the
// collaborator's business.
package market

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// PriceFeed supplies ordered price series, oldest first.
type PriceFeed interface {
	// History returns the price series for a pair, advanced to the
	// current tick.
	History(ctx context.Context, pair string) ([]float64, error)

	// Last returns the most recent price for a pair.
	Last(ctx context.Context, pair string) (float64, error)
}

// RandomWalkFeed simulates prices as a seeded random walk. It backs dry
// runs and demos; live deployments plug in a real market-data client
// behind the same interface.
type RandomWalkFeed struct {
	mu     sync.Mutex
	r      *rand.Rand
	size   int
	series map[string][]float64
}

// NewRandomWalkFeed creates a feed pre-filled with size points of history
// per pair, walked from each pair's base price.
func NewRandomWalkFeed(seed int64, size int, basePrices map[string]float64) *RandomWalkFeed {
	f := &RandomWalkFeed{
		r:      rand.New(rand.NewSource(seed)),
		size:   size,
		series: make(map[string][]float64, len(basePrices)),
	}
	for pair, base := range basePrices {
		prices := make([]float64, 0, size)
		price := base
		for i := 0; i < size; i++ {
			price = f.step(price)
			prices = append(prices, price)
		}
		f.series[pair] = prices
	}
	return f
}

// History advances the walk one tick and returns a copy of the series.
func (f *RandomWalkFeed) History(ctx context.Context, pair string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prices, ok := f.series[pair]
	if !ok {
		return nil, fmt.Errorf("unknown pair %q", pair)
	}

	next := f.step(prices[len(prices)-1])
	prices = append(prices[1:], next)
	f.series[pair] = prices

	out := make([]float64, len(prices))
	copy(out, prices)
	return out, nil
}

// Last returns the current price without advancing the walk.
func (f *RandomWalkFeed) Last(ctx context.Context, pair string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prices, ok := f.series[pair]
	if !ok {
		return 0, fmt.Errorf("unknown pair %q", pair)
	}
	return prices[len(prices)-1], nil
}

// step moves the price by up to ±1.5%, floored just above zero so a long
// losing streak cannot walk a pair negative.
func (f *RandomWalkFeed) step(price float64) float64 {
	next := price * (1 + (f.r.Float64()-0.5)*0.03)
	if next <= 0 {
		next = price * 0.01
	}
	return next
}
