package ledger

import (
	"fmt"
	"math/rand"
)

// SeedSampleTrades opens and immediately closes n synthetic trades through
// the public ledger API, for demo dashboards and manual testing. It is a
// test-data utility and deliberately lives outside the state machine's
// contract: everything it does goes through OpenTrade/CloseTrade, so the
// ledger invariants hold for the generated data too.
func SeedSampleTrades(l *Ledger, r *rand.Rand, pairs []string, n int) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no pairs to sample from", ErrValidation)
	}

	for i := 0; i < n; i++ {
		pair := pairs[r.Intn(len(pairs))]
		stake := 10 + r.Float64()*40
		openRate := 100 + r.Float64()*900

		pos, err := l.OpenTrade(pair, stake, openRate)
		if err != nil {
			return err
		}

		// Close within ±3% of the open rate, skewed slightly positive so
		// sample sessions look like a live winning streak.
		move := (r.Float64()*0.06 - 0.028)
		if _, err := l.CloseTrade(pos.ID, openRate*(1+move)); err != nil {
			return err
		}
	}
	return nil
}
