package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

func tradePrint(price, qty float64, side domain.Side) domain.MarketDataUpdate {
	return domain.MarketDataUpdate{
		Type:   domain.MarketDataTrade,
		Symbol: "BTC-USD",
		Trade: &domain.TradeInfo{
			Price: decimal.NewFromFloat(price),
			Qty:   decimal.NewFromFloat(qty),
			Side:  side,
		},
	}
}

func l2(bestBid, bestAsk float64, levelQty float64) domain.MarketDataUpdate {
	mk := func(px float64) []domain.PriceLevel {
		out := make([]domain.PriceLevel, 5)
		for i := range out {
			out[i] = domain.PriceLevel{
				Price: decimal.NewFromFloat(px),
				Qty:   decimal.NewFromFloat(levelQty),
			}
		}
		return out
	}
	return domain.MarketDataUpdate{
		Type:   domain.MarketDataL2,
		Symbol: "BTC-USD",
		Bids:   mk(bestBid),
		Asks:   mk(bestAsk),
	}
}

func TestTrackerIgnoresExecutionReports(t *testing.T) {
	tr := NewTracker()
	tr.Observe(domain.ExecutionReport{OrderID: "o1"})

	m := tr.Snapshot()
	assert.Equal(t, LevelLow, m.Volatility.Level)
	assert.Equal(t, BiasNeutral, m.TrendBias.Bias)
}

func TestVolatilityFlatTapeIsLow(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 20; i++ {
		tr.Observe(tradePrint(50000, 0.1, domain.Buy))
	}
	m := tr.Snapshot()
	assert.Equal(t, LevelLow, m.Volatility.Level)
	assert.InDelta(t, 0, m.Volatility.Value, 1e-12)
}

func TestVolatilityChoppyTapeIsHigh(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 30; i++ {
		px := 50000.0
		if i%2 == 0 {
			px = 51000.0 // 2% swings
		}
		tr.Observe(tradePrint(px, 0.1, domain.Buy))
	}
	m := tr.Snapshot()
	assert.Equal(t, LevelHigh, m.Volatility.Level)
}

func TestSpreadLevels(t *testing.T) {
	tr := NewTracker()
	tr.Observe(l2(49999, 50001, 1)) // ~0.4 bps, tight
	assert.Equal(t, LevelLow, tr.Snapshot().Spread.Level)

	tr.Observe(l2(49975, 50025, 1)) // ~10 bps
	assert.Equal(t, LevelMedium, tr.Snapshot().Spread.Level)

	tr.Observe(l2(49900, 50100, 1)) // ~40 bps, wide
	assert.Equal(t, LevelHigh, tr.Snapshot().Spread.Level)
}

func TestLiquidityFromTopThreeLevels(t *testing.T) {
	tr := NewTracker()
	tr.Observe(l2(49999, 50001, 0.5)) // 6 x 0.5 = 3
	m := tr.Snapshot()
	assert.Equal(t, LevelLow, m.Liquidity.Level)
	assert.InDelta(t, 3, m.Liquidity.Value, 1e-9)

	tr.Observe(l2(49999, 50001, 3)) // 6 x 3 = 18
	assert.Equal(t, LevelHigh, tr.Snapshot().Liquidity.Level)
}

func TestTrendBias(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 10; i++ {
		tr.Observe(tradePrint(50000, 1, domain.Buy))
	}
	tr.Observe(tradePrint(50000, 1, domain.Sell))
	m := tr.Snapshot()
	assert.Equal(t, BiasBuy, m.TrendBias.Bias)
	assert.Greater(t, m.TrendBias.Value, 0.2)
}

func TestTrackerWindowBounded(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < defaultWindow*3; i++ {
		tr.Observe(tradePrint(50000, 0.1, domain.Buy))
	}
	tr.mu.Lock()
	n := len(tr.prints)
	tr.mu.Unlock()
	assert.Equal(t, defaultWindow, n)
}

func TestEstimateFillProbabilityMarketable(t *testing.T) {
	est := EstimateFillProbability(domain.Buy, 50100, 49990, 50010, LevelLow, LevelLow)
	assert.InDelta(t, 95, est.Probability, 1e-9)
	assert.Equal(t, "Likely to fill soon", est.Label)

	est = EstimateFillProbability(domain.Sell, 49900, 49990, 50010, LevelLow, LevelLow)
	assert.InDelta(t, 95, est.Probability, 1e-9)
}

func TestEstimateFillProbabilityDistanceDecay(t *testing.T) {
	// ~2 bps away from the ask
	near := EstimateFillProbability(domain.Buy, 50000, 49995, 50010, LevelLow, LevelLow)
	// ~100 bps away
	far := EstimateFillProbability(domain.Buy, 49510, 49990, 50010, LevelLow, LevelLow)

	assert.Greater(t, near.Probability, far.Probability)
	assert.GreaterOrEqual(t, far.Probability, 5.0)
	assert.Equal(t, "Unlikely", far.Label)
}

func TestEstimateFillProbabilityPenalties(t *testing.T) {
	calm := EstimateFillProbability(domain.Buy, 50005, 49990, 50010, LevelLow, LevelLow)
	rough := EstimateFillProbability(domain.Buy, 50005, 49990, 50010, LevelHigh, LevelHigh)
	assert.InDelta(t, calm.Probability-10, rough.Probability, 1e-9)
}

func TestEstimateFillProbabilityInvalidInputs(t *testing.T) {
	est := EstimateFillProbability(domain.Buy, 0, 49990, 50010, LevelLow, LevelLow)
	assert.Zero(t, est.Probability)
	assert.Equal(t, "Unlikely", est.Label)
}
