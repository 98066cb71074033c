// Package metrics derives display-grade market statistics from the venue's
// own event stream: realized volatility, spread, top-of-book liquidity and
// aggressor bias, plus a heuristic fill-probability estimate for a resting
// limit order. All of it is advisory; nothing here feeds back into matching.
package metrics

import (
	"math"
	"sync"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

type Bias string

const (
	BiasBuy     Bias = "BUY-SIDE"
	BiasSell    Bias = "SELL-SIDE"
	BiasNeutral Bias = "NEUTRAL"
)

type Measure struct {
	Value float64 `json:"value"`
	Level Level   `json:"level"`
}

type TrendMeasure struct {
	Value float64 `json:"value"`
	Bias  Bias    `json:"bias"`
}

type MarketMetrics struct {
	Volatility Measure      `json:"volatility"`
	Spread     Measure      `json:"spread"`
	Liquidity  Measure      `json:"liquidity"`
	TrendBias  TrendMeasure `json:"trend_bias"`
}

const defaultWindow = 50

type print struct {
	price float64
	qty   float64
	side  domain.Side
}

// Tracker accumulates trade prints (newest first, bounded to the window) and
// the latest L2 snapshot. Wire it to the feed with Observe.
type Tracker struct {
	mu     sync.Mutex
	prints []print
	lastL2 *domain.MarketDataUpdate
	window int
}

func NewTracker() *Tracker {
	return &Tracker{window: defaultWindow}
}

// Observe is a feed subscriber; it ignores execution reports.
func (t *Tracker) Observe(ev domain.Event) {
	md, ok := ev.(domain.MarketDataUpdate)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch md.Type {
	case domain.MarketDataL2:
		snap := md
		t.lastL2 = &snap
	case domain.MarketDataTrade:
		if md.Trade == nil {
			return
		}
		px, _ := md.Trade.Price.Float64()
		qty, _ := md.Trade.Qty.Float64()
		t.prints = append([]print{{price: px, qty: qty, side: md.Trade.Side}}, t.prints...)
		if len(t.prints) > t.window {
			t.prints = t.prints[:t.window]
		}
	}
}

func (t *Tracker) Snapshot() MarketMetrics {
	t.mu.Lock()
	prints := make([]print, len(t.prints))
	copy(prints, t.prints)
	l2 := t.lastL2
	t.mu.Unlock()

	return MarketMetrics{
		Volatility: computeVolatility(prints),
		Spread:     computeSpread(l2),
		Liquidity:  computeLiquidity(l2),
		TrendBias:  computeTrendBias(prints),
	}
}

// computeVolatility is the stddev of tick-to-tick returns over the window,
// expressed in percent.
func computeVolatility(prints []print) Measure {
	if len(prints) < 2 {
		return Measure{Level: LevelLow}
	}
	// prints are newest first; walk oldest to newest
	var returns []float64
	for i := len(prints) - 1; i > 0; i-- {
		prev := prints[i].price
		curr := prints[i-1].price
		if prev > 0 {
			returns = append(returns, (curr-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return Measure{Level: LevelLow}
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	value := math.Sqrt(variance) * 100
	level := LevelLow
	if value >= 0.2 && value <= 0.6 {
		level = LevelMedium
	}
	if value > 0.6 {
		level = LevelHigh
	}
	return Measure{Value: value, Level: level}
}

// computeSpread is the inside spread in basis points of mid.
func computeSpread(l2 *domain.MarketDataUpdate) Measure {
	if l2 == nil || len(l2.Asks) == 0 || len(l2.Bids) == 0 {
		return Measure{Level: LevelLow}
	}
	bestAsk, _ := l2.Asks[0].Price.Float64()
	bestBid, _ := l2.Bids[0].Price.Float64()
	mid := (bestAsk + bestBid) / 2
	if mid == 0 {
		return Measure{Level: LevelLow}
	}
	spreadBps := (bestAsk - bestBid) / mid * 10000

	level := LevelLow // tight
	if spreadBps >= 5 && spreadBps <= 20 {
		level = LevelMedium // normal
	}
	if spreadBps > 20 {
		level = LevelHigh // wide
	}
	return Measure{Value: spreadBps, Level: level}
}

// computeLiquidity sums the top three levels on both sides.
func computeLiquidity(l2 *domain.MarketDataUpdate) Measure {
	if l2 == nil {
		return Measure{Level: LevelLow}
	}
	var depth float64
	for i, b := range l2.Bids {
		if i >= 3 {
			break
		}
		q, _ := b.Qty.Float64()
		depth += q
	}
	for i, a := range l2.Asks {
		if i >= 3 {
			break
		}
		q, _ := a.Qty.Float64()
		depth += q
	}
	level := LevelLow
	if depth >= 5 && depth < 15 {
		level = LevelMedium
	}
	if depth >= 15 {
		level = LevelHigh
	}
	return Measure{Value: depth, Level: level}
}

// computeTrendBias nets aggressor volume over the window. Value is the
// signed share of total volume in [-1, 1].
func computeTrendBias(prints []print) TrendMeasure {
	if len(prints) == 0 {
		return TrendMeasure{Bias: BiasNeutral}
	}
	var buyVol, sellVol float64
	for _, p := range prints {
		if p.side == domain.Buy {
			buyVol += p.qty
		} else {
			sellVol += p.qty
		}
	}
	total := buyVol + sellVol
	if total == 0 {
		return TrendMeasure{Bias: BiasNeutral}
	}
	value := (buyVol - sellVol) / total
	bias := BiasNeutral
	if value > 0.2 {
		bias = BiasBuy
	} else if value < -0.2 {
		bias = BiasSell
	}
	return TrendMeasure{Value: value, Bias: bias}
}
