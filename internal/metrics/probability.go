package metrics

import "github.com/atlasmarkets/venue-sim/internal/domain"

type FillEstimate struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
}

// EstimateFillProbability maps a limit order's distance from the touch to a
// probability in [5, 95], marketable orders starting at 95, with small
// penalties for high volatility or a wide spread.
func EstimateFillProbability(side domain.Side, price, bestBid, bestAsk float64, volatility, spread Level) FillEstimate {
	if price <= 0 || bestBid <= 0 || bestAsk <= 0 {
		return FillEstimate{Probability: 0, Label: "Unlikely"}
	}

	mid := (bestBid + bestAsk) / 2
	var probability float64

	if side == domain.Buy {
		if price >= bestAsk {
			probability = 95
		} else {
			probability = mapDistanceToProbability((bestAsk - price) / mid * 10000)
		}
	} else {
		if price <= bestBid {
			probability = 95
		} else {
			probability = mapDistanceToProbability((price - bestBid) / mid * 10000)
		}
	}

	if volatility == LevelHigh {
		probability -= 5
	}
	if spread == LevelHigh {
		probability -= 5
	}
	if probability < 5 {
		probability = 5
	}
	if probability > 95 {
		probability = 95
	}

	label := "Unlikely"
	if probability > 70 {
		label = "Likely to fill soon"
	} else if probability > 40 {
		label = "May rest"
	}
	return FillEstimate{Probability: probability, Label: label}
}

// piecewise linear: 0-5bps maps 90->70, 5-20bps 70->40, beyond decays to 5.
func mapDistanceToProbability(distanceBps float64) float64 {
	switch {
	case distanceBps <= 5:
		return 90 - distanceBps/5*20
	case distanceBps <= 20:
		return 70 - (distanceBps-5)/15*30
	default:
		p := 40 - (distanceBps-20)/80*35
		if p < 5 {
			return 5
		}
		return p
	}
}
