package sim

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

const (
	bookLevels   = 10
	levelStep    = 0.5
	qtyPrecision = 4
)

// tick runs one simulation step: advance the walk, match resting orders,
// synthesize market data, persist. Events are published after the state
// mutation completes so subscriber callbacks never run under the engine lock.
func (e *Engine) tick(ctx context.Context) {
	e.mu.Lock()
	e.advancePriceLocked()
	events := e.matchOrdersLocked()
	events = append(events, e.marketDataLocked()...)
	state := e.snapshotLocked()
	e.mu.Unlock()

	for _, ev := range events {
		e.feed.Publish(ev)
	}

	if err := e.store.Save(ctx, state); err != nil {
		// in-memory state stays authoritative; keep ticking
		e.log.Error().Err(err).Msg("failed to persist venue state")
	}
}

// advancePriceLocked applies the bounded random walk:
// price' = max(1, price + U(-5,5)).
func (e *Engine) advancePriceLocked() {
	px, _ := e.lastPrice.Float64()
	px += (e.rng.Float64() - 0.5) * 10
	if px < 1 {
		px = 1
	}
	e.lastPrice = decimal.NewFromFloat(px)
}

// matchOrdersLocked evaluates every non-terminal order once against the
// current price. A cross fills the full remaining quantity unless the 50%
// partial-fill degrade kicks in; zero-quantity fills are discarded silently.
func (e *Engine) matchOrdersLocked() []domain.Event {
	var events []domain.Event
	fillPrice := e.lastPrice

	for _, order := range e.orders {
		if order.Terminal() {
			continue
		}

		crossed := (order.Side == domain.Buy && fillPrice.LessThanOrEqual(order.Price)) ||
			(order.Side == domain.Sell && fillPrice.GreaterThanOrEqual(order.Price))
		if !crossed {
			continue
		}

		fillQty := order.LeavesQty()
		if e.rng.Float64() > 0.5 {
			fillQty = fillQty.Mul(decimal.NewFromFloat(e.rng.Float64())).Round(qtyPrecision)
		}
		if !fillQty.IsPositive() {
			continue
		}

		newFilled := order.FilledQty.Add(fillQty)
		newAvg := order.AvgPrice.Mul(order.FilledQty).
			Add(fillPrice.Mul(fillQty)).
			Div(newFilled)

		status := domain.StatusPartiallyFilled
		if newFilled.GreaterThanOrEqual(order.Quantity) {
			status = domain.StatusFilled
		}
		if err := domain.CanTransition(order.Status, status); err != nil {
			e.log.Error().Err(err).Str("order_id", order.OrderID).Msg("skipping fill")
			continue
		}

		if order.Side == domain.Buy {
			cost := fillPrice.Mul(fillQty)
			e.balances.USD.Reserved = e.balances.USD.Reserved.Sub(cost)
			e.balances.BTC.Available = e.balances.BTC.Available.Add(fillQty)
		} else {
			e.balances.BTC.Reserved = e.balances.BTC.Reserved.Sub(fillQty)
			e.balances.USD.Available = e.balances.USD.Available.Add(fillPrice.Mul(fillQty))
		}

		order.FilledQty = newFilled
		order.AvgPrice = newAvg
		order.Status = status
		order.UpdatedAt = now()

		events = append(events, orderReport(order))
	}
	return events
}

// marketDataLocked regenerates the synthetic book around the mid and, with
// 30% probability, one trade print that goes onto the tape. The book is a
// display artifact; matching only ever sees the scalar mid.
func (e *Engine) marketDataLocked() []domain.Event {
	mid, _ := e.lastPrice.Float64()
	spread := e.rng.Float64() + 1 // [1, 2)

	bids := make([]domain.PriceLevel, bookLevels)
	asks := make([]domain.PriceLevel, bookLevels)
	for i := 0; i < bookLevels; i++ {
		offset := spread/2 + float64(i)*levelStep
		bids[i] = domain.PriceLevel{
			Price: decimal.NewFromFloat(mid - offset),
			Qty:   decimal.NewFromFloat(e.rng.Float64()*2 + 0.1),
		}
		asks[i] = domain.PriceLevel{
			Price: decimal.NewFromFloat(mid + offset),
			Qty:   decimal.NewFromFloat(e.rng.Float64()*2 + 0.1),
		}
	}

	book := domain.MarketDataUpdate{
		Type:      domain.MarketDataL2,
		Symbol:    e.cfg.Symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: now(),
	}
	e.lastBook = &book
	events := []domain.Event{book}

	if e.rng.Float64() > 0.7 {
		side := domain.Sell
		if e.rng.Float64() > 0.5 {
			side = domain.Buy
		}
		print := domain.MarketDataUpdate{
			Type:   domain.MarketDataTrade,
			Symbol: e.cfg.Symbol,
			Trade: &domain.TradeInfo{
				Price: e.lastPrice,
				Qty:   decimal.NewFromFloat(e.rng.Float64()*0.5 + 0.01),
				Side:  side,
			},
			Timestamp: now(),
		}
		e.tape = append([]domain.MarketDataUpdate{print}, e.tape...)
		if len(e.tape) > domain.TapeLimit {
			e.tape = e.tape[:domain.TapeLimit]
		}
		events = append(events, print)
	}
	return events
}

// snapshotLocked deep-copies the mutable state into a persistable blob.
func (e *Engine) snapshotLocked() *domain.EngineState {
	orders := make(map[string]*domain.Order, len(e.orders))
	for id, o := range e.orders {
		cp := *o
		orders[id] = &cp
	}
	tape := make([]domain.MarketDataUpdate, len(e.tape))
	copy(tape, e.tape)
	return &domain.EngineState{
		Balances:  e.balances,
		Orders:    orders,
		Trades:    tape,
		LastPrice: e.lastPrice,
	}
}
