// Package sim implements the simulated venue behind the trading console's
// demo mode: a random-walk market, a book of resting paper orders matched
// against it, one account's balance reservations, and a bounded trade tape.
// State is persisted through a port.StateStore after every tick and restored
// on construction, so the simulation survives restarts.
//
// Settlement note: a fill releases fillPrice x fillQty from the reserved
// side. Fills only happen when the walk crosses the limit, so the release
// never exceeds the reservation; when a BUY fills below its limit the price
// improvement stays reserved. Cancellation releases leavesQty x limit.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/feed"
	"github.com/atlasmarkets/venue-sim/internal/port"
	"github.com/atlasmarkets/venue-sim/internal/risk"
)

// Config controls the simulation. Zero values fall back to Default().
type Config struct {
	Symbol       string
	TickInterval time.Duration
	Seed         int64 // 0 seeds from the clock
	Limits       risk.Limits
	StartingUSD  decimal.Decimal
	StartingBTC  decimal.Decimal
	StartPrice   decimal.Decimal
}

func Default() Config {
	return Config{
		Symbol:       "BTC-USD",
		TickInterval: 250 * time.Millisecond,
		StartingUSD:  decimal.NewFromInt(100000),
		StartingBTC:  decimal.NewFromInt(50),
		StartPrice:   decimal.NewFromInt(50000),
	}
}

// Engine is the simulated market. Construct with New, drive with Start/Stop.
// All exported methods are safe for concurrent use; internally one mutex
// serializes ticks and order commands so at most one mutation is in flight.
type Engine struct {
	cfg   Config
	log   zerolog.Logger
	store port.StateStore
	feed  *feed.Feed
	rng   *rand.Rand

	mu        sync.Mutex
	balances  domain.Account
	orders    map[string]*domain.Order
	tape      []domain.MarketDataUpdate
	lastPrice decimal.Decimal
	lastBook  *domain.MarketDataUpdate

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New restores prior state from the store when present, otherwise starts
// from the configured defaults. A blob that fails to load is logged and
// discarded rather than propagated into the simulation.
func New(ctx context.Context, cfg Config, store port.StateStore, f *feed.Feed, log zerolog.Logger) (*Engine, error) {
	def := Default()
	if cfg.Symbol == "" {
		cfg.Symbol = def.Symbol
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.StartingUSD.IsZero() {
		cfg.StartingUSD = def.StartingUSD
	}
	if cfg.StartingBTC.IsZero() {
		cfg.StartingBTC = def.StartingBTC
	}
	if cfg.StartPrice.IsZero() {
		cfg.StartPrice = def.StartPrice
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		cfg:   cfg,
		log:   log,
		store: store,
		feed:  f,
		rng:   rand.New(rand.NewSource(seed)),
	}
	e.applyDefaults()

	state, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable saved state, starting clean")
	} else if state != nil {
		e.balances = state.Balances
		e.orders = state.Orders
		if e.orders == nil {
			e.orders = make(map[string]*domain.Order)
		}
		e.tape = state.Trades
		e.lastPrice = state.LastPrice
		log.Info().Int("orders", len(e.orders)).Int("tape", len(e.tape)).
			Str("last_price", e.lastPrice.String()).Msg("restored venue state")
	}
	return e, nil
}

func (e *Engine) applyDefaults() {
	e.balances = domain.Account{
		USD: domain.Balance{Available: e.cfg.StartingUSD, Reserved: decimal.Zero},
		BTC: domain.Balance{Available: e.cfg.StartingBTC, Reserved: decimal.Zero},
	}
	e.orders = make(map[string]*domain.Order)
	e.tape = nil
	e.lastPrice = e.cfg.StartPrice
	e.lastBook = nil
}

// Start launches the tick loop. Starting a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.run(ctx, e.stopCh, e.doneCh)
	e.log.Info().Dur("interval", e.cfg.TickInterval).Str("symbol", e.cfg.Symbol).
		Msg("tick loop started")
}

// Stop halts the tick loop and waits for any in-flight tick to finish.
func (e *Engine) Stop() {
	e.runMu.Lock()
	if !e.running {
		e.runMu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	done := e.doneCh
	e.runMu.Unlock()
	<-done
	e.log.Info().Msg("tick loop stopped")
}

func (e *Engine) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.tick(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Submit runs the pre-trade checks and either reserves balance and creates a
// LIVE order or emits a rejection. The returned report is the same event
// published to subscribers. An error is returned only for malformed input;
// rejections are not errors.
func (e *Engine) Submit(cmd domain.OrderCommand) (domain.ExecutionReport, error) {
	if cmd.Side != domain.Buy && cmd.Side != domain.Sell {
		return domain.ExecutionReport{}, fmt.Errorf("invalid side: %q", cmd.Side)
	}
	if !cmd.Quantity.IsPositive() {
		return domain.ExecutionReport{}, fmt.Errorf("quantity must be > 0")
	}
	if !cmd.Price.IsPositive() {
		return domain.ExecutionReport{}, fmt.Errorf("price must be > 0")
	}

	orderID := cmd.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	e.mu.Lock()
	if _, exists := e.orders[orderID]; exists {
		e.mu.Unlock()
		return domain.ExecutionReport{}, fmt.Errorf("order %q already exists", orderID)
	}
	if err := e.cfg.Limits.Check(cmd.Quantity, cmd.Price); err != nil {
		e.mu.Unlock()
		report := e.rejectionReport(orderID, err.Error())
		e.feed.Publish(report)
		return report, nil
	}

	if cmd.Side == domain.Buy {
		cost := cmd.Price.Mul(cmd.Quantity)
		if e.balances.USD.Available.LessThan(cost) {
			e.mu.Unlock()
			report := e.rejectionReport(orderID, "Insufficient USD balance")
			e.feed.Publish(report)
			return report, nil
		}
		e.balances.USD.Available = e.balances.USD.Available.Sub(cost)
		e.balances.USD.Reserved = e.balances.USD.Reserved.Add(cost)
	} else {
		if e.balances.BTC.Available.LessThan(cmd.Quantity) {
			e.mu.Unlock()
			report := e.rejectionReport(orderID, "Insufficient BTC balance")
			e.feed.Publish(report)
			return report, nil
		}
		e.balances.BTC.Available = e.balances.BTC.Available.Sub(cmd.Quantity)
		e.balances.BTC.Reserved = e.balances.BTC.Reserved.Add(cmd.Quantity)
	}

	order := &domain.Order{
		OrderID:   orderID,
		ClientID:  cmd.ClientID,
		Symbol:    cmd.Symbol,
		Side:      cmd.Side,
		Quantity:  cmd.Quantity,
		Price:     cmd.Price,
		Status:    domain.StatusLive,
		FilledQty: decimal.Zero,
		AvgPrice:  decimal.Zero,
		UpdatedAt: now(),
	}
	e.orders[orderID] = order
	report := orderReport(order)
	e.mu.Unlock()

	e.feed.Publish(report)
	return report, nil
}

// Cancel releases the unfilled reservation and moves the order to CANCELED.
func (e *Engine) Cancel(orderID string) (domain.ExecutionReport, error) {
	e.mu.Lock()
	order, ok := e.orders[orderID]
	if !ok {
		e.mu.Unlock()
		return domain.ExecutionReport{}, domain.ErrOrderNotFound
	}
	if err := domain.CanTransition(order.Status, domain.StatusCanceled); err != nil {
		e.mu.Unlock()
		return domain.ExecutionReport{}, err
	}

	leaves := order.LeavesQty()
	if order.Side == domain.Buy {
		release := order.Price.Mul(leaves)
		e.balances.USD.Reserved = e.balances.USD.Reserved.Sub(release)
		e.balances.USD.Available = e.balances.USD.Available.Add(release)
	} else {
		e.balances.BTC.Reserved = e.balances.BTC.Reserved.Sub(leaves)
		e.balances.BTC.Available = e.balances.BTC.Available.Add(leaves)
	}
	order.Status = domain.StatusCanceled
	order.UpdatedAt = now()

	report := orderReport(order)
	report.Type = domain.ExecCancel
	e.mu.Unlock()

	e.feed.Publish(report)
	return report, nil
}

// Reset restores default balances and clears orders, tape and price, then
// persists immediately. No event is emitted; consumers re-read state.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	e.applyDefaults()
	state := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.store.Save(ctx, state); err != nil {
		return fmt.Errorf("persist after reset: %w", err)
	}
	e.log.Info().Msg("venue state reset to defaults")
	return nil
}

// Balances returns a copy of the account.
func (e *Engine) Balances() domain.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances
}

// Order returns a copy of one order.
func (e *Engine) Order(orderID string) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

// Orders returns copies of all orders, most recently updated first.
func (e *Engine) Orders() []domain.Order {
	e.mu.Lock()
	out := make([]domain.Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, *o)
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Tape returns the recent trade prints, newest first.
func (e *Engine) Tape() []domain.MarketDataUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.MarketDataUpdate, len(e.tape))
	copy(out, e.tape)
	return out
}

func (e *Engine) LastPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPrice
}

// Book returns the most recent synthetic L2 snapshot, or nil before the
// first tick.
func (e *Engine) Book() *domain.MarketDataUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastBook == nil {
		return nil
	}
	snap := *e.lastBook
	return &snap
}

func (e *Engine) Symbol() string { return e.cfg.Symbol }

func (e *Engine) rejectionReport(orderID, reason string) domain.ExecutionReport {
	return domain.ExecutionReport{
		ExecID:    uuid.NewString(),
		OrderID:   orderID,
		Type:      domain.ExecRejected,
		Status:    domain.StatusRejected,
		LeavesQty: decimal.Zero,
		CumQty:    decimal.Zero,
		AvgPx:     decimal.Zero,
		Timestamp: now(),
		Reason:    reason,
	}
}

func orderReport(o *domain.Order) domain.ExecutionReport {
	return domain.ExecutionReport{
		ExecID:    uuid.NewString(),
		OrderID:   o.OrderID,
		ClientID:  o.ClientID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		OrderQty:  o.Quantity,
		Price:     o.Price,
		Type:      domain.ExecFill,
		Status:    o.Status,
		LeavesQty: o.LeavesQty(),
		CumQty:    o.FilledQty,
		AvgPx:     o.AvgPrice,
		Timestamp: o.UpdatedAt,
	}
}

func now() time.Time { return time.Now().UTC() }
