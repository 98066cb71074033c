package http

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/feed"
)

func testEvent() domain.Event {
	return domain.MarketDataUpdate{
		Type:   domain.MarketDataTrade,
		Symbol: "BTC-USD",
		Trade: &domain.TradeInfo{
			Price: decimal.NewFromInt(50000),
			Qty:   decimal.NewFromFloat(0.1),
			Side:  domain.Buy,
		},
	}
}

func TestForwardEnqueuesEvent(t *testing.T) {
	client := newWSClient(nil, zerolog.Nop())

	client.forward(testEvent())
	require.Len(t, client.send, 1)
	assert.Contains(t, string(<-client.send), `"TRADE"`)
}

func TestForwardDropsWhenBufferFull(t *testing.T) {
	client := newWSClient(nil, zerolog.Nop())
	for i := 0; i < sendBuffer; i++ {
		client.forward(testEvent())
	}
	require.Len(t, client.send, sendBuffer)

	assert.NotPanics(t, func() { client.forward(testEvent()) })
	assert.Len(t, client.send, sendBuffer)
}

// A publish can snapshot the subscriber list before the client disconnects
// and deliver after. Delivery into a gone client must be a no-op, not a
// panic.
func TestForwardAfterDisconnectDoesNotPanic(t *testing.T) {
	client := newWSClient(nil, zerolog.Nop())
	bus := feed.New(zerolog.Nop())
	unsubscribe := bus.Subscribe(client.forward)

	// connection tears down before the handler unsubscribes
	close(client.done)

	assert.NotPanics(t, func() { bus.Publish(testEvent()) })
	unsubscribe()
	assert.NotPanics(t, func() { bus.Publish(testEvent()) })
}

func TestForwardAfterDisconnectWithFullBuffer(t *testing.T) {
	client := newWSClient(nil, zerolog.Nop())
	for i := 0; i < sendBuffer; i++ {
		client.forward(testEvent())
	}
	close(client.done)

	assert.NotPanics(t, func() { client.forward(testEvent()) })
}
