package feed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

func TestDeliversInRegistrationOrder(t *testing.T) {
	f := New(zerolog.Nop())

	var order []string
	f.Subscribe(func(domain.Event) { order = append(order, "a") })
	f.Subscribe(func(domain.Event) { order = append(order, "b") })
	f.Subscribe(func(domain.Event) { order = append(order, "c") })

	f.Publish(domain.MarketDataUpdate{Type: domain.MarketDataL2})
	f.Publish(domain.MarketDataUpdate{Type: domain.MarketDataL2})

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, order)
}

func TestUnsubscribeRemovesCallback(t *testing.T) {
	f := New(zerolog.Nop())

	var aCount, bCount int
	unsubA := f.Subscribe(func(domain.Event) { aCount++ })
	f.Subscribe(func(domain.Event) { bCount++ })

	f.Publish(domain.ExecutionReport{})
	unsubA()
	f.Publish(domain.ExecutionReport{})
	unsubA() // double unsubscribe is harmless

	assert.Equal(t, 1, aCount)
	assert.Equal(t, 2, bCount)
	assert.Equal(t, 1, f.Len())
}

func TestPanickingSubscriberIsContained(t *testing.T) {
	f := New(zerolog.Nop())

	var after int
	f.Subscribe(func(domain.Event) { panic("boom") })
	f.Subscribe(func(domain.Event) { after++ })

	require.NotPanics(t, func() {
		f.Publish(domain.ExecutionReport{})
	})
	assert.Equal(t, 1, after, "subscribers after the panicking one still run")
}

func TestEveryObserverSeesEveryEventType(t *testing.T) {
	f := New(zerolog.Nop())

	var execs, md int
	f.Subscribe(func(ev domain.Event) {
		switch ev.(type) {
		case domain.ExecutionReport:
			execs++
		case domain.MarketDataUpdate:
			md++
		}
	})

	f.Publish(domain.ExecutionReport{})
	f.Publish(domain.MarketDataUpdate{Type: domain.MarketDataTrade})
	f.Publish(domain.MarketDataUpdate{Type: domain.MarketDataL2})

	assert.Equal(t, 1, execs)
	assert.Equal(t, 2, md)
}
