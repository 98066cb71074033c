package feed

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

type subscriber struct {
	id int
	fn func(domain.Event)
}

// Feed fans every published event out to all subscribers, synchronously and
// in registration order. There is no buffering: Publish returns after the
// last callback has run. A panicking subscriber is recovered and logged so
// it cannot take down the tick loop or starve other observers.
type Feed struct {
	log zerolog.Logger

	mu     sync.Mutex
	subs   []subscriber
	nextID int
}

func New(log zerolog.Logger) *Feed {
	return &Feed{log: log}
}

// Subscribe registers a callback for every subsequent event and returns a
// function that removes it again.
func (f *Feed) Subscribe(fn func(domain.Event)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs = append(f.subs, subscriber{id: id, fn: fn})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *Feed) Publish(ev domain.Event) {
	f.mu.Lock()
	subs := make([]subscriber, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		f.deliver(s, ev)
	}
}

func (f *Feed) deliver(s subscriber, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().Int("subscriber", s.id).Interface("panic", r).
				Msg("subscriber panicked during fan-out")
		}
	}()
	s.fn(ev)
}

// Len reports the number of active subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
