package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusNew, StatusPendingSubmit},
		{StatusNew, StatusLive},
		{StatusPendingSubmit, StatusLive},
		{StatusPendingSubmit, StatusRejected},
		{StatusLive, StatusPartiallyFilled},
		{StatusLive, StatusFilled},
		{StatusLive, StatusCanceled},
		{StatusPartiallyFilled, StatusPartiallyFilled},
		{StatusPartiallyFilled, StatusFilled},
		{StatusPartiallyFilled, StatusCanceled},
		{StatusCancelPending, StatusCanceled},
		{StatusReplacePending, StatusLive},
	}
	for _, tc := range allowed {
		assert.NoError(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{StatusFilled, StatusLive},
		{StatusFilled, StatusCanceled},
		{StatusCanceled, StatusLive},
		{StatusRejected, StatusLive},
		{StatusLive, StatusNew},
		{StatusNew, StatusFilled},
	}
	for _, tc := range denied {
		err := CanTransition(tc.from, tc.to)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusFilled, StatusCanceled, StatusRejected} {
		o := Order{Status: s}
		assert.True(t, o.Terminal(), "%s", s)
	}
	for _, s := range []OrderStatus{StatusNew, StatusLive, StatusPartiallyFilled} {
		o := Order{Status: s}
		assert.False(t, o.Terminal(), "%s", s)
	}
}
