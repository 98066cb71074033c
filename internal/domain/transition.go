package domain

import "fmt"

// transitions encodes the order lifecycle. The simulated venue only travels
// LIVE -> PARTIALLY_FILLED -> FILLED, LIVE -> CANCELED and the REJECTED
// short-circuit, but the full OMS table is kept so replayed histories from
// a live gateway validate too.
var transitions = map[OrderStatus][]OrderStatus{
	StatusNew:             {StatusPendingSubmit, StatusLive, StatusRejected},
	StatusPendingSubmit:   {StatusPendingSubmit, StatusLive, StatusRejected},
	StatusLive:            {StatusPartiallyFilled, StatusFilled, StatusCancelPending, StatusCanceled, StatusReplacePending},
	StatusPartiallyFilled: {StatusPartiallyFilled, StatusFilled, StatusCancelPending, StatusCanceled, StatusReplacePending},
	StatusCancelPending:   {StatusCanceled},
	StatusReplacePending:  {StatusLive},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
